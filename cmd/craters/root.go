package main

import (
	goflag "flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/gomlx/gomlx/pkg/support/fsutil"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "craters",
	Short: "Tools for the lunar crater segmentation dataset",
	Long: `Tools for the lunar crater segmentation dataset:
  craters fetch     download and verify the files
  craters verify    check the files against their checksums
  craters info      print sizes and shapes
  craters show      write one example to disk
  craters plot      plot crater record fields
  craters export    write the row catalog as Parquet
  craters serve     serve examples over HTTP
  craters train     fit a small per-pixel mask model
  `,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		klog.Flush()
		os.Exit(1)
	}
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.craters/config.yaml)")
	rootCmd.PersistentFlags().String("root", "~/.cache/craterdata", "dataset directory")
	rootCmd.PersistentFlags().String("base-url", datasets.DefaultBaseURL, "where to download the dataset files from")
	rootCmd.PersistentFlags().Bool("download", false, "download missing or corrupted files before opening the dataset")

	for _, name := range []string{"root", "base-url", "download"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix("craters")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			klog.Warningf("Can not find home directory: %v", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".craters"))
		viper.SetConfigName("config")
	}
	if err := viper.ReadInConfig(); err == nil {
		klog.V(1).Infof("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		klog.Errorf("Config can not be read: %v", err)
	}
}

// rootDir is the configured dataset directory with "~" expanded.
func rootDir() string {
	return fsutil.MustReplaceTildeInDir(viper.GetString("root"))
}

// openDataset opens the dataset with the configured settings.
func openDataset(opts datasets.Options) (*datasets.MoonCraterDataset, error) {
	opts.Download = opts.Download || viper.GetBool("download")
	opts.BaseURL = viper.GetString("base-url")
	return datasets.NewMoonCraterDataset(rootDir(), opts)
}
