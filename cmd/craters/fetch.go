package main

import (
	"github.com/Noofbiz/craterdata/datasets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and verify the dataset files",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := rootDir()
		baseURL := viper.GetString("base-url")
		if baseURL == "" {
			baseURL = datasets.DefaultBaseURL
		}
		if err := datasets.Download(root, baseURL, datasets.MoonCraterFiles, nil); err != nil {
			return err
		}
		klog.Infof("Dataset ready in %s", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
