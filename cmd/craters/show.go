package main

import (
	"os"
	"path/filepath"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	showIndex int
	showOut   string
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Write one example as image.png, mask.png and crater.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()
		return writeExample(ds, showIndex, showOut)
	},
}

// writeExample saves example idx of ds under dir.
func writeExample(ds datasets.Dataset, idx int, dir string) error {
	img, mask, crater, err := ds.Example(idx)
	if err != nil {
		return err
	}
	if err := datasets.WritePNG(filepath.Join(dir, "image.png"), img); err != nil {
		return err
	}
	if err := datasets.WritePNG(filepath.Join(dir, "mask.png"), mask); err != nil {
		return err
	}
	raw, err := crater.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "crater.json"), append(raw, '\n'), 0o644); err != nil {
		return errors.WithStack(err)
	}
	klog.Infof("Example %d written to %s", idx, dir)
	return nil
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showIndex, "index", "i", 0, "example index")
	showCmd.Flags().StringVarP(&showOut, "out", "o", "example", "output directory")
}
