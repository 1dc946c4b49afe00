package main

import (
	"os"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var exportOut string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the row catalog as a Parquet file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()

		n, err := ds.ExportParquet(exportOut)
		if err != nil {
			return err
		}
		if info, err := os.Stat(exportOut); err == nil {
			klog.Infof("Exported %d rows to %s (%s)", n, exportOut, humanize.Bytes(uint64(info.Size())))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "craters.parquet", "output Parquet file")
}
