package main

import (
	"fmt"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the size and shapes of the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "root:           %s\n", ds.Root)
		fmt.Fprintf(out, "crater records: %d\n", ds.Len())
		fmt.Fprintf(out, "image rows:     %d\n", ds.Rows())
		if ds.Rows() == 0 {
			return nil
		}
		img, mask, _, err := ds.Example(0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "image:          %dx%d %T\n", img.Bounds().Dx(), img.Bounds().Dy(), img)
		fmt.Fprintf(out, "mask:           %dx%d %T\n", mask.Bounds().Dx(), mask.Bounds().Dy(), mask)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
