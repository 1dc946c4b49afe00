package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var verifyDeep bool

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the dataset files against their checksums",
	Long: `Check the dataset files against their checksums.
With --deep the container is also opened and every row is checked to
point at an existing crater record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := rootDir()
		ok := printStatus(cmd.OutOrStdout(), root, datasets.MoonCraterFiles)
		if !ok {
			return errors.Wrapf(datasets.ErrNotFoundOrCorrupted, "in %s, run `craters fetch` to download it", root)
		}
		if !verifyDeep {
			return nil
		}
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()
		if err := ds.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows, %d crater records: consistent\n", ds.Rows(), ds.Len())
		return nil
	},
}

// printStatus writes one line per file and reports whether all are valid.
func printStatus(w io.Writer, root string, files []datasets.RemoteFile) bool {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	allValid := true
	for _, file := range files {
		st := datasets.FileStatus(root, file)
		state := "ok"
		switch {
		case !st.Exists:
			state = "missing"
		case !st.Valid:
			state = "checksum mismatch (" + st.Actual.String() + ")"
		}
		allValid = allValid && st.Valid
		size := "-"
		if st.Exists {
			size = humanize.Bytes(uint64(st.Size))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", file.Name, size, file.Checksum, state)
	}
	_ = tw.Flush()
	return allValid
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyDeep, "deep", false, "also check the container rows against the crater records")
}
