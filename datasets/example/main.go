package main

// Example command that demonstrates opening the moon crater dataset, reading
// one example and converting a small batch into gomlx tensors.
//
// Usage:
//   go run ./datasets/example [-download] [-root dir]
//
// Without -root the directories in datasets.DefaultRoots are searched for a
// verified copy. With -download the files are fetched into -root (or the last
// default root) when missing.

import (
	"flag"
	"fmt"

	"github.com/Noofbiz/craterdata/datasets"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	root := flag.String("root", "", "dataset directory")
	download := flag.Bool("download", false, "download missing files")
	flag.Parse()
	defer klog.Flush()

	dir := *root
	if dir == "" {
		found, err := datasets.FindRoot()
		switch {
		case err == nil:
			dir = found
		case *download:
			dir = datasets.DefaultRoots[len(datasets.DefaultRoots)-1]
		default:
			klog.Exitf("failed to find the dataset: %v", err)
		}
	}

	ds, err := datasets.NewMoonCraterDataset(dir, datasets.Options{Download: *download, BatchSize: 4})
	if err != nil {
		klog.Exitf("failed to open dataset: %v", err)
	}
	defer ds.Close()
	fmt.Printf("Using dataset in %s\n", ds.Root)
	fmt.Printf("Crater records: %d, image rows: %d\n", ds.Len(), ds.Rows())
	if ds.Len() == 0 {
		return
	}

	img, mask, crater, err := ds.Example(0)
	if err != nil {
		klog.Exitf("failed to read example 0: %v", err)
	}
	fmt.Printf("Example 0: image %v %T, mask %v %T\n", img.Bounds().Size(), img, mask.Bounds().Size(), mask)
	if fields, err := crater.Fields(); err == nil {
		fmt.Printf("  Crater record: %v\n", fields)
	}

	// One batch through the gomlx train.Dataset surface.
	ds.Shuffle(1)
	_, inputs, labels, err := ds.Yield()
	if err != nil {
		klog.Exitf("failed to yield a batch: %v", err)
	}
	fmt.Printf("Created tensors: images %v, masks %v\n",
		inputs[0].Shape().Dimensions, labels[0].Shape().Dimensions)
}
