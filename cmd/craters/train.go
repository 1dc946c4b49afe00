package main

import (
	"math/rand"

	"github.com/Noofbiz/craterdata/datasets"
	"github.com/Noofbiz/craterdata/simple"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	trainEpochs    int
	trainBatchSize int
	trainLR        float64
	trainHidden    []int
	trainLimit     int
	trainValFrac   float64
	trainSeed      int64
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a small per-pixel mask model on the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(datasets.Options{})
		if err != nil {
			return err
		}
		defer ds.Close()

		cfg := simple.Config{
			HiddenSizes:  trainHidden,
			LearningRate: trainLR,
			Epochs:       trainEpochs,
			BatchSize:    trainBatchSize,
			Seed:         trainSeed,
		}
		_, err = trainAndEvaluate(ds, cfg, trainLimit, trainValFrac)
		return err
	},
}

// subsetDataset exposes a subset of base through local indices.
type subsetDataset struct {
	base    simple.Dataset
	indices []int
}

func (s *subsetDataset) Len() int { return len(s.indices) }

func (s *subsetDataset) Batch(indices []int) ([][]float32, [][]float32, error) {
	if len(indices) == 0 {
		return [][]float32{}, [][]float32{}, nil
	}
	globals := make([]int, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.indices) {
			return nil, nil, errors.Wrapf(datasets.ErrIndexOutOfRange, "index %d for subset length %d", idx, len(s.indices))
		}
		globals[i] = s.indices[idx]
	}
	return s.base.Batch(globals)
}

// splitIndices shuffles the first limit indices of n (all when limit <= 0)
// and splits off valFrac of them for validation.
func splitIndices(n, limit int, valFrac float64, seed int64) (train, val []int) {
	if limit > 0 && limit < n {
		n = limit
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nVal := int(float64(n) * valFrac)
	if nVal >= n {
		nVal = n - 1
	}
	if nVal < 0 {
		nVal = 0
	}
	return perm[nVal:], perm[:nVal]
}

// trainAndEvaluate trains a model on a split of ds and returns it. The
// validation loss is logged when the split is non-empty.
func trainAndEvaluate(ds simple.Dataset, cfg simple.Config, limit int, valFrac float64) (*simple.Model, error) {
	if ds.Len() == 0 {
		return nil, errors.New("dataset has no examples")
	}
	trainIdx, valIdx := splitIndices(ds.Len(), limit, valFrac, cfg.Seed)
	trainSet := &subsetDataset{base: ds, indices: trainIdx}
	klog.Infof("Training on %d examples, validating on %d", len(trainIdx), len(valIdx))

	model, err := simple.NewModelForDataset(cfg, trainSet)
	if err != nil {
		return nil, err
	}
	losses, err := model.TrainWithDataset(trainSet)
	for epoch, loss := range losses {
		klog.Infof("Epoch %d: train loss %.5f", epoch+1, loss)
	}
	if err != nil {
		return nil, err
	}

	if len(valIdx) > 0 {
		valSet := &subsetDataset{base: ds, indices: valIdx}
		all := make([]int, len(valIdx))
		for i := range all {
			all[i] = i
		}
		loss, err := model.Loss(valSet, all)
		if err != nil {
			return nil, err
		}
		klog.Infof("Validation loss %.5f", loss)
	}
	return model, nil
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 5, "training epochs")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 8, "mini-batch size")
	trainCmd.Flags().Float64Var(&trainLR, "lr", 0.05, "SGD learning rate")
	trainCmd.Flags().IntSliceVar(&trainHidden, "hidden", []int{64}, "hidden layer sizes")
	trainCmd.Flags().IntVar(&trainLimit, "limit", 0, "only use the first N examples (0 for all)")
	trainCmd.Flags().Float64Var(&trainValFrac, "val-fraction", 0.1, "fraction of examples held out for validation")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 1, "random seed for the split and the weights")
}
