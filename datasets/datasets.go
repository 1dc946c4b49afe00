package datasets

import (
	"image"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
)

// This package loads the lunar crater segmentation dataset (moon_data.h5 plus
// data_rec.json) and presents it as examples suitable for model training.
//
// Files are checked against fixed checksums before anything is opened, and
// can be downloaded on request. Rows of the HDF5 container are read on demand
// so only the crater records are held in memory.
//
// Layout and intended usage:
//
// MoonCraterDataset
//   - Example(i) returns image i, its crater mask and the crater record the
//     container names for that row, after the optional transforms.
//   - Batch(indices) returns flattened float32 buffers for the pure Go trainer
//     in package simple: image pixels scaled to [0,1], mask pixels as 0 or 1.
//   - Yield implements gomlx's train.Dataset, producing image tensors shaped
//     [batch, height, width, channels] and mask tensors shaped
//     [batch, height, width, 1].

// Dataset is implemented by MoonCraterDataset.
type Dataset interface {
	Len() int
	Example(i int) (img, mask image.Image, crater Crater, err error)
	Batch(indices []int) (inputs [][]float32, labels [][]float32, err error)
	Shuffle(seed int64)

	// To implement gomlx's train.Dataset interface
	Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error)
}

var (
	_ Dataset       = (*MoonCraterDataset)(nil)
	_ train.Dataset = (*MoonCraterDataset)(nil)
)
