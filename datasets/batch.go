package datasets

import (
	"io"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch reads the examples at indices and flattens them. Each input is an
// image as [H*W*C] values in [0,1] and each label the matching mask as [H*W]
// values that are 1 where the mask is set.
func (d *MoonCraterDataset) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	labels := make([][]float32, len(indices))
	for i, idx := range indices {
		img, mask, _, err := d.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[i], _, _, _ = imageToFloats(img)
		labels[i], _, _ = maskToFloats(mask)
	}
	return inputs, labels, nil
}

// Shuffle reorders the examples Yield walks through and restarts the epoch.
func (d *MoonCraterDataset) Shuffle(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	d.order = nil
	d.Reset()
	rng.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
}

// Name implements train.Dataset.
func (d *MoonCraterDataset) Name() string {
	return "MoonCraterDataset"
}

// Reset implements train.Dataset. It restarts the epoch keeping the current
// order.
func (d *MoonCraterDataset) Reset() {
	if len(d.order) != d.Len() {
		d.order = make([]int, d.Len())
		for i := range d.order {
			d.order[i] = i
		}
	}
	d.next = 0
}

// Yield implements train.Dataset. It returns the next BatchSize examples of
// the epoch as one image tensor and one mask tensor, and io.EOF once the
// epoch is over. The last batch of an epoch may be smaller.
//
// An epoch has Len() examples indexing container rows, so a container with
// fewer rows than records fails with ErrIndexOutOfRange; Validate reports it.
func (d *MoonCraterDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.next >= len(d.order) {
		return nil, nil, nil, io.EOF
	}
	end := min(d.next+d.BatchSize, len(d.order))
	batch, err := d.flatBatch(d.order[d.next:end])
	if err != nil {
		return nil, nil, nil, err
	}
	d.next = end

	in, la, err := batch.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return d, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}

func (d *MoonCraterDataset) flatBatch(indices []int) (*ImageBatchFlat, error) {
	examples := make([]FlatExample, len(indices))
	for i, idx := range indices {
		img, mask, _, err := d.Example(idx)
		if err != nil {
			return nil, err
		}
		ex := &examples[i]
		ex.Image, ex.Height, ex.Width, ex.Channels = imageToFloats(img)
		var mh, mw int
		ex.Mask, mh, mw = maskToFloats(mask)
		if mh != ex.Height || mw != ex.Width {
			return nil, errors.Errorf("example %d: image is %dx%d but mask is %dx%d",
				idx, ex.Width, ex.Height, mw, mh)
		}
	}
	return MakeImageBatchFlat(examples)
}

// FlatExample is one flattened image and mask.
type FlatExample struct {
	Image                   []float32
	Mask                    []float32
	Height, Width, Channels int
}

// ImageBatchFlat stores a batch in flat contiguous buffers: Images is
// [Batch, Height, Width, Channels] and Masks is [Batch, Height, Width].
type ImageBatchFlat struct {
	Images    []float32
	Masks     []float32
	BatchSize int
	Height    int
	Width     int
	Channels  int
}

// MakeImageBatchFlat packs examples of identical shape into one batch.
func MakeImageBatchFlat(examples []FlatExample) (*ImageBatchFlat, error) {
	if len(examples) == 0 {
		return &ImageBatchFlat{}, nil
	}
	first := examples[0]
	b := &ImageBatchFlat{
		BatchSize: len(examples),
		Height:    first.Height,
		Width:     first.Width,
		Channels:  first.Channels,
	}
	imgSize := b.Height * b.Width * b.Channels
	maskSize := b.Height * b.Width
	b.Images = make([]float32, b.BatchSize*imgSize)
	b.Masks = make([]float32, b.BatchSize*maskSize)

	for i, ex := range examples {
		if ex.Height != b.Height || ex.Width != b.Width || ex.Channels != b.Channels {
			return nil, errors.Errorf("inconsistent shapes in batch: example 0 is %dx%dx%d, example %d is %dx%dx%d",
				b.Height, b.Width, b.Channels, i, ex.Height, ex.Width, ex.Channels)
		}
		if len(ex.Image) != imgSize || len(ex.Mask) != maskSize {
			return nil, errors.Errorf("example %d has %d image and %d mask values, expected %d and %d",
				i, len(ex.Image), len(ex.Mask), imgSize, maskSize)
		}
		copy(b.Images[i*imgSize:], ex.Image)
		copy(b.Masks[i*maskSize:], ex.Mask)
	}
	return b, nil
}

// ToGomlxTensors converts the batch to an image tensor shaped
// [batch, height, width, channels] and a mask tensor shaped
// [batch, height, width, 1].
func (b *ImageBatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if b.BatchSize == 0 {
		return nil, nil, errors.New("empty batch")
	}
	images := make([][][][]float32, b.BatchSize)
	masks := make([][][][]float32, b.BatchSize)
	idx, midx := 0, 0
	for i := range b.BatchSize {
		images[i] = make([][][]float32, b.Height)
		masks[i] = make([][][]float32, b.Height)
		for y := range b.Height {
			images[i][y] = make([][]float32, b.Width)
			masks[i][y] = make([][]float32, b.Width)
			for x := range b.Width {
				images[i][y][x] = b.Images[idx : idx+b.Channels]
				idx += b.Channels
				masks[i][y][x] = b.Masks[midx : midx+1]
				midx++
			}
		}
	}
	return tensors.FromAnyValue(images), tensors.FromAnyValue(masks), nil
}
