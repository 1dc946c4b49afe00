package datasets

import (
	"github.com/pkg/errors"
)

// Array is one row of an image or mask array: uint8 values in row-major order
// with their shape, e.g. [H, W] or [H, W, C].
type Array struct {
	Data  []uint8
	Shape []int
}

// Size returns the number of elements the shape describes.
func (a Array) Size() int {
	if len(a.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Container is the binary data container backing the dataset. Row i of the
// images, the masks and the names belong together.
//
// Containers are not safe for concurrent use.
type Container interface {
	// Rows is the number of image rows.
	Rows() int
	// Lens reports the leading dimension of each of the three arrays.
	Lens() (images, masks, names int)
	ImageRow(i int) (Array, error)
	MaskRow(i int) (Array, error)
	// Name returns the metadata index stored for row i.
	Name(i int) (int64, error)
	Close() error
}

func checkRow(what string, i, n int) error {
	if i < 0 || i >= n {
		return errors.Wrapf(ErrIndexOutOfRange, "%s index %d, size %d", what, i, n)
	}
	return nil
}

// memoryContainer holds all rows in memory.
type memoryContainer struct {
	images, masks []Array
	names         []int64
}

// NewMemoryContainer returns a Container over arrays already in memory. The
// slices are not copied.
func NewMemoryContainer(images, masks []Array, names []int64) Container {
	return &memoryContainer{images: images, masks: masks, names: names}
}

func (m *memoryContainer) Rows() int { return len(m.images) }

func (m *memoryContainer) Lens() (int, int, int) {
	return len(m.images), len(m.masks), len(m.names)
}

func (m *memoryContainer) ImageRow(i int) (Array, error) {
	if err := checkRow("/image", i, len(m.images)); err != nil {
		return Array{}, err
	}
	return m.images[i], nil
}

func (m *memoryContainer) MaskRow(i int) (Array, error) {
	if err := checkRow("/mask", i, len(m.masks)); err != nil {
		return Array{}, err
	}
	return m.masks[i], nil
}

func (m *memoryContainer) Name(i int) (int64, error) {
	if err := checkRow("/names", i, len(m.names)); err != nil {
		return 0, err
	}
	return m.names[i], nil
}

func (m *memoryContainer) Close() error { return nil }
