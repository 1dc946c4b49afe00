package datasets

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/hdf5"
)

// Array paths inside the HDF5 container.
const (
	ImagePath = "/image"
	MaskPath  = "/mask"
	NamesPath = "/names"
)

// h5Array is one opened HDF5 dataset with its extent and element type.
type h5Array struct {
	path     string
	ds       *hdf5.Dataset
	dims     []uint
	class    hdf5.TypeClass
	elemSize int
}

func openH5Array(f *hdf5.File, path string) (*h5Array, error) {
	ds, err := f.OpenDataset(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	arr := &h5Array{path: path, ds: ds}
	space := ds.Space()
	defer func() { _ = space.Close() }()
	arr.dims, _, err = space.SimpleExtentDims()
	if err != nil {
		_ = ds.Close()
		return nil, errors.Wrapf(err, "failed to read dimensions of %q", path)
	}
	if len(arr.dims) == 0 {
		_ = ds.Close()
		return nil, errors.Errorf("%q is a scalar, expected an array", path)
	}
	dtype, err := ds.Datatype()
	if err != nil {
		_ = ds.Close()
		return nil, errors.Wrapf(err, "failed to read element type of %q", path)
	}
	arr.class = dtype.Class()
	arr.elemSize = int(dtype.Size())
	_ = dtype.Close()
	return arr, nil
}

func (a *h5Array) len() int { return int(a.dims[0]) }

// rowShape is the shape of a single row: every dimension but the first.
func (a *h5Array) rowShape() []int {
	shape := make([]int, len(a.dims)-1)
	for i, d := range a.dims[1:] {
		shape[i] = int(d)
	}
	return shape
}

// readRow reads the raw bytes of row i using a hyperslab over the first
// dimension. Bytes are in the element type stored in the file.
func (a *h5Array) readRow(i int) ([]byte, error) {
	if err := checkRow(a.path, i, a.len()); err != nil {
		return nil, err
	}
	offset := make([]uint, len(a.dims))
	count := make([]uint, len(a.dims))
	offset[0] = uint(i)
	count[0] = 1
	elems := 1
	for d := 1; d < len(a.dims); d++ {
		count[d] = a.dims[d]
		elems *= int(a.dims[d])
	}

	filespace := a.ds.Space()
	defer func() { _ = filespace.Close() }()
	if err := filespace.SelectHyperslab(offset, nil, count, nil); err != nil {
		return nil, errors.Wrapf(err, "failed to select row %d of %q", i, a.path)
	}
	memspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create memory space for %q", a.path)
	}
	defer func() { _ = memspace.Close() }()

	buf := make([]byte, elems*a.elemSize)
	if err := a.ds.ReadSubset(&buf, memspace, filespace); err != nil {
		return nil, errors.Wrapf(err, "failed to read row %d of %q", i, a.path)
	}
	return buf, nil
}

// h5Container reads rows from an HDF5 file produced by h5py.
type h5Container struct {
	file                *hdf5.File
	images, masks, names *h5Array
}

// OpenH5 opens the HDF5 container at path read-only. The /image and /mask
// arrays must hold one-byte integers; /names may hold any integer or float
// type.
func OpenH5(path string) (Container, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open HDF5 file %q", path)
	}
	c := &h5Container{file: f}
	for _, target := range []struct {
		path string
		arr  **h5Array
	}{{ImagePath, &c.images}, {MaskPath, &c.masks}, {NamesPath, &c.names}} {
		arr, err := openH5Array(f, target.path)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		*target.arr = arr
	}
	for _, arr := range []*h5Array{c.images, c.masks} {
		if arr.class != hdf5.T_INTEGER || arr.elemSize != 1 {
			_ = c.Close()
			return nil, errors.Errorf("%q in %q: unsupported element type (class %d, %d bytes), expected uint8",
				arr.path, path, arr.class, arr.elemSize)
		}
	}
	return c, nil
}

func (c *h5Container) Rows() int { return c.images.len() }

func (c *h5Container) Lens() (int, int, int) {
	return c.images.len(), c.masks.len(), c.names.len()
}

func (c *h5Container) ImageRow(i int) (Array, error) {
	data, err := c.images.readRow(i)
	if err != nil {
		return Array{}, err
	}
	return Array{Data: data, Shape: c.images.rowShape()}, nil
}

func (c *h5Container) MaskRow(i int) (Array, error) {
	data, err := c.masks.readRow(i)
	if err != nil {
		return Array{}, err
	}
	return Array{Data: data, Shape: c.masks.rowShape()}, nil
}

func (c *h5Container) Name(i int) (int64, error) {
	raw, err := c.names.readRow(i)
	if err != nil {
		return 0, err
	}
	// A scalar per row; extra trailing dimensions keep only the first element.
	return decodeName(raw, c.names.class, c.names.elemSize)
}

// decodeName converts one little-endian element into an int64. Names index
// records and are never negative, so integers narrower than 8 bytes are
// zero-extended: h5py often stores them unsigned. Floats are truncated.
func decodeName(raw []byte, class hdf5.TypeClass, size int) (int64, error) {
	if len(raw) < size {
		return 0, errors.Errorf("short name element: %d bytes, want %d", len(raw), size)
	}
	le := binary.LittleEndian
	switch {
	case class == hdf5.T_INTEGER && size == 1:
		return int64(raw[0]), nil
	case class == hdf5.T_INTEGER && size == 2:
		return int64(le.Uint16(raw)), nil
	case class == hdf5.T_INTEGER && size == 4:
		return int64(le.Uint32(raw)), nil
	case class == hdf5.T_INTEGER && size == 8:
		return int64(le.Uint64(raw)), nil
	case class == hdf5.T_FLOAT && size == 4:
		return int64(math.Float32frombits(le.Uint32(raw))), nil
	case class == hdf5.T_FLOAT && size == 8:
		return int64(math.Float64frombits(le.Uint64(raw))), nil
	}
	return 0, errors.Errorf("unsupported %s element type (class %d, %d bytes)", NamesPath, class, size)
}

// Close closes the datasets and the file. Calling it again is a no-op.
func (c *h5Container) Close() error {
	if c.file == nil {
		return nil
	}
	var firstErr error
	for _, arr := range []*h5Array{c.images, c.masks, c.names} {
		if arr == nil {
			continue
		}
		if err := arr.ds.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.file, c.images, c.masks, c.names = nil, nil, nil, nil
	return errors.WithStack(firstErr)
}
