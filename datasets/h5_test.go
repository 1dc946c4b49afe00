package datasets

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

func TestOpenH5(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	images, masks := testArrays()
	writeH5(t, path, images, masks, testNames)

	c, err := OpenH5(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 3, c.Rows())
	ni, nm, nn := c.Lens()
	assert.Equal(t, []int{3, 3, 3}, []int{ni, nm, nn})

	for i := range images {
		img, err := c.ImageRow(i)
		require.NoError(t, err)
		assert.Equal(t, images[i], img)

		mask, err := c.MaskRow(i)
		require.NoError(t, err)
		assert.Equal(t, masks[i], mask)

		name, err := c.Name(i)
		require.NoError(t, err)
		assert.Equal(t, testNames[i], name)
	}

	_, err = c.ImageRow(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = c.Name(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestOpenH5_UnsignedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	images, masks := testArrays()
	names := []uint16{40000, 65535, 1}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	writeH5Rows(t, f, ImagePath, images)
	writeH5Rows(t, f, MaskPath, masks)
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(names))}, nil)
	require.NoError(t, err)
	ds, err := f.CreateDataset(NamesPath, hdf5.T_NATIVE_UINT16, space)
	require.NoError(t, err)
	require.NoError(t, ds.Write(&names))
	require.NoError(t, ds.Close())
	require.NoError(t, space.Close())
	require.NoError(t, f.Close())

	c, err := OpenH5(path)
	require.NoError(t, err)
	defer c.Close()
	for i, want := range names {
		name, err := c.Name(i)
		require.NoError(t, err)
		assert.Equal(t, int64(want), name)
	}
}

func TestOpenH5_MissingArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	images, _ := testArrays()
	writeH5Rows(t, f, ImagePath, images)
	require.NoError(t, f.Close())

	_, err = OpenH5(path)
	assert.Error(t, err)
}

func TestOpenH5_NotHDF5(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFileName)
	require.NoError(t, os.WriteFile(path, []byte("not an hdf5 file"), 0o644))
	_, err := OpenH5(path)
	assert.Error(t, err)
}

func TestDecodeName(t *testing.T) {
	le := binary.LittleEndian
	b8 := make([]byte, 8)

	le.PutUint64(b8, 123456789)
	v, err := decodeName(b8, hdf5.T_INTEGER, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), v)

	le.PutUint32(b8, 77)
	v, err = decodeName(b8[:4], hdf5.T_INTEGER, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(77), v)

	le.PutUint16(b8, 300)
	v, err = decodeName(b8[:2], hdf5.T_INTEGER, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)

	v, err = decodeName([]byte{9}, hdf5.T_INTEGER, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)

	// Narrow integers are unsigned.
	v, err = decodeName([]byte{200}, hdf5.T_INTEGER, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), v)

	le.PutUint16(b8, 40000)
	v, err = decodeName(b8[:2], hdf5.T_INTEGER, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), v)

	le.PutUint32(b8, 3_000_000_000)
	v, err = decodeName(b8[:4], hdf5.T_INTEGER, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000_000), v)

	le.PutUint64(b8, math.Float64bits(42.0))
	v, err = decodeName(b8, hdf5.T_FLOAT, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	le.PutUint32(b8, math.Float32bits(7.9))
	v, err = decodeName(b8[:4], hdf5.T_FLOAT, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = decodeName(b8[:2], hdf5.T_FLOAT, 2)
	assert.Error(t, err)
	_, err = decodeName(b8[:2], hdf5.T_INTEGER, 4)
	assert.Error(t, err)
}
