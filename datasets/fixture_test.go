package datasets

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	digest "github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

const testCratersJSON = `[
  {"id": 0, "lat": -12.5, "lon": 40.25, "diameter": 1.5},
  {"id": 1, "lat": 3.0, "lon": -7.75, "diameter": 2.5},
  {"id": 2, "lat": 55.1, "lon": 120.0, "diameter": 4}
]`

// testNames maps each row to its crater record.
var testNames = []int64{2, 0, 1}

// grayArray returns an h x w array whose pixel (y, x) is base+y*w+x.
func grayArray(h, w int, base uint8) Array {
	data := make([]uint8, h*w)
	for i := range data {
		data[i] = base + uint8(i)
	}
	return Array{Data: data, Shape: []int{h, w}}
}

// maskArray returns an h x w mask with only pixel (row, row) set.
func maskArray(h, w, row int) Array {
	data := make([]uint8, h*w)
	data[row*w+row%w] = 1
	return Array{Data: data, Shape: []int{h, w}}
}

func testArrays() (images, masks []Array) {
	for i := range testNames {
		images = append(images, grayArray(4, 3, uint8(10*i)))
		masks = append(masks, maskArray(4, 3, i))
	}
	return images, masks
}

func testCraters(t *testing.T) []Crater {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "craters*.json")
	require.NoError(t, err)
	_, err = f.WriteString(testCratersJSON)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	craters, err := LoadCraters(f.Name())
	require.NoError(t, err)
	return craters
}

// newMemoryDataset builds a dataset over in-memory rows.
func newMemoryDataset(t *testing.T, opts Options) *MoonCraterDataset {
	t.Helper()
	images, masks := testArrays()
	ds := New(NewMemoryContainer(images, masks, testNames), testCraters(t), opts)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func writeH5Rows(t *testing.T, f *hdf5.File, path string, rows []Array) {
	t.Helper()
	dims := []uint{uint(len(rows))}
	for _, d := range rows[0].Shape {
		dims = append(dims, uint(d))
	}
	var flat []uint8
	for _, row := range rows {
		flat = append(flat, row.Data...)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	require.NoError(t, err)
	defer space.Close()
	ds, err := f.CreateDataset(path, hdf5.T_NATIVE_UINT8, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&flat))
}

// writeH5 writes an HDF5 container the way h5py lays out moon_data.h5.
func writeH5(t *testing.T, path string, images, masks []Array, names []int64) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	writeH5Rows(t, f, ImagePath, images)
	writeH5Rows(t, f, MaskPath, masks)

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(names))}, nil)
	require.NoError(t, err)
	defer space.Close()
	ds, err := f.CreateDataset(NamesPath, hdf5.T_NATIVE_INT64, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&names))
}

func md5Digest(data []byte) digest.Digest {
	sum := md5.Sum(data)
	return digest.NewDigestFromEncoded(MD5, hex.EncodeToString(sum[:]))
}

// writeDatasetFiles writes moon_data.h5 and data_rec.json under root and
// points MoonCraterFiles at their checksums for the rest of the test.
func writeDatasetFiles(t *testing.T, root string) {
	t.Helper()
	images, masks := testArrays()
	writeH5(t, filepath.Join(root, DataFileName), images, masks, testNames)
	require.NoError(t, os.WriteFile(filepath.Join(root, RecordsFileName), []byte(testCratersJSON), 0o644))

	h5Data, err := os.ReadFile(filepath.Join(root, DataFileName))
	require.NoError(t, err)
	useFiles(t, []RemoteFile{
		{Name: DataFileName, Checksum: md5Digest(h5Data)},
		{Name: RecordsFileName, Checksum: md5Digest([]byte(testCratersJSON))},
	})
}

// useFiles replaces MoonCraterFiles until the test ends.
func useFiles(t *testing.T, files []RemoteFile) {
	t.Helper()
	saved := MoonCraterFiles
	MoonCraterFiles = files
	t.Cleanup(func() { MoonCraterFiles = saved })
}

// countingFetcher records every fetch and fails it.
type countingFetcher struct {
	calls []string
}

func (f *countingFetcher) Fetch(url, filePath string) error {
	f.calls = append(f.calls, url)
	return os.ErrPermission
}
