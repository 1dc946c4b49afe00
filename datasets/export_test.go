package datasets

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoonCraterDataset_ExportParquet(t *testing.T) {
	ds := newMemoryDataset(t, Options{})
	path := filepath.Join(t.TempDir(), "out", "catalog.parquet")

	n, err := ds.ExportParquet(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := parquet.ReadFile[CatalogRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, int64(i), row.Index)
		assert.Equal(t, testNames[i], row.Name)
		assert.JSONEq(t, string(ds.Craters()[testNames[i]].Raw()), row.Crater)
	}
}

func TestMoonCraterDataset_CatalogBadName(t *testing.T) {
	images, masks := testArrays()
	ds := New(NewMemoryContainer(images, masks, []int64{0, 1, 9}), testCraters(t), Options{})
	defer ds.Close()
	_, err := ds.Catalog()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestWritePNG(t *testing.T) {
	ds := newMemoryDataset(t, Options{})
	img, _, _, err := ds.Example(1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "a", "b", "image.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	assert.Equal(t, img.(*image.Gray).Pix, decoded.(*image.Gray).Pix)
}
