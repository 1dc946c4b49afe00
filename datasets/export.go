package datasets

import (
	"image"
	"image/png"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// CatalogRow is one row of the exported crater catalogue.
type CatalogRow struct {
	Index  int64  `parquet:"index"`
	Name   int64  `parquet:"name"`
	Crater string `parquet:"crater"`
}

// Catalog lists, for every container row, the stored name and the crater
// record it refers to.
func (d *MoonCraterDataset) Catalog() ([]CatalogRow, error) {
	if d.data == nil {
		return nil, errors.WithStack(ErrClosed)
	}
	rows := make([]CatalogRow, d.data.Rows())
	for i := range rows {
		name, err := d.data.Name(i)
		if err != nil {
			return nil, err
		}
		if name < 0 || name >= int64(len(d.craters)) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "crater %d of row %d, there are %d records", name, i, len(d.craters))
		}
		rows[i] = CatalogRow{Index: int64(i), Name: name, Crater: string(d.craters[name].Raw())}
	}
	return rows, nil
}

// ExportParquet writes the catalogue to a Snappy-compressed parquet file.
func (d *MoonCraterDataset) ExportParquet(path string) (int, error) {
	rows, err := d.Catalog()
	if err != nil {
		return 0, err
	}
	if err := ensureParent(path); err != nil {
		return 0, err
	}
	if err := parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return 0, errors.Wrapf(err, "failed to write %q", path)
	}
	return len(rows), nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to encode %q", path)
	}
	return errors.WithStack(f.Close())
}
