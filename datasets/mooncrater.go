package datasets

import (
	"image"
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrNotFoundOrCorrupted is returned when the dataset files are missing
	// or fail their checksum.
	ErrNotFoundOrCorrupted = errors.New("dataset not found or corrupted")
	// ErrIndexOutOfRange is returned for indices outside an array.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInconsistent is returned by Validate when the container and the
	// records disagree.
	ErrInconsistent = errors.New("dataset is inconsistent")
	// ErrClosed is returned when reading from a closed dataset.
	ErrClosed = errors.New("dataset is closed")
)

// Transform replaces an image or mask right after it is decoded.
type Transform func(image.Image) image.Image

// Options configure NewMoonCraterDataset. The zero value reads already
// downloaded files without transforms.
type Options struct {
	// Transform is applied to every image, TargetTransform to every mask.
	Transform       Transform
	TargetTransform Transform

	// Download fetches missing or corrupted files before opening them.
	Download bool

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// Fetcher overrides DefaultFetcher.
	Fetcher Fetcher

	// BatchSize used by Yield. Defaults to 32.
	BatchSize int
}

// MoonCraterDataset serves lunar images, crater masks and crater records from
// moon_data.h5 and data_rec.json.
//
// It is not safe for concurrent use.
type MoonCraterDataset struct {
	// Root is the directory holding the dataset files. Empty when the dataset
	// was built with New.
	Root string

	// BatchSize for Yield.
	BatchSize int

	transform       Transform
	targetTransform Transform

	data    Container
	craters []Crater

	// order is the epoch order used by Yield; next is the position in it.
	order []int
	next  int
}

// NewMoonCraterDataset opens the dataset stored under root, creating root if
// needed. With opts.Download set, missing or corrupted files are fetched
// first.
func NewMoonCraterDataset(root string, opts Options) (*MoonCraterDataset, error) {
	root = fsutil.MustReplaceTildeInDir(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create dataset directory %q", root)
	}

	if opts.Download {
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		if err := Download(root, baseURL, MoonCraterFiles, opts.Fetcher); err != nil {
			return nil, err
		}
	}

	if !CheckIntegrity(root, MoonCraterFiles) {
		return nil, errors.Wrapf(ErrNotFoundOrCorrupted, "in %q, you can use Options.Download to download it", root)
	}

	data, err := OpenH5(filepath.Join(root, DataFileName))
	if err != nil {
		return nil, err
	}
	craters, err := LoadCraters(filepath.Join(root, RecordsFileName))
	if err != nil {
		_ = data.Close()
		return nil, err
	}
	klog.V(1).Infof("Opened crater dataset in %q: %d records, %d rows", root, len(craters), data.Rows())

	ds := New(data, craters, opts)
	ds.Root = root
	return ds, nil
}

// New returns a dataset over an open container and its crater records. The
// dataset takes ownership of data and closes it on Close.
func New(data Container, craters []Crater, opts Options) *MoonCraterDataset {
	ds := &MoonCraterDataset{
		BatchSize:       opts.BatchSize,
		transform:       opts.Transform,
		targetTransform: opts.TargetTransform,
		data:            data,
		craters:         craters,
	}
	if ds.BatchSize <= 0 {
		ds.BatchSize = 32
	}
	ds.Reset()
	return ds
}

// Len returns the number of crater records.
func (d *MoonCraterDataset) Len() int {
	return len(d.craters)
}

// Rows returns the number of image rows in the container.
func (d *MoonCraterDataset) Rows() int {
	if d.data == nil {
		return 0
	}
	return d.data.Rows()
}

// Craters returns all crater records in file order. The slice must not be
// modified.
func (d *MoonCraterDataset) Craters() []Crater {
	return d.craters
}

// NameAt returns the crater record index stored for row idx.
func (d *MoonCraterDataset) NameAt(idx int) (int64, error) {
	if d.data == nil {
		return 0, errors.WithStack(ErrClosed)
	}
	return d.data.Name(idx)
}

// Example returns the image, the mask and the crater record of row idx, with
// the configured transforms applied.
func (d *MoonCraterDataset) Example(idx int) (img, mask image.Image, crater Crater, err error) {
	if d.data == nil {
		err = errors.WithStack(ErrClosed)
		return
	}
	imgArray, err := d.data.ImageRow(idx)
	if err != nil {
		return
	}
	maskArray, err := d.data.MaskRow(idx)
	if err != nil {
		return
	}
	if img, err = ArrayToImage(imgArray); err != nil {
		err = errors.Wrapf(err, "image %d", idx)
		return
	}
	if mask, err = ArrayToImage(maskArray); err != nil {
		err = errors.Wrapf(err, "mask %d", idx)
		return
	}
	if d.transform != nil {
		img = d.transform(img)
	}
	if d.targetTransform != nil {
		mask = d.targetTransform(mask)
	}

	name, err := d.data.Name(idx)
	if err != nil {
		return
	}
	if name < 0 || name >= int64(len(d.craters)) {
		err = errors.Wrapf(ErrIndexOutOfRange, "crater %d of row %d, there are %d records", name, idx, len(d.craters))
		return
	}
	crater = d.craters[name]
	return
}

// Validate checks that the three container arrays have the same number of
// rows, that there are at least Len() rows and that every stored name indexes
// a crater record.
func (d *MoonCraterDataset) Validate() error {
	if d.data == nil {
		return errors.WithStack(ErrClosed)
	}
	images, masks, names := d.data.Lens()
	if images != masks || images != names {
		return errors.Wrapf(ErrInconsistent, "row counts differ: %s=%d %s=%d %s=%d",
			ImagePath, images, MaskPath, masks, NamesPath, names)
	}
	for i := 0; i < names; i++ {
		name, err := d.data.Name(i)
		if err != nil {
			return err
		}
		if name < 0 || name >= int64(len(d.craters)) {
			return errors.Wrapf(ErrInconsistent, "%s[%d]=%d but there are %d crater records",
				NamesPath, i, name, len(d.craters))
		}
	}
	switch {
	case names < len(d.craters):
		// Epochs walk Len() rows.
		return errors.Wrapf(ErrInconsistent, "container has %d rows but there are %d crater records",
			names, len(d.craters))
	case names > len(d.craters):
		klog.Warningf("container has %d rows but there are %d crater records", names, len(d.craters))
	}
	return nil
}

// Close releases the container. It is safe to call more than once.
func (d *MoonCraterDataset) Close() error {
	if d == nil || d.data == nil {
		return nil
	}
	err := d.data.Close()
	d.data = nil
	return err
}
