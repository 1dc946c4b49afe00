package datasets

import (
	"crypto/md5"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/examples/downloader"
	digest "github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// MD5 is the checksum algorithm used by the published crater dataset. It is not
// registered with go-digest, so hashing it is handled here.
const MD5 digest.Algorithm = "md5"

const (
	// DataFileName is the HDF5 container holding /image, /mask and /names.
	DataFileName = "moon_data.h5"
	// RecordsFileName is the JSON array of crater records.
	RecordsFileName = "data_rec.json"
)

// DefaultBaseURL is where the dataset files are published.
var DefaultBaseURL = "https://zenodo.org/record/5563001/files/"

// RemoteFile is a file fetched by name from a base URL and checked against a
// fixed checksum.
type RemoteFile struct {
	Name     string
	Checksum digest.Digest
}

// MoonCraterFiles lists the files the dataset needs under its root directory.
var MoonCraterFiles = []RemoteFile{
	{Name: DataFileName, Checksum: digest.NewDigestFromEncoded(MD5, "9aa79078ec762aaabe524107e55f5328")},
	{Name: RecordsFileName, Checksum: digest.NewDigestFromEncoded(MD5, "066c1c44c046ae1e9722987f88edc062")},
}

// Fetcher downloads url into filePath.
type Fetcher interface {
	Fetch(url, filePath string) error
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(url, filePath string) error

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(url, filePath string) error { return f(url, filePath) }

// DefaultFetcher uses gomlx's downloader. Checksums are verified by the caller
// since the downloader only knows about sha256.
var DefaultFetcher Fetcher = FetcherFunc(func(url, filePath string) error {
	return downloader.DownloadIfMissing(url, filePath, "")
})

func newHash(alg digest.Algorithm) (hash.Hash, error) {
	if alg == MD5 {
		return md5.New(), nil
	}
	if !alg.Available() {
		return nil, errors.Wrapf(digest.ErrDigestUnsupported, "checksum algorithm %q", alg)
	}
	return alg.Hash(), nil
}

// fileChecksum hashes the file at path with alg.
func fileChecksum(path string, alg digest.Algorithm) (digest.Digest, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to read %q", path)
	}
	return digest.NewDigestFromEncoded(alg, hex.EncodeToString(h.Sum(nil))), nil
}

// Status describes one required file on disk.
type Status struct {
	File   RemoteFile
	Path   string
	Exists bool
	Size   int64
	Actual digest.Digest
	Valid  bool
}

// FileStatus inspects file under root without modifying anything.
func FileStatus(root string, file RemoteFile) Status {
	st := Status{File: file, Path: filepath.Join(root, file.Name)}
	info, err := os.Stat(st.Path)
	if err != nil || info.IsDir() {
		return st
	}
	st.Exists = true
	st.Size = info.Size()
	actual, err := fileChecksum(st.Path, file.Checksum.Algorithm())
	if err != nil {
		klog.V(1).Infof("checksum of %q failed: %v", st.Path, err)
		return st
	}
	st.Actual = actual
	st.Valid = actual == file.Checksum
	return st
}

// CheckIntegrity reports whether every file exists under root with the
// expected checksum.
func CheckIntegrity(root string, files []RemoteFile) bool {
	for _, file := range files {
		if !FileStatus(root, file).Valid {
			return false
		}
	}
	return true
}

// Download fetches every file that is missing or corrupted under root from
// baseURL and verifies the result. When all files are already valid nothing is
// fetched.
func Download(root, baseURL string, files []RemoteFile, fetcher Fetcher) error {
	if CheckIntegrity(root, files) {
		klog.Infof("Files already downloaded and verified")
		return nil
	}
	if fetcher == nil {
		fetcher = DefaultFetcher
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create dataset directory %q", root)
	}
	for _, file := range files {
		st := FileStatus(root, file)
		if st.Valid {
			continue
		}
		if st.Exists {
			klog.Warningf("%q has checksum %s, expected %s: downloading again", st.Path, st.Actual, file.Checksum)
			if err := os.Remove(st.Path); err != nil {
				return errors.Wrapf(err, "failed to remove stale %q", st.Path)
			}
		}
		fileURL, err := url.JoinPath(baseURL, file.Name)
		if err != nil {
			return errors.Wrapf(err, "invalid base URL %q", baseURL)
		}
		klog.Infof("Downloading %s to %s", fileURL, st.Path)
		if err := fetcher.Fetch(fileURL, st.Path); err != nil {
			_ = os.Remove(st.Path)
			return errors.Wrapf(err, "failed to download %q from %q", file.Name, fileURL)
		}
		st = FileStatus(root, file)
		if !st.Valid {
			_ = os.Remove(st.Path)
			return errors.Errorf("downloaded %q (%s) has checksum %s, expected %s",
				file.Name, humanize.Bytes(uint64(st.Size)), st.Actual, file.Checksum)
		}
		klog.Infof("Downloaded %s (%s)", file.Name, humanize.Bytes(uint64(st.Size)))
	}
	return nil
}
