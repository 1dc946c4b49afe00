package datasets

import (
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// Auto-discovery helpers

// DefaultRoots are the directories FindRoot tries when given none.
var DefaultRoots = []string{
	"data/craters",
	"../data/craters",
	"~/.cache/craterdata",
}

// FindRoot returns the first of candidates holding a complete, verified copy
// of the dataset.
func FindRoot(candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultRoots
	}
	for _, dir := range candidates {
		dir = fsutil.MustReplaceTildeInDir(dir)
		if !isDir(dir) {
			continue
		}
		if CheckIntegrity(dir, MoonCraterFiles) {
			return dir, nil
		}
	}
	return "", errors.Wrapf(ErrNotFoundOrCorrupted, "no verified dataset in %v", candidates)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ensureParent creates the parent directory of path.
func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return errors.WithStack(os.MkdirAll(dir, 0o755))
}
