package datasets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	base := t.TempDir()
	good := filepath.Join(base, "good")
	require.NoError(t, ensureParent(filepath.Join(good, DataFileName)))
	writeDatasetFiles(t, good)

	root, err := FindRoot(filepath.Join(base, "missing"), base, good)
	require.NoError(t, err)
	assert.Equal(t, good, root)

	_, err = FindRoot(filepath.Join(base, "missing"), base)
	assert.ErrorIs(t, err, ErrNotFoundOrCorrupted)
}
