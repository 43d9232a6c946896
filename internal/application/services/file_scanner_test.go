package services_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
)

func TestScanTree(t *testing.T) {
	root := t.TempDir()

	mustWrite := func(rel, content string) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	mustWrite("2021/cardiology/echo_results.pdf", "pdf bytes")
	mustWrite("2021/cardiology/stress_test.pdf", "more pdf bytes")
	mustWrite("2019/mcas/tryptase_lab.pdf", "lab")

	files, err := services.ScanTree(root)
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Sorted by path, directories excluded
	assert.Contains(t, files[0].Path, "2019")
	for _, file := range files {
		assert.Greater(t, file.SizeBytes, int64(0))
		assert.False(t, file.ModifiedAt.IsZero())
	}
}

func TestScanTree_MissingRoot(t *testing.T) {
	_, err := services.ScanTree(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestScanTree_EmptyTree(t *testing.T) {
	files, err := services.ScanTree(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}
