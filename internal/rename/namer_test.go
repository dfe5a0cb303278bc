package rename

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimProgressiveSuffixes(t *testing.T) {
	dir := t.TempDir()
	n := NewNamer()

	first := n.Claim(dir, "shot", ".jpg")
	second := n.Claim(dir, "shot", ".jpg")
	third := n.Claim(dir, "shot", ".jpg")

	assert.Equal(t, filepath.Join(dir, "shot.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "shot-1.jpg"), second)
	assert.Equal(t, filepath.Join(dir, "shot-2.jpg"), third)
}

func TestClaimSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot-1.jpg"), []byte("x"), 0o644))

	n := NewNamer()
	assert.Equal(t, filepath.Join(dir, "shot-2.jpg"), n.Claim(dir, "shot", ".jpg"))
}

func TestReleaseFreesName(t *testing.T) {
	dir := t.TempDir()
	n := NewNamer()

	p := n.Claim(dir, "shot", ".jpg")
	n.Release(p)
	assert.Equal(t, p, n.Claim(dir, "shot", ".jpg"))
}

func TestClaimConcurrentUnique(t *testing.T) {
	dir := t.TempDir()
	n := NewNamer()

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = n.Claim(dir, "shot", ".jpg")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range results {
		assert.False(t, seen[p], "duplicate claim %s", p)
		seen[p] = true
	}
}
