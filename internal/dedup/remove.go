package dedup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrashDirName is the default folder, created under the scan root,
// that holds removed duplicates when trashing instead of deleting.
const TrashDirName = "_duplicates_trash"

// Remover disposes of verified duplicate copies. With Trash set the
// files are moved into TrashDir instead of being deleted outright.
type Remover struct {
	Trash    bool
	TrashDir string
}

// Remove disposes of a single duplicate copy and returns the path it
// ended up at ("" when deleted).
func (r Remover) Remove(path string) (string, error) {
	if !r.Trash {
		return "", os.Remove(path)
	}
	if err := os.MkdirAll(r.TrashDir, 0o755); err != nil {
		return "", err
	}
	dest := r.trashDest(filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// trashDest picks a non-clobbering destination inside the trash
// folder, appending _1, _2, ... to the stem on collision.
func (r Remover) trashDest(name string) string {
	dest := filepath.Join(r.TrashDir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); err != nil {
			return dest
		}
		dest = filepath.Join(r.TrashDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}
