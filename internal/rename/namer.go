package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Namer hands out unique destination paths. It tracks names claimed
// during the current run in addition to checking the disk, so
// concurrent workers renaming files with identical timestamps never
// collide even before any rename lands on the filesystem.
type Namer struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewNamer() *Namer {
	return &Namer{claimed: make(map[string]struct{})}
}

// Claim reserves a unique path in dir for base+ext. If the plain name
// is taken, numeric suffixes -1, -2, ... are tried in order. The
// returned path is reserved for the caller until Release is called.
func (n *Namer) Claim(dir, base, ext string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	candidate := filepath.Join(dir, base+ext)
	for i := 1; n.taken(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
	n.claimed[candidate] = struct{}{}
	return candidate
}

// Release frees a claimed path after a failed rename so a later file
// can reuse the name.
func (n *Namer) Release(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.claimed, path)
}

func (n *Namer) taken(path string) bool {
	if _, ok := n.claimed[path]; ok {
		return true
	}
	_, err := os.Lstat(path)
	return err == nil
}
