package dedup

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash"
)

// chunkSize is how much of each end of a file the quick hash reads.
const chunkSize = 64 * 1024

// VerifyMode selects how hard copies must prove identity before removal.
type VerifyMode int

const (
	// SizeOnly compares file sizes.
	SizeOnly VerifyMode = iota
	// QuickHash compares sizes plus a hash of both ends of the file.
	QuickHash
	// FullHash compares sizes plus a hash of the entire contents.
	FullHash
)

// Rejection records a copy excluded from removal and why.
type Rejection struct {
	Path   string
	Reason string
}

// Verifier filters duplicate groups down to copies proven identical to
// their canonical file.
type Verifier struct {
	Mode VerifyMode
}

// Verify checks every copy in g against the canonical file. Copies
// that differ are returned as rejections; the returned group keeps
// only the confirmed duplicates and ok is false when none survive.
func (v Verifier) Verify(g Group) (verified Group, rejected []Rejection, ok bool, err error) {
	canonInfo, err := os.Stat(g.Canonical)
	if err != nil {
		return g, nil, false, err
	}

	var canonHash uint64
	hashed := false

	verified = Group{Canonical: g.Canonical, PseudoCanonical: g.PseudoCanonical}
	for _, c := range g.Copies {
		info, err := os.Stat(c.Path)
		if err != nil {
			return g, nil, false, err
		}
		if info.Size() != canonInfo.Size() {
			rejected = append(rejected, Rejection{Path: c.Path, Reason: fmt.Sprintf("size differs (%d vs %d bytes)", info.Size(), canonInfo.Size())})
			continue
		}
		if v.Mode == SizeOnly {
			verified.Copies = append(verified.Copies, c)
			continue
		}
		if !hashed {
			canonHash, err = v.hash(g.Canonical, canonInfo.Size())
			if err != nil {
				return g, nil, false, err
			}
			hashed = true
		}
		h, err := v.hash(c.Path, info.Size())
		if err != nil {
			return g, nil, false, err
		}
		if h != canonHash {
			rejected = append(rejected, Rejection{Path: c.Path, Reason: "content hash differs"})
			continue
		}
		verified.Copies = append(verified.Copies, c)
	}
	return verified, rejected, len(verified.Copies) > 0, nil
}

func (v Verifier) hash(path string, size int64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if v.Mode == FullHash {
		if _, err := io.Copy(h, f); err != nil {
			return 0, err
		}
		return h.Sum64(), nil
	}

	// Quick hash: the head, the size, and the tail. Collisions would
	// need identical ends and identical length.
	if _, err := io.CopyN(h, f, chunkSize); err != nil && err != io.EOF {
		return 0, err
	}
	h.Write([]byte(strconv.FormatInt(size, 10)))
	if size > chunkSize {
		if _, err := f.Seek(-chunkSize, io.SeekEnd); err != nil {
			return 0, err
		}
		if _, err := io.Copy(h, f); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}
