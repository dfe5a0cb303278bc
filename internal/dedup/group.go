// Package dedup finds and removes numbered duplicate copies such as
// "IMG_0042 1.jpg" next to "IMG_0042.jpg".
package dedup

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// copyPattern matches names of the form "<stem> <n>.<ext>" where n is
// a positive decimal copy index.
var copyPattern = regexp.MustCompile(`^(.+) (\d+)(\.[^.]+)$`)

// Copy is one numbered duplicate candidate.
type Copy struct {
	Path  string
	Index int
}

// Group is a canonical file plus the numbered copies that shadow it.
// When no unnumbered original exists the lowest-indexed copy is
// promoted to canonical and PseudoCanonical is set.
type Group struct {
	Canonical       string
	PseudoCanonical bool
	Copies          []Copy
}

type groupKey struct {
	dir  string
	stem string
	ext  string
}

// FindGroups partitions paths into duplicate groups. Files only group
// with siblings in the same directory sharing stem and extension.
// Groups are returned sorted by canonical path, copies by ascending
// index.
func FindGroups(paths []string) []Group {
	byKey := make(map[groupKey][]Copy)
	plain := make(map[groupKey]string)

	for _, p := range paths {
		dir := filepath.Dir(p)
		name := filepath.Base(p)
		if m := copyPattern.FindStringSubmatch(name); m != nil {
			// A zero or unparseable index is not a copy marker; such a
			// file falls through as a plain name.
			if idx, err := strconv.Atoi(m[2]); err == nil && idx >= 1 {
				key := groupKey{dir, m[1], strings.ToLower(m[3])}
				byKey[key] = append(byKey[key], Copy{Path: p, Index: idx})
				continue
			}
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		plain[groupKey{dir, stem, strings.ToLower(ext)}] = p
	}

	var groups []Group
	for key, copies := range byKey {
		sort.Slice(copies, func(i, j int) bool { return copies[i].Index < copies[j].Index })
		g := Group{Copies: copies}
		if orig, ok := plain[key]; ok {
			g.Canonical = orig
		} else {
			g.Canonical = copies[0].Path
			g.PseudoCanonical = true
			g.Copies = copies[1:]
		}
		if len(g.Copies) == 0 {
			continue
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Canonical < groups[j].Canonical })
	return groups
}
