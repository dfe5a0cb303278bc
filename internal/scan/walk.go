package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipFolders contains directory names never worth descending into.
// These are system folders or camera-internal directories that don't
// contain user photos.
var skipFolders = map[string]bool{
	".stfolder":          true, // Syncthing
	".fseventsd":         true, // macOS filesystem events
	".Trashes":           true, // macOS trash
	".Spotlight-V100":    true, // macOS Spotlight index
	"PRIVATE":            true, // Camera system folder
	"AVF_INFO":           true, // Sony AVCHD info
	"THMBNL":             true, // Sony thumbnails
	"_duplicates_trash":  true, // our own dedup trash
	"@eaDir":             true, // Synology thumbnails
}

// Find returns the supported image files under root, which may be a
// single file or a directory. Hidden files and folders are skipped, as
// are the skipDirs paths (the configured dedup trash lands here so a
// later run never rescans it). Results are sorted so repeated runs
// visit files in the same order.
func Find(root string, recursive bool, reg *Registry, skipDirs ...string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	skipPaths := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		if d != "" {
			skipPaths[filepath.Clean(d)] = true
		}
	}

	if !info.IsDir() {
		if reg.Supported(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry, keep walking
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipFolders[name] || skipPaths[filepath.Clean(path)] {
				return filepath.SkipDir
			}
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if reg.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
