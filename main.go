// photofix - A tool to fix photo orientation, names and duplicates
//
// This tool scans a file or directory for images and, depending on the
// selected mode, bakes EXIF orientation into pixels, forces a landscape
// or portrait bounding box, renames files from their capture metadata,
// or removes numbered duplicate copies.
//
// Modes:
//   - exif       Bake the EXIF orientation tag into pixels, reset tag to 1
//   - landscape  Rotate until width >= height
//   - portrait   Rotate until height > width
//   - rename     Rename to <timestamp>[_<gps>]_<original> from metadata
//   - dedup      Remove "name N.ext" copies of "name.ext"
//
// Usage:
//
//	photofix photos/               # Preview EXIF normalization (dry-run, default)
//	photofix -x photos/            # Execute, writing to photos_oriented/
//	photofix -x -inplace photos/   # Execute, overwriting originals
//	photofix -mode rename -x -r photos/
//	photofix -mode dedup -x -trash photos/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"photofix/internal/batch"
	"photofix/internal/dedup"
	"photofix/internal/meta"
	"photofix/internal/orient"
	"photofix/internal/rename"
	"photofix/internal/scan"
)

// =============================================================================
// Configuration
// =============================================================================

// config collects the parsed command line.
type config struct {
	target            string // file or directory to process
	mode              string
	execute           bool
	inplace           bool
	outDir            string
	preserveStructure bool
	recursive         bool
	copyMode          bool // rename: copy instead of move
	workers           int
	verbose           bool

	verifyHash bool
	fullHash   bool
	trash      bool
	trashDir   string
}

// orientPolicies maps mode names to orientation policies. Modes absent
// from this map (rename, dedup) have their own drivers.
var orientPolicies = map[string]orient.Policy{
	"exif":      orient.ExifNormalize,
	"landscape": orient.ForceLandscape,
	"portrait":  orient.ForcePortrait,
}

// =============================================================================
// Main Entry Point
// =============================================================================

func main() {
	var cfg config

	flag.StringVar(&cfg.mode, "mode", "exif", "Operation: exif, landscape, portrait, rename or dedup")
	execute := flag.Bool("execute", false, "Actually modify files (default is dry-run)")
	executeShort := flag.Bool("x", false, "Actually modify files (short for --execute)")
	flag.BoolVar(&cfg.inplace, "inplace", false, "Overwrite originals instead of writing to an output directory")
	flag.StringVar(&cfg.outDir, "out", "", "Output directory (default: <target>_oriented)")
	flag.BoolVar(&cfg.preserveStructure, "preserve-structure", false, "Mirror the source directory layout under the output directory")
	recursive := flag.Bool("recursive", false, "Descend into subdirectories")
	recursiveShort := flag.Bool("r", false, "Descend into subdirectories (short for --recursive)")
	flag.BoolVar(&cfg.copyMode, "copy", false, "rename: copy to the new name, leaving the original in place")
	flag.IntVar(&cfg.workers, "workers", 1, "Number of parallel workers")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose (debug) logging")
	flag.BoolVar(&cfg.verifyHash, "verify-hash", false, "dedup: confirm duplicates by hashing both ends of each file")
	flag.BoolVar(&cfg.fullHash, "full-hash", false, "dedup: confirm duplicates by hashing entire files")
	flag.BoolVar(&cfg.trash, "trash", false, "dedup: move duplicates to a trash folder instead of deleting")
	flag.StringVar(&cfg.trashDir, "trash-dir", "", "dedup: trash folder (default: <target>/"+dedup.TrashDirName+")")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "photofix - Fix photo orientation, names and duplicates\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options] <file-or-directory>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s photos/                    # Preview EXIF normalization (dry-run)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -x photos/                 # Normalize into photos_oriented/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -x -inplace photos/        # Normalize, overwriting originals\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode landscape -x img.jpg # Force a single file to landscape\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode rename -x -r photos/ # Rename from capture metadata\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode dedup -x -trash photos/\n", os.Args[0])
	}

	flag.Parse()

	cfg.execute = *execute || *executeShort
	cfg.recursive = *recursive || *recursiveShort

	setupLogging(cfg.verbose)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.target = filepath.Clean(flag.Arg(0))

	if err := validate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	stats, err := run(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(stats.Summary())
	if stats.Errors > 0 {
		os.Exit(1)
	}
}

// setupLogging routes zerolog through a console writer on stderr so
// structured diagnostics never interleave with the report on stdout.
func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// validate checks flag combinations and fills in derived defaults.
func validate(cfg *config) error {
	info, err := os.Stat(cfg.target)
	if err != nil {
		return fmt.Errorf("target %s: %w", cfg.target, err)
	}

	_, isOrient := orientPolicies[cfg.mode]
	if !isOrient && cfg.mode != "rename" && cfg.mode != "dedup" {
		return fmt.Errorf("unknown mode %q", cfg.mode)
	}

	if isOrient {
		if cfg.inplace && cfg.outDir != "" {
			return fmt.Errorf("-inplace and -out are mutually exclusive")
		}
		if !cfg.inplace && cfg.outDir == "" {
			root := cfg.target
			if !info.IsDir() {
				root = filepath.Dir(cfg.target)
			}
			cfg.outDir = strings.TrimSuffix(root, string(os.PathSeparator)) + "_oriented"
		}
	}

	if cfg.mode == "dedup" {
		if !info.IsDir() {
			return fmt.Errorf("dedup mode requires a directory target")
		}
		if cfg.trashDir == "" {
			cfg.trashDir = filepath.Join(cfg.target, dedup.TrashDirName)
		}
	}

	if cfg.workers < 1 {
		cfg.workers = 1
	}
	if !cfg.execute {
		// Sequential dry runs keep the preview in scan order.
		cfg.workers = 1
	}
	return nil
}

// run dispatches to the mode driver and returns the accumulated stats.
func run(cfg *config) (*batch.Stats, error) {
	reg := scan.NewRegistry()
	files, err := scan.Find(cfg.target, cfg.recursive, reg, cfg.trashDir)
	if err != nil {
		return nil, err
	}

	printBanner(cfg)

	stats := &batch.Stats{}
	if len(files) == 0 {
		fmt.Println("No image files found")
		return stats, nil
	}
	fmt.Printf("Found %d image files\n\n", len(files))

	switch cfg.mode {
	case "rename":
		err = runRename(cfg, reg, files, stats)
	case "dedup":
		err = runDedup(cfg, files, stats)
	default:
		err = runOrient(cfg, reg, files, stats)
	}
	return stats, err
}

func printBanner(cfg *config) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("photofix (%s mode)\n", cfg.mode)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Target: %s\n", cfg.target)
	if _, ok := orientPolicies[cfg.mode]; ok {
		if cfg.inplace {
			fmt.Println("Output: in place")
		} else {
			fmt.Printf("Output: %s\n", cfg.outDir)
		}
	}
	if cfg.mode == "dedup" && cfg.trash {
		fmt.Printf("Trash:  %s\n", cfg.trashDir)
	}
	fmt.Println()
	if !cfg.execute {
		fmt.Println("[DRY RUN MODE - use --execute or -x to actually modify files]")
		fmt.Println()
	}
}

// scanRoot is the directory that relative output paths are computed
// against.
func scanRoot(cfg *config) string {
	if info, err := os.Stat(cfg.target); err == nil && info.IsDir() {
		return cfg.target
	}
	return filepath.Dir(cfg.target)
}

// =============================================================================
// Orientation Driver
// =============================================================================

// runOrient applies the selected orientation policy to every decodable
// file, writing results in place or into the output directory.
func runOrient(cfg *config, reg *scan.Registry, files []string, stats *batch.Stats) error {
	engine := orient.NewEngine(orientPolicies[cfg.mode])
	root := scanRoot(cfg)
	namer := rename.NewNamer()

	pool := batch.Orchestrator{Workers: cfg.workers}
	pool.Run(files, stats, func(path string) (batch.Outcome, error) {
		if !reg.Decodable(path) {
			log.Debug().Str("file", path).Msg("format not decodable, skipping")
			return batch.Skipped, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return batch.Failed, err
		}
		if reg.IsPlaceholder(path, info.Size()) {
			log.Warn().Str("file", path).Int64("size", info.Size()).Msg("looks like a cloud placeholder, skipping")
			return batch.Skipped, nil
		}

		d, w, h, err := engine.Inspect(path)
		if err != nil {
			return batch.Failed, err
		}
		if !d.NeedsChange {
			log.Debug().Str("file", path).Int("w", w).Int("h", h).Msg("already oriented")
			return batch.Skipped, nil
		}

		outPath, err := orientDest(cfg, reg, namer, root, path)
		if err != nil {
			return batch.Failed, err
		}

		if !cfg.execute {
			fmt.Printf("  %s\n", displayPath(root, path))
			fmt.Printf("    → %s (%s)\n", displayPath(root, outPath), describeDecision(d))
			return batch.Changed, nil
		}

		if err := engine.Apply(path, d, outPath); err != nil {
			namer.Release(outPath)
			return batch.Failed, err
		}
		if cfg.inplace && outPath != path {
			// Re-encoded formats change extension even in place; drop the
			// original once the replacement is written.
			if err := os.Remove(path); err != nil {
				return batch.Failed, err
			}
		}
		return batch.Changed, nil
	})
	return nil
}

// orientDest computes where the transformed image is written.
func orientDest(cfg *config, reg *scan.Registry, namer *rename.Namer, root, path string) (string, error) {
	ext := reg.OutputExt(path)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if cfg.inplace {
		out := filepath.Join(filepath.Dir(path), stem+ext)
		if !strings.EqualFold(out, path) && exists(out) {
			return "", fmt.Errorf("in-place re-encode target already exists: %s", out)
		}
		return out, nil
	}

	dir := cfg.outDir
	if cfg.preserveStructure {
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return "", err
		}
		dir = filepath.Join(dir, rel)
	}
	return namer.Claim(dir, stem, ext), nil
}

func describeDecision(d orient.Decision) string {
	var parts []string
	if d.Mirror {
		parts = append(parts, "mirror")
	}
	if d.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("rotate %d", d.Rotation))
	}
	if len(parts) == 0 {
		return "no-op"
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// Rename Driver
// =============================================================================

// runRename renames every file to its metadata-derived canonical name.
// Metadata for the whole batch is fetched up front through one exiftool
// process; the per-file work is then pure path accounting.
func runRename(cfg *config, reg *scan.Registry, files []string, stats *batch.Stats) error {
	svc, err := meta.NewService()
	if err != nil {
		if p := firstMetadataOnly(reg, files); p != "" {
			return fmt.Errorf("renaming %s requires exiftool: %w", filepath.Base(p), err)
		}
		log.Warn().Err(err).Msg("exiftool unavailable, falling back to embedded EXIF reader")
	}
	defer svc.Close()

	allFields := svc.ReadBatch(files)
	root := scanRoot(cfg)
	namer := rename.NewNamer()

	pool := batch.Orchestrator{Workers: cfg.workers}
	pool.Run(files, stats, func(path string) (batch.Outcome, error) {
		md := meta.Extract(path, allFields[path])
		if md.FromFileSystem {
			log.Debug().Str("file", path).Msg("no capture timestamp in metadata, using file times")
		}

		base := rename.Derive(md)
		dir := filepath.Dir(path)
		ext := strings.ToLower(filepath.Ext(path))

		if filepath.Join(dir, base+ext) == path {
			return batch.Skipped, nil
		}
		dest := namer.Claim(dir, base, ext)

		if !cfg.execute {
			fmt.Printf("  %s\n", displayPath(root, path))
			fmt.Printf("    → %s\n", displayPath(root, dest))
			return batch.Changed, nil
		}

		var opErr error
		if cfg.copyMode {
			opErr = copyFile(path, dest)
		} else {
			opErr = moveFile(path, dest)
		}
		if opErr != nil {
			namer.Release(dest)
			return batch.Failed, opErr
		}
		return batch.Changed, nil
	})
	return nil
}

// firstMetadataOnly returns a file from the set that only the external
// metadata tool can read, or "" when the embedded reader covers
// everything.
func firstMetadataOnly(reg *scan.Registry, files []string) string {
	for _, f := range files {
		if reg.MetadataOnly(f) {
			return f
		}
	}
	return ""
}

// =============================================================================
// Dedup Driver
// =============================================================================

// runDedup groups numbered copies, verifies them against their
// canonical file and removes the confirmed duplicates.
func runDedup(cfg *config, files []string, stats *batch.Stats) error {
	verifier := dedup.Verifier{Mode: dedup.SizeOnly}
	if cfg.verifyHash {
		verifier.Mode = dedup.QuickHash
	}
	if cfg.fullHash {
		verifier.Mode = dedup.FullHash
	}
	remover := dedup.Remover{Trash: cfg.trash, TrashDir: cfg.trashDir}
	root := scanRoot(cfg)

	groups := dedup.FindGroups(files)
	if len(groups) == 0 {
		fmt.Println("No duplicate groups found")
		return nil
	}
	fmt.Printf("Found %d duplicate groups\n\n", len(groups))

	for _, g := range groups {
		verified, rejected, ok, err := verifier.Verify(g)
		if err != nil {
			stats.Record(batch.Failed, fmt.Sprintf("%s: %v", g.Canonical, err))
			continue
		}
		for _, rej := range rejected {
			log.Info().Str("file", rej.Path).Str("reason", rej.Reason).Msg("keeping suspected duplicate")
			stats.Record(batch.Skipped, "")
		}
		if !ok {
			continue
		}

		label := ""
		if verified.PseudoCanonical {
			label = " (lowest-numbered copy kept)"
		}
		fmt.Printf("  keep %s%s\n", displayPath(root, verified.Canonical), label)

		for _, c := range verified.Copies {
			if !cfg.execute {
				fmt.Printf("    remove %s\n", displayPath(root, c.Path))
				stats.Record(batch.Changed, "")
				continue
			}
			dest, err := remover.Remove(c.Path)
			if err != nil {
				stats.Record(batch.Failed, fmt.Sprintf("%s: %v", c.Path, err))
				continue
			}
			if dest != "" {
				fmt.Printf("    trashed %s\n", displayPath(root, c.Path))
			} else {
				fmt.Printf("    removed %s\n", displayPath(root, c.Path))
			}
			stats.Record(batch.Changed, "")
		}
	}
	return nil
}

// =============================================================================
// File Operations
// =============================================================================

// displayPath shortens path for output, falling back to the absolute
// path when it does not live under root.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// moveFile renames src to dst, falling back to copy+delete for
// cross-device moves.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}
