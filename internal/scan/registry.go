// Package scan discovers image files under a root path and knows which
// formats the pipeline can decode, which are metadata-only, and which
// must be re-encoded to JPEG when a transform is saved.
package scan

import (
	"path/filepath"
	"strings"
)

// Placeholder size thresholds. Cloud-sync stubs are far smaller than any
// real image of the same format; HEIC placeholders run larger than the
// generic ones.
const (
	heicPlaceholderMaxBytes    = 50000
	genericPlaceholderMaxBytes = 10000
)

// decodableExts are formats the codec can both decode and re-encode.
// WebP decodes (golang.org/x/image/webp) but has no encoder, so it is
// also listed in reencodeExts.
var decodableExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// metadataOnlyExts are formats accepted for metadata extraction (rename,
// dedup) but whose pixel data the codec cannot decode.
var metadataOnlyExts = map[string]bool{
	".heic": true,
	".heif": true,
	".dng":  true, // Adobe Digital Negative
	".cr2":  true, // Canon RAW
	".cr3":  true,
	".nef":  true, // Nikon RAW
	".nrw":  true,
	".arw":  true, // Sony RAW
	".srf":  true,
	".sr2":  true,
	".orf":  true, // Olympus RAW
	".rw2":  true, // Panasonic RAW
	".pef":  true, // Pentax RAW
	".raf":  true, // Fujifilm RAW
	".raw":  true,
}

// reencodeExts maps source extensions that cannot be written in their
// native form to the output extension used when a transform is saved.
var reencodeExts = map[string]string{
	".heic": ".jpg",
	".heif": ".jpg",
	".webp": ".jpg",
	".dng":  ".jpg",
	".cr2":  ".jpg",
	".cr3":  ".jpg",
	".nef":  ".jpg",
	".nrw":  ".jpg",
	".arw":  ".jpg",
	".srf":  ".jpg",
	".sr2":  ".jpg",
	".orf":  ".jpg",
	".rw2":  ".jpg",
	".pef":  ".jpg",
	".raf":  ".jpg",
	".raw":  ".jpg",
}

// Registry holds the format capabilities resolved once at process start
// and passed explicitly to the components that need them.
type Registry struct {
	decodable    map[string]bool
	metadataOnly map[string]bool
	reencode     map[string]string
}

// NewRegistry builds the default capability registry.
func NewRegistry() *Registry {
	return &Registry{
		decodable:    decodableExts,
		metadataOnly: metadataOnlyExts,
		reencode:     reencodeExts,
	}
}

// Supported reports whether the file is an accepted image format.
func (r *Registry) Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return r.decodable[ext] || r.metadataOnly[ext]
}

// Decodable reports whether the codec can decode the file's pixel data.
func (r *Registry) Decodable(path string) bool {
	return r.decodable[strings.ToLower(filepath.Ext(path))]
}

// MetadataOnly reports whether the file is accepted solely for metadata
// extraction. These formats are opaque to both the codec and the
// embedded EXIF reader, so only the external metadata tool serves them.
func (r *Registry) MetadataOnly(path string) bool {
	return r.metadataOnly[strings.ToLower(filepath.Ext(path))]
}

// OutputExt returns the extension a saved transform of path must use:
// the source extension lowercased, or the mandatory re-encode target for
// formats without a native encoder.
func (r *Registry) OutputExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if out, ok := r.reencode[ext]; ok {
		return out
	}
	return ext
}

// IsPlaceholder reports whether a file of the given size is likely a
// cloud-sync placeholder rather than fully materialized image data.
func (r *Registry) IsPlaceholder(path string, size int64) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".heic" || ext == ".heif" {
		return size < heicPlaceholderMaxBytes
	}
	return size < genericPlaceholderMaxBytes
}
