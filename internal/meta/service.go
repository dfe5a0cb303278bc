// Package meta reads image metadata. An external exiftool process (when
// available) serves batched reads covering RAW and HEIC; an embedded
// EXIF reader covers JPEG/TIFF without spawning anything; filesystem
// timestamps are the fallback of last resort.
package meta

import (
	"fmt"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/rs/zerolog/log"
)

// Fields is a flat tag-name to value mapping for one file.
type Fields map[string]string

// batchSize caps how many paths are handed to exiftool per invocation.
const batchSize = 50

// Service wraps a long-running exiftool process for batched metadata
// extraction. The zero-value Service (no process) is usable: ReadBatch
// then falls back to the embedded reader per file.
type Service struct {
	et *exiftool.Exiftool
}

// NewService starts exiftool in stay-open mode. The returned error only
// means the external tool is unavailable; callers may continue with an
// empty Service and degraded coverage.
func NewService() (*Service, error) {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return &Service{}, fmt.Errorf("starting exiftool: %w", err)
	}
	return &Service{et: et}, nil
}

// Available reports whether the external metadata tool is running.
func (s *Service) Available() bool { return s.et != nil }

// Close shuts the exiftool process down.
func (s *Service) Close() {
	if s.et != nil {
		s.et.Close()
	}
}

// ReadBatch extracts metadata for all paths and returns a map keyed by
// path. Files whose read fails (or all files, when exiftool is absent)
// are retried with the embedded reader; a file with no readable
// metadata at all gets an empty Fields entry and the caller's fallback
// chain takes over.
func (s *Service) ReadBatch(paths []string) map[string]Fields {
	out := make(map[string]Fields, len(paths))

	if s.et != nil {
		for start := 0; start < len(paths); start += batchSize {
			end := start + batchSize
			if end > len(paths) {
				end = len(paths)
			}
			for _, fm := range s.et.ExtractMetadata(paths[start:end]...) {
				if fm.Err != nil {
					log.Debug().Str("file", fm.File).Err(fm.Err).Msg("exiftool read failed")
					continue
				}
				fields := make(Fields, len(fm.Fields))
				for k, v := range fm.Fields {
					fields[k] = fmt.Sprint(v)
				}
				out[fm.File] = fields
			}
		}
	}

	for _, p := range paths {
		if _, ok := out[p]; ok {
			continue
		}
		fields, err := ReadEmbedded(p)
		if err != nil {
			log.Debug().Str("file", p).Err(err).Msg("no embedded EXIF")
			out[p] = Fields{}
			continue
		}
		out[p] = fields
	}

	return out
}
