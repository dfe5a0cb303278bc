// Package rename derives canonical, collision-free filenames from
// capture metadata.
package rename

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"photofix/internal/meta"
)

// MaxBaseNameLength caps sanitized components against filesystem limits.
const MaxBaseNameLength = 200

// gpsPrecision is the number of decimal places kept for coordinates.
const gpsPrecision = 4

var (
	badChars     = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_")
	collapseRuns = regexp.MustCompile(`[\s_]+`)
)

// Sanitize makes a filename component filesystem-safe: problematic
// characters become underscores, runs of whitespace and underscores
// collapse to a single underscore, and the result is trimmed and
// length-capped.
func Sanitize(name string) string {
	name = badChars.Replace(name)
	name = collapseRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, " _")
	if utf8.RuneCountInString(name) > MaxBaseNameLength {
		runes := []rune(name)
		name = string(runes[:MaxBaseNameLength])
	}
	return name
}

// formatGPS renders a coordinate pair for embedding in a filename, with
// the minus sign replaced by "m" so the name stays shell-friendly.
func formatGPS(gps *meta.LatLon) string {
	if gps == nil {
		return ""
	}
	lat := strings.ReplaceAll(fmt.Sprintf("lat%.*f", gpsPrecision, gps.Lat), "-", "m")
	lon := strings.ReplaceAll(fmt.Sprintf("lon%.*f", gpsPrecision, gps.Lon), "-", "m")
	return fmt.Sprintf("_%s_%s", lat, lon)
}

// Derive synthesizes the canonical base name (no extension) for an
// image: timestamp to millisecond precision, optional GPS, and the
// sanitized original stem for traceability. The output depends only on
// the metadata, so identical inputs always produce identical names.
func Derive(md meta.ImageMetadata) string {
	var b strings.Builder
	b.WriteString(md.Timestamp.Format("20060102_150405"))
	fmt.Fprintf(&b, "_%03d", md.SubsecMillis)
	b.WriteString(formatGPS(md.GPS))
	if orig := Sanitize(md.OriginalBase); orig != "" {
		b.WriteString("_")
		b.WriteString(orig)
	}
	return b.String()
}
