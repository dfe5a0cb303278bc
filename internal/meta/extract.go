package meta

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/rs/zerolog/log"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// dateFields is the capture-timestamp fallback chain, tried in strict
// order before the filesystem takes over.
var dateFields = []string{FieldDateTimeOriginal, FieldCreateDate, FieldModifyDate}

// subsecFields are tried in order for the sub-second component.
var subsecFields = []string{FieldSubSecTimeOriginal, FieldSubSecTime, FieldSubSecTimeDigitized}

// LatLon is a validated GPS coordinate pair.
type LatLon struct {
	Lat float64
	Lon float64
}

// ImageMetadata holds everything the renaming engine needs for one file.
// Timestamp is never zero: the fallback chain always produces a value.
type ImageMetadata struct {
	Timestamp      time.Time
	FromFileSystem bool // true when Timestamp came from file times, not EXIF
	SubsecMillis   int  // 0-999, zero when absent or on filesystem fallback
	GPS            *LatLon
	OriginalBase   string // original filename stem, unsanitized
}

// Extract builds ImageMetadata for path from the given fields, walking
// the timestamp fallback chain down to filesystem times when needed.
func Extract(path string, fields Fields) ImageMetadata {
	md := ImageMetadata{
		OriginalBase: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	for _, field := range dateFields {
		v, ok := fields[field]
		if !ok {
			continue
		}
		t, err := parseExifTime(v)
		if err != nil {
			log.Debug().Str("file", path).Str("field", field).Str("value", v).Msg("unparseable timestamp")
			continue
		}
		md.Timestamp = t
		md.SubsecMillis = parseSubsec(fields)
		break
	}

	if md.Timestamp.IsZero() {
		md.Timestamp = fileTime(path)
		md.FromFileSystem = true
		log.Debug().Str("file", path).Time("ts", md.Timestamp).Msg("using filesystem timestamp")
	}

	md.GPS = parseGPS(fields)
	return md
}

// parseExifTime parses "YYYY:MM:DD HH:MM:SS", tolerating trailing
// fractional seconds or timezone offsets by ignoring them.
func parseExifTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(exifTimeLayout) {
		s = s[:len(exifTimeLayout)]
	}
	return time.Parse(exifTimeLayout, s)
}

// parseSubsec extracts the millisecond component from the sub-second tag
// chain. Values are left-padded to three digits, then truncated: "7"
// means 007 ms, "1234" means 123 ms.
func parseSubsec(fields Fields) int {
	for _, field := range subsecFields {
		v, ok := fields[field]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for len(v) < 3 {
			v = "0" + v
		}
		ms, err := strconv.Atoi(v[:3])
		if err != nil || ms < 0 {
			continue
		}
		return ms
	}
	return 0
}

// parseGPS returns a coordinate pair only when both components exist,
// are in range, and are not the (0,0) "null island" sentinel.
func parseGPS(fields Fields) *LatLon {
	latS, okLat := fields[FieldGPSLatitude]
	lonS, okLon := fields[FieldGPSLongitude]
	if !okLat || !okLon {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	if math.Abs(lat) < 0.01 && math.Abs(lon) < 0.01 {
		return nil // null island sentinel
	}
	return &LatLon{Lat: lat, Lon: lon}
}

// fileTime returns the filesystem's best capture-time stand-in: birth
// time where the platform records one, otherwise last status change,
// otherwise modification time.
func fileTime(path string) time.Time {
	if ts, err := times.Stat(path); err == nil {
		if ts.HasBirthTime() {
			return ts.BirthTime()
		}
		if ts.HasChangeTime() {
			return ts.ChangeTime()
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Now()
}
