package meta

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// maker-note parsing improves coverage on Canon/Nikon files
	exif.RegisterParsers(mknote.All...)
}

// Canonical field names, matching exiftool's vocabulary so both readers
// populate the same key space.
const (
	FieldDateTimeOriginal    = "DateTimeOriginal"
	FieldCreateDate          = "CreateDate"
	FieldModifyDate          = "ModifyDate"
	FieldSubSecTimeOriginal  = "SubSecTimeOriginal"
	FieldSubSecTime          = "SubSecTime"
	FieldSubSecTimeDigitized = "SubSecTimeDigitized"
	FieldGPSLatitude         = "GPSLatitude"
	FieldGPSLongitude        = "GPSLongitude"
	FieldOrientation         = "Orientation"
)

// ReadEmbedded decodes the EXIF block of a JPEG/TIFF file in-process and
// returns it using the same field names the external tool produces.
func ReadEmbedded(path string) (Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	fields := Fields{}
	putString(fields, x, exif.DateTimeOriginal, FieldDateTimeOriginal)
	putString(fields, x, exif.DateTimeDigitized, FieldCreateDate)
	putString(fields, x, exif.DateTime, FieldModifyDate)
	putString(fields, x, exif.SubSecTimeOriginal, FieldSubSecTimeOriginal)
	putString(fields, x, exif.SubSecTime, FieldSubSecTime)
	putString(fields, x, exif.SubSecTimeDigitized, FieldSubSecTimeDigitized)

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			fields[FieldOrientation] = strconv.Itoa(v)
		}
	}

	if lat, lon, err := x.LatLong(); err == nil {
		fields[FieldGPSLatitude] = strconv.FormatFloat(lat, 'f', -1, 64)
		fields[FieldGPSLongitude] = strconv.FormatFloat(lon, 'f', -1, 64)
	}

	return fields, nil
}

func putString(fields Fields, x *exif.Exif, name exif.FieldName, key string) {
	tag, err := x.Get(name)
	if err != nil {
		return
	}
	v, err := tag.StringVal()
	if err != nil {
		return
	}
	v = strings.TrimRight(v, "\x00")
	if v != "" {
		fields[key] = v
	}
}

// OrientationTag returns the EXIF orientation value (1-8) read from r,
// defaulting to 1 (normal) when the tag is missing or unreadable.
func OrientationTag(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}
