package orient

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v2"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure"
	"github.com/rs/zerolog/log"
)

const (
	markerSOI   = 0xd8
	markerAPP0  = 0xe0
	markerAPP2  = 0xe2
	markerAPP15 = 0xef
)

var iccProfilePrefix = []byte("ICC_PROFILE\x00")

// CarryMetadata transfers the source JPEG's EXIF block (with the
// orientation tag forced back to 1, so the output never re-triggers a
// transform) and its ICC profile segments byte-for-byte onto the freshly
// encoded JPEG. A source without parseable metadata yields the encoded
// bytes unchanged.
func CarryMetadata(encoded, source []byte) ([]byte, error) {
	jmp := jpegstructure.NewJpegMediaParser()

	srcIntfc, err := jmp.ParseBytes(source)
	if err != nil {
		// source was not a JPEG (or is too damaged to mine); nothing to carry
		log.Debug().Err(err).Msg("source segments unavailable, writing clean JPEG")
		return encoded, nil
	}
	srcSl := srcIntfc.(*jpegstructure.SegmentList)

	outIntfc, err := jmp.ParseBytes(encoded)
	if err != nil {
		return nil, fmt.Errorf("parsing encoded output: %w", err)
	}
	outSl := outIntfc.(*jpegstructure.SegmentList)

	if rootIb, err := srcSl.ConstructExifBuilder(); err == nil {
		ifdIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
		if err != nil {
			return nil, fmt.Errorf("locating IFD0: %w", err)
		}
		if err := ifdIb.SetStandardWithName("Orientation", []uint16{1}); err != nil {
			return nil, fmt.Errorf("resetting orientation tag: %w", err)
		}
		if err := outSl.SetExif(rootIb); err != nil {
			return nil, fmt.Errorf("attaching EXIF: %w", err)
		}
	}

	if icc := iccSegments(srcSl); len(icc) > 0 {
		outSl = insertAfterHeader(outSl, icc)
	}

	var buf bytes.Buffer
	if err := outSl.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing JPEG segments: %w", err)
	}
	return buf.Bytes(), nil
}

// iccSegments collects the APP2 ICC profile segments of a parsed JPEG.
func iccSegments(sl *jpegstructure.SegmentList) []*jpegstructure.Segment {
	var icc []*jpegstructure.Segment
	for _, s := range sl.Segments() {
		if s.MarkerId == markerAPP2 && bytes.HasPrefix(s.Data, iccProfilePrefix) {
			icc = append(icc, s)
		}
	}
	return icc
}

// insertAfterHeader splices extra segments in after the leading run of
// SOI/APPn markers so they land before any quantization or scan data.
func insertAfterHeader(sl *jpegstructure.SegmentList, extra []*jpegstructure.Segment) *jpegstructure.SegmentList {
	segs := sl.Segments()
	idx := 0
	for i, s := range segs {
		if s.MarkerId == markerSOI || (s.MarkerId >= markerAPP0 && s.MarkerId <= markerAPP15) {
			idx = i + 1
			continue
		}
		break
	}
	merged := make([]*jpegstructure.Segment, 0, len(segs)+len(extra))
	merged = append(merged, segs[:idx]...)
	merged = append(merged, extra...)
	merged = append(merged, segs[idx:]...)
	return jpegstructure.NewSegmentList(merged)
}
