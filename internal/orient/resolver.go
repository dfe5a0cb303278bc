// Package orient decides and applies orientation corrections: baking the
// EXIF orientation tag into pixels, or forcing images into a landscape
// or portrait bounding box.
package orient

import "fmt"

// Policy selects how an image's target orientation is chosen.
type Policy int

const (
	// ExifNormalize bakes the EXIF orientation tag into the pixels and
	// resets the tag to 1.
	ExifNormalize Policy = iota
	// ForceLandscape rotates until width >= height.
	ForceLandscape
	// ForcePortrait rotates until height > width.
	ForcePortrait
)

func (p Policy) String() string {
	switch p {
	case ExifNormalize:
		return "exif"
	case ForceLandscape:
		return "landscape"
	case ForcePortrait:
		return "portrait"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Decision describes the transform needed to reach the target
// orientation. Rotation is in counter-clockwise degrees (0, 90, 180 or
// 270); Mirror, when set, is a horizontal flip applied before the
// rotation, matching EXIF decode order.
type Decision struct {
	NeedsChange bool
	Mirror      bool
	Rotation    int
	Landscape   bool // bounding-box class after the transform (w >= h)
}

// exifTransforms maps EXIF orientation tags 2-8 to the compensating
// mirror+rotation presenting the image upright. The values are fixed by
// the EXIF standard:
//
//	2: mirrored horizontally
//	3: rotated 180
//	4: mirrored vertically (mirror + 180)
//	5: mirrored + 90 CW
//	6: 90 CW (= 270 CCW)
//	7: mirrored + 90 CCW
//	8: 90 CCW
var exifTransforms = map[int]struct {
	mirror   bool
	rotation int
}{
	2: {true, 0},
	3: {false, 180},
	4: {true, 180},
	5: {true, 270},
	6: {false, 270},
	7: {true, 90},
	8: {false, 90},
}

// Resolve computes the minimal transform for an image with the given
// EXIF orientation tag and decoded pixel dimensions under policy.
// Square images classify as landscape (the comparison is w >= h), so
// ForcePortrait rotates them while ForceLandscape does not.
func Resolve(tag, w, h int, policy Policy) Decision {
	switch policy {
	case ForceLandscape, ForcePortrait:
		isLandscape := w >= h
		want := policy == ForceLandscape
		if isLandscape == want {
			return Decision{Landscape: isLandscape}
		}
		// Direction is not significant for the bounding-box class; the
		// fixed choice keeps repeated runs deterministic.
		rot := 90
		if want {
			rot = 270
		}
		return Decision{NeedsChange: true, Rotation: rot, Landscape: want}
	}

	tr, ok := exifTransforms[tag]
	if !ok {
		// tag 1 (normal) and anything out of range: leave untouched
		return Decision{Landscape: w >= h}
	}
	outW, outH := w, h
	if tr.rotation == 90 || tr.rotation == 270 {
		outW, outH = h, w
	}
	return Decision{
		NeedsChange: true,
		Mirror:      tr.mirror,
		Rotation:    tr.rotation,
		Landscape:   outW >= outH,
	}
}
