package orient

import (
	"image"

	"github.com/disintegration/imaging"
)

// Transform applies the decided mirror and rotation to the pixel data.
// The input image is returned untouched when no change is needed.
func Transform(img image.Image, d Decision) image.Image {
	if !d.NeedsChange {
		return img
	}
	out := img
	if d.Mirror {
		out = imaging.FlipH(out)
	}
	switch d.Rotation {
	case 90:
		out = imaging.Rotate90(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate270(out)
	}
	return out
}
