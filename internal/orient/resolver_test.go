package orient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveExifTags(t *testing.T) {
	cases := []struct {
		tag      int
		mirror   bool
		rotation int
	}{
		{2, true, 0},
		{3, false, 180},
		{4, true, 180},
		{5, true, 270},
		{6, false, 270},
		{7, true, 90},
		{8, false, 90},
	}
	for _, tc := range cases {
		d := Resolve(tc.tag, 400, 300, ExifNormalize)
		assert.True(t, d.NeedsChange, "tag %d", tc.tag)
		assert.Equal(t, tc.mirror, d.Mirror, "tag %d mirror", tc.tag)
		assert.Equal(t, tc.rotation, d.Rotation, "tag %d rotation", tc.tag)
	}
}

func TestResolveNormalTagIsNoop(t *testing.T) {
	for _, tag := range []int{0, 1, 9, -3} {
		d := Resolve(tag, 400, 300, ExifNormalize)
		assert.False(t, d.NeedsChange, "tag %d", tag)
		assert.True(t, d.Landscape)
	}
}

func TestResolveQuarterTurnSwapsBoundingBox(t *testing.T) {
	// 400x300 rotated a quarter turn becomes 300x400.
	d := Resolve(6, 400, 300, ExifNormalize)
	assert.False(t, d.Landscape)

	d = Resolve(3, 400, 300, ExifNormalize)
	assert.True(t, d.Landscape)
}

func TestResolveForceLandscape(t *testing.T) {
	d := Resolve(1, 100, 200, ForceLandscape)
	assert.True(t, d.NeedsChange)
	assert.False(t, d.Mirror)
	assert.Equal(t, 270, d.Rotation)
	assert.True(t, d.Landscape)

	d = Resolve(1, 200, 100, ForceLandscape)
	assert.False(t, d.NeedsChange)
}

func TestResolveForcePortrait(t *testing.T) {
	d := Resolve(1, 200, 100, ForcePortrait)
	assert.True(t, d.NeedsChange)
	assert.Equal(t, 90, d.Rotation)

	d = Resolve(1, 100, 200, ForcePortrait)
	assert.False(t, d.NeedsChange)
}

func TestResolveSquare(t *testing.T) {
	// Squares classify as landscape, so only forcing portrait rotates.
	d := Resolve(1, 150, 150, ForceLandscape)
	assert.False(t, d.NeedsChange)

	d = Resolve(1, 150, 150, ForcePortrait)
	assert.True(t, d.NeedsChange)
}

func TestForceCyclesReturnToStartingClass(t *testing.T) {
	for _, wh := range [][2]int{{100, 200}, {200, 100}, {150, 150}} {
		w, h := wh[0], wh[1]
		startLandscape := w >= h

		for _, policy := range []Policy{ForceLandscape, ForcePortrait, ForceLandscape} {
			if d := Resolve(1, w, h, policy); d.NeedsChange {
				w, h = h, w
			}
		}
		assert.Equal(t, startLandscape, w >= h, "dims %v", wh)
	}
}

func TestResolveForceIgnoresExifTag(t *testing.T) {
	// Force modes act on decoded dimensions only; an upside-down tag on
	// an already-landscape image stays untouched.
	d := Resolve(3, 200, 100, ForceLandscape)
	assert.False(t, d.NeedsChange)
	assert.False(t, d.Mirror)
}
