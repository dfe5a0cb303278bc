package orient

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestInspectReportsDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	saveImage(t, path, 4, 2)

	d, w, h, err := NewEngine(ForceLandscape).Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.False(t, d.NeedsChange)
}

func TestInspectPlainJPEGNeedsNothing(t *testing.T) {
	// A JPEG without an orientation tag reads as tag 1.
	path := filepath.Join(t.TempDir(), "plain.jpg")
	saveImage(t, path, 4, 2)

	d, _, _, err := NewEngine(ExifNormalize).Inspect(path)
	require.NoError(t, err)
	assert.False(t, d.NeedsChange)
}

func TestApplyForceLandscapePNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.png")
	out := filepath.Join(dir, "out", "tall.png")
	saveImage(t, src, 2, 4)

	e := NewEngine(ForceLandscape)
	d, _, _, err := e.Inspect(src)
	require.NoError(t, err)
	require.True(t, d.NeedsChange)

	require.NoError(t, e.Apply(src, d, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	// Source stays untouched and no staging file lingers.
	orig, err := imaging.Open(src)
	require.NoError(t, err)
	assert.Equal(t, 2, orig.Bounds().Dx())
	assert.NoFileExists(t, out+".partial")
}

func TestApplyForcePortraitJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.jpg")
	out := filepath.Join(dir, "wide_fixed.jpg")
	saveImage(t, src, 4, 2)

	e := NewEngine(ForcePortrait)
	d, _, _, err := e.Inspect(src)
	require.NoError(t, err)
	require.True(t, d.NeedsChange)

	require.NoError(t, e.Apply(src, d, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestNormalizeOutputIsStable(t *testing.T) {
	// Normalizing once bakes the rotation in and resets the tag, so a
	// second pass over the output finds nothing to do.
	dir := t.TempDir()
	src := filepath.Join(dir, "rotated.jpg")
	out := filepath.Join(dir, "normalized.jpg")
	require.NoError(t, os.WriteFile(src, jpegWithOrientation(t, 6), 0o644))

	e := NewEngine(ExifNormalize)
	d, _, _, err := e.Inspect(src)
	require.NoError(t, err)
	require.True(t, d.NeedsChange)
	require.Equal(t, 270, d.Rotation)

	require.NoError(t, e.Apply(src, d, out))

	d, _, _, err = e.Inspect(out)
	require.NoError(t, err)
	assert.False(t, d.NeedsChange)
}

func TestApplyUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bogus.jpg")
	out := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	err := NewEngine(ForceLandscape).Apply(src, Decision{NeedsChange: true, Rotation: 90}, out)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestApplyWriteFailureLeavesNoStagingFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.png")
	out := filepath.Join(dir, "out.png")
	saveImage(t, src, 2, 4)

	// Occupy the staging path so the write fails partway through.
	require.NoError(t, os.Mkdir(out+".partial", 0o755))

	err := NewEngine(ForceLandscape).Apply(src, Decision{NeedsChange: true, Rotation: 270}, out)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
	assert.NoDirExists(t, out+".partial")
}

func TestApplyRejectsUnknownOutputFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.png")
	saveImage(t, src, 2, 4)

	err := NewEngine(ForceLandscape).Apply(src, Decision{NeedsChange: true, Rotation: 270}, filepath.Join(dir, "out.xyz"))
	assert.Error(t, err)
}
