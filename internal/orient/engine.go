package orient

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"photofix/internal/meta"
)

// DefaultJPEGQuality matches the quality the tool has always saved with.
const DefaultJPEGQuality = 95

// Engine turns orientation decisions into saved files.
type Engine struct {
	Policy  Policy
	Quality int
}

func NewEngine(policy Policy) *Engine {
	return &Engine{Policy: policy, Quality: DefaultJPEGQuality}
}

// Inspect reads just enough of the file to resolve its orientation
// decision: the header for pixel dimensions and the EXIF block for the
// orientation tag. No pixel data is decoded.
func (e *Engine) Inspect(path string) (Decision, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return Decision{}, 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Decision{}, 0, 0, fmt.Errorf("decoding image header: %w", err)
	}

	tag := 1
	if e.Policy == ExifNormalize {
		if _, err := f.Seek(0, 0); err != nil {
			return Decision{}, 0, 0, err
		}
		tag = meta.OrientationTag(f)
	}

	return Resolve(tag, cfg.Width, cfg.Height, e.Policy), cfg.Width, cfg.Height, nil
}

// Apply decodes path, applies the decision and writes the result to
// outPath. The write is staged through a temporary file and renamed into
// place, so a failure never leaves a partial file and never damages the
// source.
func (e *Engine) Apply(path string, d Decision, outPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	out := Transform(img, d)

	ext := strings.ToLower(filepath.Ext(outPath))
	encoded, err := e.encode(out, ext)
	if err != nil {
		return err
	}

	if ext == ".jpg" || ext == ".jpeg" {
		encoded, err = CarryMetadata(encoded, data)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	tmp := outPath + ".partial"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (e *Engine) encode(img image.Image, ext string) ([]byte, error) {
	var format imaging.Format
	var opts []imaging.EncodeOption

	switch ext {
	case ".jpg", ".jpeg":
		format = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(e.Quality))
	case ".png":
		format = imaging.PNG
	case ".gif":
		format = imaging.GIF
	case ".bmp":
		format = imaging.BMP
	case ".tif", ".tiff":
		format = imaging.TIFF
	default:
		return nil, fmt.Errorf("no encoder for %q", ext)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ext, err)
	}
	return buf.Bytes(), nil
}
