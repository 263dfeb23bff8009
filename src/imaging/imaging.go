// Package imaging crops captured screenshots and persists editor output.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"better-shot/src/paths"
)

var (
	// ErrInvalidRegion means a crop region is empty or leaves the source bounds.
	ErrInvalidRegion = errors.New("invalid crop region")
	// ErrDecode means image bytes or a base64 payload could not be decoded.
	ErrDecode = errors.New("failed to decode image data")
)

// Region is a rectangle in source-image pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks the region lies entirely inside bounds. It never clamps.
func (r Region) Validate(bounds image.Rectangle) error {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: x=%d y=%d width=%d height=%d", ErrInvalidRegion, r.X, r.Y, r.Width, r.Height)
	}
	// Compare by subtraction; X+Width can overflow for huge inputs.
	if r.X > bounds.Dx() || r.Width > bounds.Dx()-r.X || r.Y > bounds.Dy() || r.Height > bounds.Dy()-r.Y {
		return fmt.Errorf("%w: %dx%d+%d+%d exceeds image size %dx%d",
			ErrInvalidRegion, r.Width, r.Height, r.X, r.Y, bounds.Dx(), bounds.Dy())
	}
	return nil
}

// Decode reads and decodes the image at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// CropImage copies region out of img into a new image anchored at (0,0).
func CropImage(img image.Image, r Region) (*image.RGBA, error) {
	b := img.Bounds()
	if err := r.Validate(b); err != nil {
		return nil, err
	}
	src := image.Rect(b.Min.X+r.X, b.Min.Y+r.Y, b.Min.X+r.X+r.Width, b.Min.Y+r.Y+r.Height)
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Copy(dst, image.Point{}, img, src, draw.Src, nil)
	return dst, nil
}

// Crop decodes src, crops region and writes the result as a new PNG in saveDir.
func Crop(src string, r Region, saveDir, prefix string) (string, error) {
	img, err := Decode(src)
	if err != nil {
		return "", err
	}
	cropped, err := CropImage(img, r)
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDir(saveDir); err != nil {
		return "", err
	}
	return writeUnique(saveDir, prefix, "png", func(w io.Writer) error {
		if err := png.Encode(w, cropped); err != nil {
			return fmt.Errorf("Failed to encode PNG: %w", err)
		}
		return nil
	})
}

// WritePNG encodes img to path. A partially written file is removed on failure.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("Failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("Failed to save %s: %w", path, err)
	}
	return nil
}

// DecodeBase64 strips an optional "data:<mime>;base64," marker and decodes the
// payload. Padded and unpadded encodings are accepted.
func DecodeBase64(data string) ([]byte, error) {
	payload := strings.TrimSpace(data)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrDecode)
		}
		payload = payload[idx+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: Failed to decode base64: %v", ErrDecode, err)
		}
	}
	return raw, nil
}

// SaveBase64 decodes an editor payload and writes it to a uniquely named file
// in saveDir. Nothing is written when the payload is not a decodable image.
func SaveBase64(data, saveDir, prefix string) (string, error) {
	raw, err := DecodeBase64(data)
	if err != nil {
		return "", err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("%w: payload is not an image: %v", ErrDecode, err)
	}
	if err := paths.EnsureDir(saveDir); err != nil {
		return "", err
	}
	return writeUnique(saveDir, prefix, "png", func(w io.Writer) error {
		if _, err := w.Write(raw); err != nil {
			return fmt.Errorf("Failed to save image: %w", err)
		}
		return nil
	})
}

// CopyToDir copies src into saveDir under a freshly generated name.
func CopyToDir(src, saveDir, prefix string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("Failed to open screenshot %s: %w", src, err)
	}
	defer in.Close()

	if err := paths.EnsureDir(saveDir); err != nil {
		return "", err
	}
	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if ext == "" {
		ext = "png"
	}
	return writeUnique(saveDir, prefix, ext, func(w io.Writer) error {
		if _, err := io.Copy(w, in); err != nil {
			return fmt.Errorf("Failed to copy screenshot: %w", err)
		}
		return nil
	})
}

// writeUnique creates a fresh file in dir, fills it with write and returns its
// path. The file is removed if anything fails.
func writeUnique(dir, prefix, ext string, write func(io.Writer) error) (string, error) {
	f, err := paths.CreateUnique(dir, prefix, ext)
	if err != nil {
		return "", err
	}
	out := f.Name()
	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(out)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("Failed to save %s: %w", out, err)
	}
	return out, nil
}
