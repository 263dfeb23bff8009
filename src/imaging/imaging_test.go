package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns an image where every pixel encodes its own coordinates.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func writeFixture(t *testing.T, img image.Image) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, WritePNG(p, img))
	return p
}

func pngBase64(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCropProducesExactSubRectangle(t *testing.T) {
	src := gradient(200, 120)
	in := writeFixture(t, src)
	saveDir := t.TempDir()

	region := Region{X: 10, Y: 10, Width: 100, Height: 50}
	out, err := Crop(in, region, saveDir, "bettershot")
	require.NoError(t, err)
	assert.Equal(t, saveDir, filepath.Dir(out))

	got, err := Decode(out)
	require.NoError(t, err)
	require.Equal(t, 100, got.Bounds().Dx())
	require.Equal(t, 50, got.Bounds().Dy())

	for y := 0; y < region.Height; y++ {
		for x := 0; x < region.Width; x++ {
			want := src.RGBAAt(region.X+x, region.Y+y)
			r, g, b, a := got.At(x, y).RGBA()
			have := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
			if want != have {
				t.Fatalf("pixel (%d,%d): want %v, got %v", x, y, want, have)
			}
		}
	}
}

func TestCropFullHDSource(t *testing.T) {
	in := writeFixture(t, image.NewRGBA(image.Rect(0, 0, 1920, 1080)))
	out, err := Crop(in, Region{X: 10, Y: 10, Width: 100, Height: 50}, t.TempDir(), "bettershot")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestCropRejectsOutOfBounds(t *testing.T) {
	in := writeFixture(t, gradient(200, 120))

	tests := []struct {
		name   string
		region Region
	}{
		{"width exceeds", Region{X: 150, Y: 0, Width: 100, Height: 10}},
		{"height exceeds", Region{X: 0, Y: 100, Width: 10, Height: 21}},
		{"zero width", Region{X: 0, Y: 0, Width: 0, Height: 10}},
		{"zero height", Region{X: 0, Y: 0, Width: 10, Height: 0}},
		{"negative origin", Region{X: -1, Y: 0, Width: 10, Height: 10}},
		{"huge x", Region{X: math.MaxInt, Y: 0, Width: 1, Height: 1}},
		{"huge width", Region{X: 1, Y: 0, Width: math.MaxInt, Height: 1}},
		{"huge y", Region{X: 0, Y: math.MaxInt, Width: 1, Height: 1}},
		{"huge height", Region{X: 0, Y: 1, Width: 1, Height: math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveDir := t.TempDir()
			_, err := Crop(in, tt.region, saveDir, "bettershot")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRegion))

			entries, _ := os.ReadDir(saveDir)
			assert.Empty(t, entries)
		})
	}
}

func TestValidateAcceptsFullImage(t *testing.T) {
	b := image.Rect(0, 0, 200, 120)
	assert.NoError(t, Region{Width: 200, Height: 120}.Validate(b))
	assert.NoError(t, Region{X: 199, Y: 119, Width: 1, Height: 1}.Validate(b))
	assert.ErrorIs(t, Region{X: 200, Y: 0, Width: 1, Height: 1}.Validate(b), ErrInvalidRegion)
}

func TestCropImageRespectsNonZeroOrigin(t *testing.T) {
	base := gradient(50, 50)
	sub := base.SubImage(image.Rect(20, 20, 50, 50))

	out, err := CropImage(sub, Region{X: 1, Y: 2, Width: 3, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 4), out.Bounds())
	assert.Equal(t, base.RGBAAt(21, 22), out.RGBAAt(0, 0))
}

func TestCropMissingSource(t *testing.T) {
	_, err := Crop(filepath.Join(t.TempDir(), "nope.png"), Region{Width: 1, Height: 1}, t.TempDir(), "bettershot")
	assert.Error(t, err)
}

func TestSaveBase64(t *testing.T) {
	encoded := pngBase64(t, gradient(8, 4))

	tests := []struct {
		name string
		data string
	}{
		{"plain", encoded},
		{"data url", "data:image/png;base64," + encoded},
		{"unpadded", string(bytes.TrimRight([]byte(encoded), "="))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveDir := t.TempDir()
			out, err := SaveBase64(tt.data, saveDir, "bettershot")
			require.NoError(t, err)
			assert.Equal(t, saveDir, filepath.Dir(out))

			img, err := Decode(out)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
		})
	}
}

func TestSaveBase64MalformedWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not base64", "!!!not-base64###"},
		{"empty", ""},
		{"empty data url", "data:image/png;base64,"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveDir := t.TempDir()
			_, err := SaveBase64(tt.data, saveDir, "bettershot")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))

			entries, err := os.ReadDir(saveDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSaveBase64UniqueNames(t *testing.T) {
	encoded := pngBase64(t, gradient(2, 2))
	saveDir := t.TempDir()

	a, err := SaveBase64(encoded, saveDir, "bettershot")
	require.NoError(t, err)
	b, err := SaveBase64(encoded, saveDir, "bettershot")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestConcurrentSavesGetDistinctFiles(t *testing.T) {
	encoded := pngBase64(t, gradient(2, 2))
	saveDir := t.TempDir()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := SaveBase64(encoded, saveDir, "bettershot")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(saveDir)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestCopyToDir(t *testing.T) {
	in := writeFixture(t, gradient(4, 4))
	saveDir := filepath.Join(t.TempDir(), "nested")

	out, err := CopyToDir(in, saveDir, "screenshot")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(out))

	want, _ := os.ReadFile(in)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = CopyToDir(filepath.Join(t.TempDir(), "missing.png"), saveDir, "screenshot")
	assert.Error(t, err)
}
