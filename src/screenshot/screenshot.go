package screenshot

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbinani/screenshot"

	"better-shot/src/imaging"
	"better-shot/src/paths"
)

// ErrNoDisplays is returned when no active monitor can be found.
var ErrNoDisplays = errors.New("No monitors available")

// MonitorShot is one captured image tied to the geometry of its source display.
type MonitorShot struct {
	Path    string `json:"path"`
	Index   int    `json:"index"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// Displays abstracts the monitor enumeration and capture facility.
type Displays interface {
	NumActiveDisplays() int
	GetDisplayBounds(displayIndex int) image.Rectangle
	CaptureRect(bounds image.Rectangle) (*image.RGBA, error)
}

type systemDisplays struct{}

func (systemDisplays) NumActiveDisplays() int { return screenshot.NumActiveDisplays() }

func (systemDisplays) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }

func (systemDisplays) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// System returns the Displays backed by the OS.
func System() Displays { return systemDisplays{} }

// Capturer captures monitors to PNG files.
type Capturer struct {
	displays Displays
}

// New returns a Capturer over d, defaulting to System().
func New(d Displays) *Capturer {
	if d == nil {
		d = System()
	}
	return &Capturer{displays: d}
}

// PrimaryBounds returns the bounds of the primary display (display 0).
func (c *Capturer) PrimaryBounds() (image.Rectangle, error) {
	if c.displays.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplays
	}
	return c.displays.GetDisplayBounds(0), nil
}

// CapturePrimary captures the primary display into path as PNG.
func (c *Capturer) CapturePrimary(path string) error {
	bounds, err := c.PrimaryBounds()
	if err != nil {
		return err
	}
	img, err := c.displays.CaptureRect(bounds)
	if err != nil {
		return fmt.Errorf("Failed to capture screen: %w", err)
	}
	return imaging.WritePNG(path, img)
}

// CaptureAll captures every active display into its own file in dir.
// Files already written are removed if a later display fails.
func (c *Capturer) CaptureAll(dir, prefix string) ([]MonitorShot, error) {
	n := c.displays.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplays
	}
	if err := paths.EnsureDir(dir); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(paths.GenerateFilename(prefix, "png"), ".png")
	shots := make([]MonitorShot, 0, n)
	for i := 0; i < n; i++ {
		b := c.displays.GetDisplayBounds(i)
		img, err := c.displays.CaptureRect(b)
		if err != nil {
			cleanup(shots)
			return nil, fmt.Errorf("Failed to capture monitor %d: %w", i, err)
		}
		p := filepath.Join(dir, fmt.Sprintf("%s_monitor%d.png", base, i))
		if err := imaging.WritePNG(p, img); err != nil {
			cleanup(shots)
			return nil, err
		}
		shots = append(shots, MonitorShot{
			Path:    p,
			Index:   i,
			X:       b.Min.X,
			Y:       b.Min.Y,
			Width:   b.Dx(),
			Height:  b.Dy(),
			Primary: i == 0,
		})
		log.Printf("screenshot: monitor %d %v -> %s", i, b, p)
	}
	return shots, nil
}

func cleanup(shots []MonitorShot) {
	for _, s := range shots {
		_ = os.Remove(s.Path)
	}
}
