package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/kbinani/screenshot"
)

var (
	ErrNoDisplays  = errors.New("no active displays found")
	ErrEmptyRegion = errors.New("region is empty")
)

// Region is a rectangle given by two corner points in screen pixel
// coordinates. The corners may come in any order.
type Region struct {
	X0, Y0 int
	X1, Y1 int
}

// Normalize orders the corners so that (X0,Y0) is the top-left one.
func (r Region) Normalize() Region {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

func (r Region) Width() int  { n := r.Normalize(); return n.X1 - n.X0 }
func (r Region) Height() int { n := r.Normalize(); return n.Y1 - n.Y0 }

// Bounds returns the normalized region as an image rectangle.
func (r Region) Bounds() image.Rectangle {
	n := r.Normalize()
	return image.Rect(n.X0, n.Y0, n.X1, n.Y1)
}

func (r Region) String() string {
	n := r.Normalize()
	return fmt.Sprintf("(%d,%d)-(%d,%d) %dx%d", n.X0, n.Y0, n.X1, n.Y1, n.X1-n.X0, n.Y1-n.Y0)
}

// CaptureError reports a failed screen capture.
type CaptureError struct {
	Region Region
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Region, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Capturer grabs screen regions and mirrors the last capture to Path.
type Capturer struct {
	Path string

	// grab and desktop default to kbinani/screenshot; tests replace them.
	grab    func(image.Rectangle) (*image.RGBA, error)
	desktop func() (image.Rectangle, error)
}

func NewCapturer(path string) *Capturer {
	return &Capturer{Path: path, grab: screenshot.CaptureRect, desktop: VirtualDesktopBounds}
}

// Capture clips region to the virtual desktop, captures it and writes the
// PNG to c.Path, replacing any previous capture.
func (c *Capturer) Capture(region Region) (image.Image, error) {
	desktop, err := c.desktop()
	if err != nil {
		return nil, &CaptureError{Region: region, Err: err}
	}

	bounds := region.Bounds().Intersect(desktop)
	if bounds.Empty() {
		return nil, &CaptureError{Region: region, Err: ErrEmptyRegion}
	}

	img, err := c.grab(bounds)
	if err != nil {
		return nil, &CaptureError{Region: region, Err: fmt.Errorf("failed to capture region: %w", err)}
	}

	if c.Path != "" {
		if err := SavePNG(c.Path, img); err != nil {
			return nil, &CaptureError{Region: region, Err: err}
		}
	}
	return img, nil
}

// SavePNG encodes img as PNG at path, truncating an existing file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return f.Close()
}

// VirtualDesktopBounds returns the union of all active display bounds.
func VirtualDesktopBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, ErrNoDisplays
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplays
	}
	return screenshot.GetDisplayBounds(0), nil
}

// CapturePrimary captures the whole primary display.
func CapturePrimary() (*image.RGBA, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplays
	}
	return screenshot.CaptureDisplay(0)
}
