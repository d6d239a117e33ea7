package screenshot

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestRegionNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Region
		want image.Rectangle
	}{
		{"top-left to bottom-right", Region{10, 20, 110, 70}, image.Rect(10, 20, 110, 70)},
		{"bottom-right to top-left", Region{110, 70, 10, 20}, image.Rect(10, 20, 110, 70)},
		{"mixed", Region{110, 20, 10, 70}, image.Rect(10, 20, 110, 70)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Bounds(); got != tt.want {
				t.Errorf("Bounds() = %v, want %v", got, tt.want)
			}
			if tt.in.Width() != 100 || tt.in.Height() != 50 {
				t.Errorf("size = %dx%d, want 100x50", tt.in.Width(), tt.in.Height())
			}
		})
	}
}

func fakeCapturer(path string) (*Capturer, *image.Rectangle) {
	var grabbed image.Rectangle
	c := &Capturer{
		Path: path,
		grab: func(r image.Rectangle) (*image.RGBA, error) {
			grabbed = r
			img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
			return img, nil
		},
		desktop: func() (image.Rectangle, error) { return image.Rect(0, 0, 800, 600), nil },
	}
	return c, &grabbed
}

func TestCaptureWritesScreenshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screenshot.png")
	c, grabbed := fakeCapturer(path)

	img, err := c.Capture(Region{X0: 50, Y0: 40, X1: 10, Y1: 20})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if *grabbed != image.Rect(10, 20, 50, 40) {
		t.Errorf("grabbed %v, want normalized rect", *grabbed)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("image size = %v", img.Bounds())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("screenshot file not written: %v", err)
	}
	defer f.Close()
	saved, err := png.Decode(f)
	if err != nil {
		t.Fatalf("screenshot file is not a PNG: %v", err)
	}
	if saved.Bounds().Dx() != 40 {
		t.Errorf("saved width = %d, want 40", saved.Bounds().Dx())
	}
}

func TestCaptureClipsToDesktop(t *testing.T) {
	c, grabbed := fakeCapturer("")

	if _, err := c.Capture(Region{X0: 700, Y0: 500, X1: 900, Y1: 700}); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if *grabbed != image.Rect(700, 500, 800, 600) {
		t.Errorf("grabbed %v, want clipped rect", *grabbed)
	}
}

func TestCaptureRejectsEmptyRegion(t *testing.T) {
	c, _ := fakeCapturer("")

	tests := []struct {
		name   string
		region Region
	}{
		{"zero size", Region{X0: 5, Y0: 5, X1: 5, Y1: 5}},
		{"off screen", Region{X0: 900, Y0: 900, X1: 1000, Y1: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Capture(tt.region)
			var capErr *CaptureError
			if !errors.As(err, &capErr) {
				t.Fatalf("expected *CaptureError, got %v", err)
			}
			if !errors.Is(err, ErrEmptyRegion) {
				t.Errorf("expected ErrEmptyRegion, got %v", err)
			}
		})
	}
}

func TestCaptureReportsGrabFailure(t *testing.T) {
	c, _ := fakeCapturer("")
	denied := errors.New("permission denied")
	c.grab = func(image.Rectangle) (*image.RGBA, error) { return nil, denied }

	_, err := c.Capture(Region{X0: 0, Y0: 0, X1: 10, Y1: 10})
	if !errors.Is(err, denied) {
		t.Fatalf("expected wrapped grab error, got %v", err)
	}
}

func TestGetDisplayBounds(t *testing.T) {
	_, err := GetDisplayBounds()
	if err != nil {
		t.Logf("Failed to get display bounds (expected in headless environment): %v", err)
	}
}
