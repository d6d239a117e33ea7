package ocr

import (
	"context"
	"errors"
	"image"
	"reflect"
	"testing"
)

func TestPrepare(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		minHeight int
		wantW     int
		wantH     int
	}{
		{"tall enough", 100, 50, 40, 100, 50},
		{"disabled", 100, 10, 0, 100, 10},
		{"doubles", 100, 20, 40, 200, 40},
		{"rounds factor up", 100, 15, 40, 300, 45},
		{"caps factor", 50, 2, 40, 200, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := Prepare(img, tt.minHeight).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Prepare(%dx%d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.minHeight, got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseLanguages(t *testing.T) {
	got := ParseLanguages(" eng + jpn+")
	if want := []string{"eng", "jpn"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLanguages = %v, want %v", got, want)
	}
}

func TestExtractRejectsEmptyImage(t *testing.T) {
	_, err := NewTesseract(Options{}).Extract(context.Background(), image.NewRGBA(image.Rectangle{}))
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseract(Options{}).Extract(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractBytesRejectsGarbage(t *testing.T) {
	_, err := NewTesseract(Options{}).ExtractBytes(context.Background(), []byte{0xFF, 0xFF, 0xFF, 0xFF})
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	// Needs tesseract language data; only logs when the engine is absent.
	if err := NewTesseract(Options{}).Check(); err != nil {
		t.Logf("Tesseract not usable in this environment: %v", err)
	}
}
