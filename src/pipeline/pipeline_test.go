package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"screen-translator/src/ocr"
	"screen-translator/src/overlay"
	"screen-translator/src/screenshot"
	"screen-translator/src/translate"
)

type fakeSelector struct {
	region    screenshot.Region
	cancelled bool
	err       error
}

func (f fakeSelector) Select(context.Context) (screenshot.Region, bool, error) {
	return f.region, f.cancelled, f.err
}

type fakeCapturer struct {
	got   screenshot.Region
	calls int
	err   error
}

func (f *fakeCapturer) Capture(region screenshot.Region) (image.Image, error) {
	f.calls++
	f.got = region
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(region.Bounds())
	img.Set(region.X0, region.Y0, color.Black)
	return img, nil
}

type fixedExtractor struct {
	text string
	err  error
}

func (f fixedExtractor) Extract(context.Context, image.Image) (string, error) {
	return f.text, f.err
}

type dictBackend map[string]string

func (d dictBackend) Name() string { return "dict" }

func (d dictBackend) Translate(_ context.Context, text, _, _ string) (string, error) {
	out, ok := d[text]
	if !ok {
		return "", errors.New("unknown phrase")
	}
	return out, nil
}

func newPipeline(sel overlay.Selector, capt *fakeCapturer, ext Extractor) *Pipeline {
	return &Pipeline{
		Selector:   sel,
		Capturer:   capt,
		Extractor:  ext,
		Translator: translate.NewService(dictBackend{"OK": "了解"}, "en", "ja", 0),
	}
}

func TestRunEndToEnd(t *testing.T) {
	region := screenshot.Region{X0: 10, Y0: 10, X1: 90, Y1: 40}
	capt := &fakeCapturer{}
	p := newPipeline(fakeSelector{region: region}, capt, fixedExtractor{text: "OK\n"})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if capt.got != region {
		t.Errorf("captured %v, want %v", capt.got, region)
	}
	if res.Original != "OK\n" {
		t.Errorf("Original = %q, want raw OCR text", res.Original)
	}
	if res.Translated != "了解" {
		t.Errorf("Translated = %q, want 了解", res.Translated)
	}
}

func TestRunCancelledSelection(t *testing.T) {
	capt := &fakeCapturer{}
	p := newPipeline(fakeSelector{cancelled: true}, capt, fixedExtractor{text: "OK"})

	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got %v", err)
	}
	if capt.calls != 0 {
		t.Error("capturer must not run after a cancelled selection")
	}
}

func TestRunTinySelectionIsCaptureError(t *testing.T) {
	p := newPipeline(fakeSelector{err: overlay.ErrEmptySelection}, &fakeCapturer{}, fixedExtractor{text: "OK"})

	_, err := p.Run(context.Background())
	var capErr *screenshot.CaptureError
	if !errors.As(err, &capErr) || !errors.Is(err, overlay.ErrEmptySelection) {
		t.Fatalf("expected CaptureError wrapping ErrEmptySelection, got %v", err)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	region := screenshot.Region{X0: 0, Y0: 0, X1: 10, Y1: 10}

	t.Run("capture", func(t *testing.T) {
		capErr := &screenshot.CaptureError{Region: region, Err: errors.New("denied")}
		p := newPipeline(fakeSelector{region: region}, &fakeCapturer{err: capErr}, fixedExtractor{text: "OK"})
		_, err := p.Run(context.Background())
		var target *screenshot.CaptureError
		if !errors.As(err, &target) {
			t.Fatalf("expected CaptureError, got %v", err)
		}
	})

	t.Run("extract", func(t *testing.T) {
		extErr := &ocr.ExtractionError{Err: errors.New("no engine")}
		p := newPipeline(fakeSelector{region: region}, &fakeCapturer{}, fixedExtractor{err: extErr})
		_, err := p.Run(context.Background())
		var target *ocr.ExtractionError
		if !errors.As(err, &target) {
			t.Fatalf("expected ExtractionError, got %v", err)
		}
	})

	t.Run("translate", func(t *testing.T) {
		p := newPipeline(fakeSelector{region: region}, &fakeCapturer{}, fixedExtractor{text: "Unknown"})
		res, err := p.Run(context.Background())
		var target *translate.TranslationError
		if !errors.As(err, &target) {
			t.Fatalf("expected TranslationError, got %v", err)
		}
		if res.Original != "Unknown" || res.Translated != "" {
			t.Errorf("partial result = %+v", res)
		}
	})
}

func TestTranslateText(t *testing.T) {
	p := newPipeline(fakeSelector{}, &fakeCapturer{}, fixedExtractor{})
	out, err := p.TranslateText(context.Background(), " OK \r\n")
	if err != nil || out != "了解" {
		t.Fatalf("TranslateText = %q, %v", out, err)
	}
}

func TestRunRequiresAllStages(t *testing.T) {
	if _, err := (&Pipeline{}).Run(context.Background()); err == nil {
		t.Fatal("expected error from unconfigured pipeline")
	}
}
