package pipeline

import (
	"context"
	"errors"
	"image"
	"log"
	"time"

	"screen-translator/src/logutil"
	"screen-translator/src/overlay"
	"screen-translator/src/screenshot"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

type Capturer interface {
	Capture(region screenshot.Region) (image.Image, error)
}

type Extractor interface {
	Extract(ctx context.Context, img image.Image) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Pipeline runs select → capture → extract → translate, strictly in order.
type Pipeline struct {
	Selector   overlay.Selector
	Capturer   Capturer
	Extractor  Extractor
	Translator Translator
}

type Result struct {
	Region     screenshot.Region
	Original   string
	Translated string
}

// Run performs one capture. On a translation failure the returned Result
// still carries the extracted text; callers decide whether to show it.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if p.Selector == nil || p.Capturer == nil || p.Extractor == nil || p.Translator == nil {
		return Result{}, errors.New("pipeline is not fully configured")
	}
	start := time.Now()

	region, cancelled, err := p.Selector.Select(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, &screenshot.CaptureError{Region: region, Err: err}
	}
	if cancelled {
		return Result{}, ErrSelectionCancelled
	}
	log.Printf("Pipeline: region selected %v", region)

	img, err := p.Capturer.Capture(region)
	if err != nil {
		return Result{Region: region}, err
	}

	text, err := p.Extractor.Extract(ctx, img)
	if err != nil {
		return Result{Region: region}, err
	}
	log.Printf("Pipeline: extracted %d chars: %q", len(text), logutil.SanitizeForLogging(text))

	res := Result{Region: region, Original: text}
	translated, err := p.Translator.Translate(ctx, text)
	if err != nil {
		return res, err
	}
	res.Translated = translated
	log.Printf("Pipeline: completed in %v", time.Since(start))
	return res, nil
}

// TranslateText re-translates text the user edited by hand.
func (p *Pipeline) TranslateText(ctx context.Context, text string) (string, error) {
	return p.Translator.Translate(ctx, text)
}
