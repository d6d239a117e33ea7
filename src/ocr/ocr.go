package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log"
	"strings"

	"github.com/nfnt/resize"
	"github.com/otiai10/gosseract"
)

const maxUpscale = 4

// ExtractionError reports an OCR failure: an unreadable image or a
// missing or broken Tesseract installation.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "text extraction failed: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

type Options struct {
	// Languages passed to Tesseract; defaults to English.
	Languages []string
	// UpscaleBelow enlarges images shorter than this many pixels before OCR.
	// Tesseract loses accuracy on small glyphs. Zero disables upscaling.
	UpscaleBelow int
}

// Tesseract extracts text with libtesseract through gosseract. A new
// client is created per call; captures are rare and small.
type Tesseract struct {
	languages    []string
	upscaleBelow int
}

func NewTesseract(opts Options) *Tesseract {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{languages: langs, upscaleBelow: opts.UpscaleBelow}
}

// ParseLanguages splits a Tesseract language string such as "eng+jpn".
func ParseLanguages(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, "+") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}

// Extract returns the raw text Tesseract finds in img.
func (t *Tesseract) Extract(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &ExtractionError{Err: err}
	}
	if img == nil || img.Bounds().Empty() {
		return "", &ExtractionError{Err: fmt.Errorf("empty image")}
	}

	prepared := Prepare(img, t.upscaleBelow)
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("failed to encode image as PNG: %w", err)}
	}

	text, err := t.recognize(buf.Bytes())
	if err != nil {
		return "", &ExtractionError{Err: err}
	}
	log.Printf("OCR: %dx%d image -> %d chars", prepared.Bounds().Dx(), prepared.Bounds().Dy(), len(text))
	return text, nil
}

// ExtractBytes decodes a PNG or JPEG image and runs OCR over it.
func (t *Tesseract) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{Err: fmt.Errorf("unreadable image: %w", err)}
	}
	return t.Extract(ctx, img)
}

func (t *Tesseract) recognize(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set OCR language %v: %w", t.languages, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	return client.Text()
}

// Check probes the Tesseract installation with a blank image so that a
// missing engine or language pack is reported at startup.
func (t *Tesseract) Check() error {
	probe := image.NewRGBA(image.Rect(0, 0, 64, 32))
	draw.Draw(probe, probe.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, probe); err != nil {
		return err
	}
	if _, err := t.recognize(buf.Bytes()); err != nil {
		return fmt.Errorf("tesseract %s with languages %v is not usable: %w", gosseract.Version(), t.languages, err)
	}
	log.Printf("Tesseract %s ready (languages: %v)", gosseract.Version(), t.languages)
	return nil
}

// Prepare upscales img when its height is below minHeight. The factor is
// the smallest integer that reaches minHeight, capped at maxUpscale.
func Prepare(img image.Image, minHeight int) image.Image {
	h := img.Bounds().Dy()
	if minHeight <= 0 || h <= 0 || h >= minHeight {
		return img
	}
	factor := (minHeight + h - 1) / h
	if factor > maxUpscale {
		factor = maxUpscale
	}
	w := img.Bounds().Dx()
	return resize.Resize(uint(w*factor), uint(h*factor), img, resize.Lanczos3)
}
