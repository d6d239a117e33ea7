package translate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrNoText is returned when there is nothing left to translate after cleaning.
var ErrNoText = errors.New("no text to translate")

// Backend performs a single translation request.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslationError reports a failed translation. The UI keeps whatever it
// displayed before.
type TranslationError struct {
	Backend string
	Err     error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation via %s failed: %v", e.Backend, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// CleanInput turns OCR output into a single line: carriage returns are
// dropped, newlines become spaces and surrounding whitespace is trimmed.
func CleanInput(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}

// Service cleans input and forwards it to a Backend with fixed languages.
type Service struct {
	backend Backend
	source  string
	target  string
	timeout time.Duration
}

func NewService(backend Backend, source, target string, timeout time.Duration) *Service {
	return &Service{backend: backend, source: source, target: target, timeout: timeout}
}

func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	cleaned := CleanInput(text)
	if cleaned == "" {
		return "", &TranslationError{Backend: s.backend.Name(), Err: ErrNoText}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.backend.Translate(ctx, cleaned, s.source, s.target)
	if err != nil {
		return "", &TranslationError{Backend: s.backend.Name(), Err: err}
	}
	log.Printf("Translate: %s %s->%s, %d -> %d chars in %v", s.backend.Name(), s.source, s.target, len(cleaned), len(out), time.Since(start))
	return out, nil
}
