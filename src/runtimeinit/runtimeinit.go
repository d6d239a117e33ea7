package runtimeinit

import (
	"fmt"
	"log"
	"os"
	"time"

	"screen-translator/src/config"
	"screen-translator/src/logutil"
	"screen-translator/src/notes"
	"screen-translator/src/ocr"
	"screen-translator/src/screenshot"
	"screen-translator/src/translate"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// OpenNotes is false for tools that only run the OCR and translate steps.
	OpenNotes bool
	// SkipTranslator leaves Runtime.Translator nil, for OCR-only runs.
	SkipTranslator bool
}

// Runtime holds the components shared by the GUI and the CLI.
type Runtime struct {
	Config     *config.Config
	Capturer   *screenshot.Capturer
	OCR        *ocr.Tesseract
	Translator *translate.Service // nil with SkipTranslator
	Notes      *notes.Store
}

// Bootstrap loads configuration and builds every component. Any error is
// fatal to startup.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if cfg.TessdataPrefix != "" {
		if err := os.Setenv("TESSDATA_PREFIX", cfg.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set TESSDATA_PREFIX: %w", err)
		}
	}

	var translator *translate.Service
	if !opts.SkipTranslator {
		backend, err := NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.TranslateTimeoutSec) * time.Second
		translator = translate.NewService(backend, cfg.SourceLang, cfg.TargetLang, timeout)
		log.Printf("Translator: %s (%s -> %s)", backend.Name(), cfg.SourceLang, cfg.TargetLang)
	}

	engine := ocr.NewTesseract(ocr.Options{
		Languages:    ocr.ParseLanguages(cfg.OCRLanguage),
		UpscaleBelow: cfg.OCRUpscaleBelow,
	})
	if err := engine.Check(); err != nil {
		return nil, fmt.Errorf("OCR engine unavailable: %w", err)
	}
	log.Printf("OCR engine ready (languages: %s)", cfg.OCRLanguage)

	rt := &Runtime{
		Config:     cfg,
		Capturer:   screenshot.NewCapturer(cfg.ScreenshotPath),
		OCR:        engine,
		Translator: translator,
	}

	if opts.OpenNotes {
		store, err := notes.Open(cfg.NotesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open notes directory %s: %w", cfg.NotesDir, err)
		}
		log.Printf("Loaded %d notes from %s", store.Len(), store.Dir())
		rt.Notes = store
	}

	return rt, nil
}

// NewBackend builds the translation backend selected by cfg.Backend.
func NewBackend(cfg *config.Config) (translate.Backend, error) {
	switch cfg.Backend {
	case config.BackendLLM:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required for the llm translator. Checked key file %s and OPENROUTER_API_KEY env var", cfg.APIKeyPath)
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("MODEL is required for the llm translator. Please set it in your .env file")
		}
		log.Printf("LLM translator: model=%s base=%s key=%s", cfg.Model, cfg.LLMBaseURL, logutil.RedactKey(cfg.APIKey))
		return translate.NewLLM(translate.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.Model,
		})
	default:
		return translate.NewGoogle(), nil
	}
}
