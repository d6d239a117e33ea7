package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvPathEnvVar     = "SCREEN_TRANSLATOR_ENV"

	BackendGoogle = "google"
	BackendLLM    = "llm"

	DefaultLLMBaseURL = "https://openrouter.ai/api/v1"
)

// LoadOptions carries command-line overrides. Non-empty fields win over
// both the .env file and the process environment.
type LoadOptions struct {
	EnvPathOverride    string
	NotesDirOverride   string
	BackendOverride    string
	APIKeyPathOverride string
}

type Config struct {
	NotesDir       string
	ScreenshotPath string
	WatchNotes     bool

	OCRLanguage     string
	OCRUpscaleBelow int
	TessdataPrefix  string

	Backend             string
	SourceLang          string
	TargetLang          string
	TranslateTimeoutSec int

	LLMBaseURL string
	Model      string
	APIKey     string
	APIKeyPath string

	Hotkey            string
	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) explicit --env path
	// 2) .env in the application (executable) directory
	// 3) SCREEN_TRANSLATOR_ENV as a path to a config file
	envPath := resolveEnvPath(opts.EnvPathOverride)
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		NotesDir:       override(opts.NotesDirOverride, getEnvWithDefault("NOTES_DIR", "notes")),
		ScreenshotPath: getEnvWithDefault("SCREENSHOT_PATH", "screenshot.png"),
		WatchNotes:     strings.ToLower(os.Getenv("WATCH_NOTES")) == "true",

		OCRLanguage:     getEnvWithDefault("OCR_LANGUAGE", "eng"),
		OCRUpscaleBelow: getPositiveInt("OCR_UPSCALE_BELOW", 40),
		TessdataPrefix:  os.Getenv("TESSDATA_PREFIX"),

		Backend:             resolveBackend(override(opts.BackendOverride, os.Getenv("TRANSLATOR"))),
		SourceLang:          getEnvWithDefault("SOURCE_LANG", "en"),
		TargetLang:          getEnvWithDefault("TARGET_LANG", "ja"),
		TranslateTimeoutSec: getPositiveInt("TRANSLATE_TIMEOUT_SEC", 15),

		LLMBaseURL: getEnvWithDefault("LLM_BASE_URL", DefaultLLMBaseURL),
		Model:      os.Getenv("MODEL"),
		APIKey:     resolveAPIKey(apiKeyPath),
		APIKeyPath: apiKeyPath,

		Hotkey:            getEnvWithDefault("HOTKEY", "Ctrl+Shift+T"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func resolveBackend(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case BackendLLM, "openai", "openrouter":
		return BackendLLM
	default:
		return BackendGoogle
	}
}

func override(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
