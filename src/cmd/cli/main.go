package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-translator/src/config"
	"screen-translator/src/logutil"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/translate"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath    string
	jsonOutput  bool
	noTranslate bool
	verbose     bool
	envPath     string
	backend     string
	apiKeyPath  string
}

type extractor interface {
	ExtractBytes(ctx context.Context, data []byte) (string, error)
}

type translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"translate-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "translate-tool",
		Short:         "OCR a PNG image and translate the text",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.noTranslate, "no-translate", false, "Print the extracted text only")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to a .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Translation backend: google or llm")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(ctx context.Context, opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting translate tool\n")
	}

	imageData, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}
	if err := validatePNG(imageData); err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Read %d bytes, PNG validation passed\n", len(imageData))
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvPathOverride:    opts.envPath,
			BackendOverride:    opts.backend,
			APIKeyPathOverride: opts.apiKeyPath,
		},
		SkipTranslator: opts.noTranslate,
		SetupLogging: func(enableFile bool) {
			if enableFile {
				var fallback io.Writer
				if opts.verbose {
					fallback = os.Stderr
				}
				logutil.Setup(true, fallback)
			}
		},
	})
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Effective API key path: %s\n", rt.Config.APIKeyPath)
	}

	var tr translator
	if !opts.noTranslate {
		tr = rt.Translator
	}
	res, err := process(ctx, imageData, opts.filePath, rt.OCR, tr, opts.verbose)
	if err != nil {
		return err
	}
	return outputResult(stdout, res, opts.jsonOutput)
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return errors.New("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// Result is the JSON shape printed with --json.
type Result struct {
	Text        string  `json:"text"`
	Translation string  `json:"translation,omitempty"`
	Source      string  `json:"source"`
	Timestamp   string  `json:"timestamp"`
	Duration    float64 `json:"duration_seconds"`
	CharCount   int     `json:"character_count"`
}

// process extracts text and, when tr is non-nil, translates it.
func process(ctx context.Context, data []byte, source string, ex extractor, tr translator, verbose bool) (Result, error) {
	start := time.Now()
	text, err := ex.ExtractBytes(ctx, data)
	if err != nil {
		return Result{}, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR extracted %d characters in %v\n", len([]rune(text)), time.Since(start))
	}

	res := Result{
		Text:      text,
		Source:    source,
		CharCount: len([]rune(text)),
	}
	if tr != nil {
		res.Translation, err = tr.Translate(ctx, text)
		if errors.Is(err, translate.ErrNoText) {
			res.Translation = ""
		} else if err != nil {
			return Result{}, err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[verbose] Translation: %d characters\n", len([]rune(res.Translation)))
		}
	}
	res.Duration = time.Since(start).Seconds()
	res.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return res, nil
}

func outputResult(w io.Writer, res Result, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}

	out := res.Text
	if res.Translation != "" {
		out = res.Translation
	}
	fmt.Fprint(w, out)
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "no-translate", "verbose", "env", "backend", "api-key-path"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
