package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/kbinani/screenshot"
	"github.com/spf13/cobra"

	"screen-translator/src/clipboard"
	"screen-translator/src/config"
	"screen-translator/src/logutil"
	"screen-translator/src/overlay"
	"screen-translator/src/pipeline"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/ui"
	"screen-translator/src/worker"
)

const appID = "io.github.screen-translator"

type mainOptions struct {
	envPath    string
	notesDir   string
	backend    string
	apiKeyPath string
	verbose    bool
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		EnvPathOverride:    o.envPath,
		NotesDirOverride:   o.notesDir,
		BackendOverride:    o.backend,
		APIKeyPathOverride: o.apiKeyPath,
	}
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-translator"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-translator",
		Short:         "Select a screen region, OCR it and translate the text",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateBackend(opts.backend)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to a .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.notesDir, "notes-dir", "", "Directory holding saved notes")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Translation backend: google or llm")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	return cmd
}

func validateBackend(backend string) error {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", config.BackendGoogle, config.BackendLLM, "openai", "openrouter":
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", backend, config.BackendGoogle, config.BackendLLM)
	}
}

// normalizeLegacyArgs maps single-dash long flags (-notes-dir) to the
// double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"env", "notes-dir", "backend", "api-key-path", "verbose"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

func runGUI(opts mainOptions) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  opts.loadOptions(),
		SetupLogging: func(enableFile bool) { setupLogging(enableFile, opts.verbose) },
		OpenNotes:    true,
	})
	if err != nil {
		return err
	}

	copyText := clipboard.Write
	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, Copy disabled: %v", err)
		copyText = nil
	}

	logDisplays()

	pool := worker.New(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyneApp := app.NewWithID(appID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case s := <-sig:
			log.Printf("Received %v, quitting", s)
			cancel()
			fyne.Do(fyneApp.Quit)
		case <-ctx.Done():
		}
	}()

	shell := ui.New(fyneApp, ui.Options{
		Store: rt.Notes,
		Pipeline: &pipeline.Pipeline{
			Selector:   overlay.NewSelector(fyneApp),
			Capturer:   rt.Capturer,
			Extractor:  rt.OCR,
			Translator: rt.Translator,
		},
		Pool:     pool,
		CopyText: copyText,
	})

	log.Printf("Screen Translator initialized")
	log.Printf("Hotkey: %s", rt.Config.Hotkey)
	log.Printf("Notes directory: %s", rt.Notes.Dir())

	shell.Run(ctx, rt.Config.Hotkey, rt.Config.WatchNotes)
	log.Printf("Main window closed, exiting")
	return nil
}

func setupLogging(enableFileLogging, verbose bool) {
	var fallback io.Writer
	if verbose {
		fallback = os.Stderr
	}
	logutil.Setup(enableFileLogging, fallback)
}

// logDisplays records the monitor layout; region coordinates are virtual
// desktop coordinates spanning all of them.
func logDisplays() {
	n := screenshot.NumActiveDisplays()
	log.Printf("Active displays: %d", n)
	for i := 0; i < n; i++ {
		log.Printf("  Display %d: %v", i, screenshot.GetDisplayBounds(i))
	}
}
