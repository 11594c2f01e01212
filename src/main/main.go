package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"circle-search/src/clipboard"
	"circle-search/src/config"
	"circle-search/src/engine"
	"circle-search/src/eventloop"
	"circle-search/src/hotkey"
	"circle-search/src/logutil"
	"circle-search/src/overlay"
	"circle-search/src/panel"
	"circle-search/src/recognize"
	"circle-search/src/search"
	"circle-search/src/tray"
)

type cliOptions struct {
	hotkey        string
	cancelHotkey  string
	minConfidence float64
	searchEngine  string
	apiKeyPath    string
	once          bool
	verbose       bool
}

func main() {
	if err := runWithArgs(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"circle-search"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "circle-search",
		Short:         "Select any region of the screen and search it",
		Long:          "Resident desktop tool: press the capture hotkey, drag a rectangle, and the recognized text is copied to the clipboard and searched in your browser. Non-text regions go to reverse image search.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Capture key combination (default Ctrl+Shift+Space)")
	cmd.Flags().StringVar(&opts.cancelHotkey, "cancel-hotkey", "", "Cancel-current key combination (default Ctrl+Shift+Escape)")
	cmd.Flags().Float64Var(&opts.minConfidence, "min-confidence", 0, "Minimum per-line recognition confidence (default 0.30)")
	cmd.Flags().StringVar(&opts.searchEngine, "search-engine", "", "Text search engine: google or bing")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single capture cycle and exit")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Also log to stderr")

	return cmd
}

func runWithOptions(opts cliOptions) error {
	// DPI awareness must be set before any window or metrics call.
	enableDPIAwareness()

	// Keep the main goroutine on its own OS thread so it never shares a
	// message queue with the panel thread.
	runtime.LockOSThread()

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		APIKeyPathOverride:    opts.apiKeyPath,
		CaptureHotkeyOverride: opts.hotkey,
		CancelHotkeyOverride:  opts.cancelHotkey,
		MinConfidenceOverride: opts.minConfidence,
		SearchEngineOverride:  opts.searchEngine,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.verbose {
		logutil.SetupVerbose(cfg.EnableFileLogging)
	} else {
		logutil.Setup(cfg.EnableFileLogging)
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required; set it in your .env file")
	}
	if cfg.Model == "" {
		return fmt.Errorf("MODEL is required; set it in your .env file")
	}

	client, err := engine.NewVisionClient(engine.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Providers: cfg.Providers,
	})
	if err != nil {
		return fmt.Errorf("failed to configure recognition engine: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 15*time.Second)
	err = client.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("recognition engine unavailable (key %s): %w", logutil.RedactKey(cfg.APIKey), err)
	}
	log.Printf("Engine ping succeeded, model %s", cfg.Model)

	writeClip := clipboard.Write
	if err := clipboard.Init(); err != nil {
		// Dispatch still works without a clipboard; the router reports it.
		log.Printf("Clipboard unavailable: %v", err)
		writeClip = func(string) error {
			return fmt.Errorf("clipboard not initialized")
		}
	}

	coordinator := recognize.New(client, recognize.Options{
		MinConfidence: cfg.MinConfidence,
		Deadline:      time.Duration(cfg.OCRDeadlineSec) * time.Second,
	})
	defer coordinator.Close()

	display := panel.New()
	router := search.NewRouter(search.Config{
		Engine:    cfg.SearchEngine,
		WriteClip: writeClip,
		Opener:    search.NewOpener(),
		Uploader:  search.NewHTTPUploader(cfg.ImageSearchEndpoint),
		Display:   display,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defaultTooltip := fmt.Sprintf("Circle Search - press %s to capture", cfg.CaptureHotkey)
	var trayIcon *tray.Tray
	loop := eventloop.New(eventloop.Config{
		Selector:    overlay.NewSelector(),
		Coordinator: coordinator,
		Router:      router,
		Tooltip: func(text string) {
			if trayIcon != nil {
				trayIcon.UpdateTooltip(text)
			}
		},
		DefaultTooltip: defaultTooltip,
		BusyTooltip:    "Circle Search: working...",
	})

	log.Printf("Circle Search initialized")
	log.Printf("Model: %s", cfg.Model)
	log.Printf("Capture hotkey: %s, cancel hotkey: %s", cfg.CaptureHotkey, cfg.CancelHotkey)
	log.Printf("Search engine: %s, min confidence: %.2f, deadline: %ds",
		cfg.SearchEngine, cfg.MinConfidence, cfg.OCRDeadlineSec)

	if opts.once {
		return loop.RunOnce(ctx)
	}

	trayIcon, _ = tray.New(tray.Config{
		Title:   "Circle Search",
		Tooltip: defaultTooltip,
		AboutText: fmt.Sprintf("Circle Search\n\nCapture: %s\nCancel: %s\nModel: %s",
			cfg.CaptureHotkey, cfg.CancelHotkey, cfg.Model),
		OnCapture: loop.Trigger,
		OnExit:    cancel,
	})
	go trayIcon.Run()
	defer trayIcon.Destroy()

	listener, err := hotkey.Listen([]hotkey.Binding{
		{Combo: cfg.CaptureHotkey, OnTrigger: loop.Trigger},
		{Combo: cfg.CancelHotkey, OnTrigger: loop.CancelCurrent},
	})
	if err != nil {
		// The tray's capture menu item still works without a hotkey.
		log.Printf("Hotkey registration failed: %v", err)
		display.ShowStatus(fmt.Sprintf("Hotkey unavailable: %v", err))
	} else {
		defer listener.Stop()
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
