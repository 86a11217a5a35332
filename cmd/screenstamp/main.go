package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/screenstamp/internal/scanning"
	"github.com/zombor/screenstamp/internal/screenshot"
	"github.com/zombor/screenstamp/internal/timestamp"
	"github.com/zombor/screenstamp/internal/vision"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const (
	exitOK         = 0
	exitFailure    = 1
	exitEmptyIndex = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// config holds the flags shared by every subcommand
type config struct {
	timezone     *string
	recognizer   *string
	lang         *string
	geminiKey    *string
	geminiModel  *string
	ollamaURL    *string
	ollamaModel  *string
	cachePath    *string
	workers      *int
	selection    *string
	extraFormats *bool
	logLevel     *string
	logFormat    *string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootFlags := ff.NewFlagSet("screenstamp")
	cfg := config{
		timezone:     rootFlags.StringLong("timezone", "America/Toronto", "IANA timezone assumed for timestamps and queries"),
		recognizer:   rootFlags.StringLong("recognizer", "tesseract", "Text recognizer: 'tesseract', 'gemini' or 'ollama'"),
		lang:         rootFlags.StringLong("lang", "eng", "Tesseract language"),
		geminiKey:    rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel:  rootFlags.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name"),
		ollamaURL:    rootFlags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel:  rootFlags.StringLong("ollama-model", "llava", "Ollama vision model name"),
		cachePath:    rootFlags.StringLong("cache", "", "Index cache file path (empty keeps indexes in memory)"),
		workers:      rootFlags.IntLong("workers", 1, "Images processed in parallel"),
		selection:    rootFlags.StringLong("selection", "first", "Per-image selection: 'first' or 'vote'"),
		extraFormats: rootFlags.BoolLong("extra-formats", "Also index .heic, .heif and .pdf files"),
		logLevel:     rootFlags.StringLong("log-level", "info", "Log level: debug, info, warn or error"),
		logFormat:    rootFlags.StringLong("log-format", "text", "Log format: text or json"),
	}

	root := &ff.Command{
		Name:      "screenstamp",
		Usage:     "screenstamp [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "find screenshots by the time shown in them",
		Flags:     rootFlags,
	}

	versionCmd := &ff.Command{
		Name:      "version",
		Usage:     "screenstamp version",
		ShortHelp: "print the version",
		Exec: func(ctx context.Context, args []string) error {
			fmt.Fprintln(stdout, version)
			return nil
		},
	}

	indexFlags := ff.NewFlagSet("index").SetParent(rootFlags)
	var (
		force = indexFlags.BoolLong("force", "Rebuild even when the cached index is current")
		debug = indexFlags.BoolLong("debug", "Print every recognized timestamp")
	)
	indexCmd := &ff.Command{
		Name:      "index",
		Usage:     "screenstamp index [FLAGS] <folder>",
		ShortHelp: "index the screenshots in a folder",
		Flags:     indexFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("index requires exactly one folder")
			}
			return withService(cfg, func(svc *screenshot.Service) error {
				return runIndex(ctx, svc, args[0], *force, *debug, stdout)
			})
		},
	}

	findFlags := ff.NewFlagSet("find").SetParent(rootFlags)
	var (
		date     = findFlags.StringLong("date", "", "Date as YYYY-MM-DD")
		clock    = findFlags.StringLong("time", "", "12-hour time as h:mm")
		meridiem = findFlags.StringLong("meridiem", "", "AM or PM")
		window   = findFlags.StringLong("window", "exact", "'exact' or a tolerance in minutes")
	)
	findCmd := &ff.Command{
		Name:      "find",
		Usage:     "screenstamp find --date YYYY-MM-DD --time h:mm --meridiem AM|PM [--window N] <folder>",
		ShortHelp: "list screenshots taken at or near a time",
		Flags:     findFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("find requires exactly one folder")
			}
			hour, minute, _ := strings.Cut(*clock, ":")
			q, err := screenshot.ParseQuery(*date, hour, minute, *meridiem, *window)
			if err != nil {
				return err
			}
			if err := q.Validate(); err != nil {
				return err
			}
			return withService(cfg, func(svc *screenshot.Service) error {
				return runFind(ctx, svc, args[0], q, stdout)
			})
		},
	}

	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	var (
		port     = serveFlags.IntLong("port", 8080, "HTTP server port")
		authUser = serveFlags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass = serveFlags.StringLong("auth-pass", "", "Basic auth password (optional)")
	)
	serveCmd := &ff.Command{
		Name:      "serve",
		Usage:     "screenstamp serve [FLAGS]",
		ShortHelp: "serve the web interface",
		Flags:     serveFlags,
		Exec: func(ctx context.Context, args []string) error {
			return withService(cfg, func(svc *screenshot.Service) error {
				server := screenshot.NewServer(svc, screenshot.BasicAuth{
					Username: *authUser,
					Password: *authPass,
				})
				addr := fmt.Sprintf(":%d", *port)
				slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "timezone", svc.Location().String())
				if *authUser != "" || *authPass != "" {
					slog.Info("Basic auth enabled", "user", *authUser)
				}
				err := server.Start(ctx, addr)
				slog.Info("Shutting down...")
				return err
			})
		},
	}

	root.Subcommands = []*ff.Command{indexCmd, findCmd, serveCmd, versionCmd}

	if err := root.Parse(args, ff.WithEnvVarPrefix("SCREENSTAMP")); err != nil {
		selected := root.GetSelected()
		if selected == nil {
			selected = root
		}
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected))
		if errors.Is(err, ff.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	if err := setupLogging(*cfg.logLevel, *cfg.logFormat, stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	err := root.Run(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ff.ErrNoExec):
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root))
		return exitFailure
	case errors.Is(err, screenshot.ErrEmptyIndex):
		fmt.Fprintln(stderr, screenshot.ErrEmptyIndex.Error())
		return exitEmptyIndex
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

// withService wires the recognizer, indexer, cache and service, runs fn and
// releases everything afterwards. The recognizer is constructed once here
// and shared by every image.
func withService(cfg config, fn func(*screenshot.Service) error) error {
	loc, err := timestamp.LoadLocation(*cfg.timezone)
	if err != nil {
		return err
	}

	strategy, err := screenshot.StrategyByName(*cfg.selection)
	if err != nil {
		return err
	}

	rec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	var cache screenshot.Cache
	if *cfg.cachePath != "" {
		slog.Info("Opening index cache...", "path", *cfg.cachePath)
		bolt, err := screenshot.NewBoltCache(*cfg.cachePath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer bolt.Close()
		cache = bolt
	}

	extensions := vision.ImageExtensions
	if *cfg.extraFormats {
		extensions = append(append([]string{}, vision.ImageExtensions...), vision.ExtraExtensions...)
	}

	indexer := screenshot.NewIndexer(rec,
		screenshot.WithWorkers(*cfg.workers),
		screenshot.WithStrategy(strategy),
	)
	return fn(screenshot.NewService(indexer, cache, loc, extensions))
}

func newRecognizer(cfg config) (scanning.Recognizer, error) {
	switch *cfg.recognizer {
	case "tesseract":
		slog.Info("Initializing Tesseract recognizer...", "lang", *cfg.lang)
		return scanning.NewTesseract(*cfg.lang)
	case "gemini":
		apiKey := *cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini recognizer...", "model", *cfg.geminiModel)
		return scanning.NewGemini(apiKey, *cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *cfg.ollamaURL, "model", *cfg.ollamaModel)
		return scanning.NewOllama(*cfg.ollamaURL, *cfg.ollamaModel)
	}
	return nil, fmt.Errorf("invalid recognizer %q (valid: tesseract, gemini, ollama)", *cfg.recognizer)
}

func runIndex(ctx context.Context, svc *screenshot.Service, folder string, force, debug bool, w io.Writer) error {
	idx, err := svc.Index(ctx, folder, force)
	if err != nil {
		return err
	}

	if debug {
		for _, r := range idx.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Source, timestamp.FormatMinute(r.Instant), r.Text)
		}
	}
	fmt.Fprintf(w, "indexed %d of %d images in %s (%d unreadable)\n", len(idx.Records), idx.Total, idx.Timezone, idx.Skipped)
	return nil
}

func runFind(ctx context.Context, svc *screenshot.Service, folder string, q screenshot.Query, w io.Writer) error {
	matches, at, err := svc.Find(ctx, folder, q)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "query %s (%s, window %s)\n", timestamp.FormatMinute(at), svc.Location(), q.Window)
	if len(matches) == 0 {
		fmt.Fprintln(w, "no matches found")
		return nil
	}
	for _, r := range matches {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Source, timestamp.FormatMinute(r.Instant), r.Text)
	}
	return nil
}

func setupLogging(level, format string, w io.Writer) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json)", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
