package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/use-agent/charscrape/api"
	"github.com/use-agent/charscrape/api/handler"
	"github.com/use-agent/charscrape/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program. Services left nil are wired from Config
// when Run is called; tests set them to fakes.
type Main struct {
	Config *config.Config

	Scraper   api.Scraper
	Prober    handler.Prober
	Generator handler.Generator
}

// NewMain returns a Main configured from the environment.
func NewMain() *Main {
	return &Main{Config: config.Load()}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Config: m.Config,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("charscrape"),
		kong.Description("Scrape character pages and turn them into character cards."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'charscrape --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the scraped document.
	initLogger(m.Config.Log, stderr)

	deps.Scraper = m.Scraper
	if deps.Scraper == nil {
		deps.Scraper = newService(m.Config)
	}
	deps.Prober = m.Prober
	if deps.Prober == nil {
		deps.Prober = newProber(m.Config.Fetch)
	}
	deps.Generator = m.Generator
	if deps.Generator == nil {
		gen, err := newGenerator(m.Config.LLM)
		if err != nil {
			deps.GeneratorErr = err
		} else {
			deps.Generator = gen
		}
	}

	return kongCtx.Run(deps)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
