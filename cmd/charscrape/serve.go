package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/charscrape/api"
	"github.com/use-agent/charscrape/cache"
)

// Run executes the serve command. It blocks until the context is
// cancelled, then drains in-flight requests.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	slog.Info("charscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"max_batches", cfg.Server.MaxConcurrentBatches,
	)
	if deps.Generator == nil {
		slog.Warn("profile generation disabled", "error", deps.GeneratorErr)
	}

	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Close()

	router := api.NewRouter(api.Deps{
		Service:   deps.Scraper,
		Prober:    deps.Prober,
		Generator: deps.Generator,
		Cache:     cc,
	}, cfg, time.Now())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("HTTP server: %w", err)
	case <-deps.Ctx.Done():
		slog.Info("shutdown signal received")
	}

	// In-flight batches get 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("charscrape stopped")
	return nil
}
