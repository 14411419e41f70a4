package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/stepwise/internal/api"
	"github.com/dgallion1/stepwise/internal/cache"
	"github.com/dgallion1/stepwise/internal/config"
	"github.com/dgallion1/stepwise/internal/llm"
	"github.com/dgallion1/stepwise/internal/metrics"
	"github.com/dgallion1/stepwise/internal/pathstore"
	"github.com/dgallion1/stepwise/internal/pipeline"
	"github.com/dgallion1/stepwise/internal/prompt"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	gen, err := llm.New(cfg)
	if err != nil {
		log.Error("invalid model backend", "error", err)
		os.Exit(1)
	}

	prompts, err := prompt.Load(cfg.PromptsFile)
	if err != nil {
		log.Error("failed to load prompts", "path", cfg.PromptsFile, "error", err)
		os.Exit(1)
	}

	var rc *cache.Cache
	if cfg.RedisAddr != "" {
		rc, err = cache.New(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			log.Warn("response cache disabled", "addr", cfg.RedisAddr, "error", err)
			rc = nil
		}
	}

	var ps *pathstore.Client
	var history *pathstore.History
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		history = pathstore.NewHistory(ps)
	}

	m := metrics.New()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, pipeline.Deps{
		Generator: gen,
		Prompts:   prompts,
		Cache:     rc,
		History:   history,
		Metrics:   m,
		Stats:     llm.NewStats(time.Hour),
		MaxTokens: cfg.MaxOutputTokens,
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		if c, ok := gen.(*llm.AnthropicClient); ok {
			c.Close()
		}
		if ps != nil {
			ps.Close()
		}
		rc.Close()
	}()

	log.Info("starting stepwise",
		"port", cfg.Port,
		"provider", gen.Name(),
		"model", gen.Model(),
		"cache", rc != nil,
		"history", history != nil,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	log.Info("stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
