package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/factcomb/app/api"
	"github.com/lysyi3m/factcomb/app/cfg"
	"github.com/lysyi3m/factcomb/app/database"
	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/export"
	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/pipeline"
	"github.com/lysyi3m/factcomb/app/source"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if config == nil {
		return
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting factcomb", "version", config.Version, "command", config.Command, "timezone", config.Location.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch config.Command {
	case cfg.CommandRun:
		err = run(ctx, config)
	case cfg.CommandConsolidate:
		err = consolidate(config)
	case cfg.CommandServe:
		err = serve(ctx, config)
	default:
		err = fmt.Errorf("unknown command: %s", config.Command)
	}

	if err != nil {
		slog.Error("Command failed", "command", config.Command, "error", err)
		os.Exit(1)
	}
}

func loadSources(dir string) (*source.Registry, error) {
	registry := source.NewRegistry(dir)
	if err := registry.Run(); err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	slog.Info("Sources loaded", "dir", dir, "count", registry.Count())
	return registry, nil
}

func openLedger(path string) *database.DB {
	if path == "" {
		return nil
	}
	db, err := database.NewConnection(path)
	if err != nil {
		slog.Warn("Ledger unavailable, continuing without it", "path", path, "error", err)
		return nil
	}
	return db
}

func run(ctx context.Context, config *cfg.Cfg) error {
	registry, err := loadSources(config.SourcesDir)
	if err != nil {
		return err
	}

	client := fetch.NewClient(fetch.Options{
		UserAgent:     config.UserAgent,
		Timeout:       config.Timeout,
		Retry:         fetch.NewRetryPolicy(config.Retries),
		HostInterval:  config.HostInterval,
		RespectRobots: config.RespectRobots,
	})

	p := pipeline.New(client, registry.Enabled(), pipeline.Options{
		OutDir:       config.OutDir,
		Location:     config.Location,
		Pages:        config.Pages,
		MaxPerSource: config.MaxPerSource,
		LookbackDays: config.LookbackDays,
		Concurrency:  config.Concurrency,
		BatchSize:    config.BatchSize,
		TargetTotal:  config.TargetTotal,
		Ratios:       config.Ratios,
		Seed:         config.Seed,
		Shuffle:      config.Shuffle,
		Collect: dataset.CollectOptions{
			MinTitle:    config.MinTitle,
			MinBody:     config.MinBody,
			RequireDate: config.RequireDate,
		},
	})

	if db := openLedger(config.Ledger); db != nil {
		defer db.Close()
		p.WithLedger(database.NewRunRepository(db), database.NewFetchRepository(db))
	}

	_, err = p.Run(ctx)
	return err
}

func consolidate(config *cfg.Cfg) error {
	out := config.ConsolidateOut
	if out == "" {
		out = filepath.Join(config.OutDir, "consolidated.csv")
	}

	_, err := export.Consolidate(config.OutDir, out, config.Clean)
	return err
}

func serve(ctx context.Context, config *cfg.Cfg) error {
	registry, err := loadSources(config.SourcesDir)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(config.Ledger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer db.Close()

	handler := api.NewHandler(registry, database.NewRunRepository(db), database.NewFetchRepository(db), config.OutDir)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler, config.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	slog.Info("HTTP server stopped")
	return nil
}
