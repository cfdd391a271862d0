package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"rs225server/internal/config"
	"rs225server/internal/engine"
)

const ConfigPath = "config/server.yaml"

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run coordinates the two process-level goroutines — the OS signal wait and
// the engine's own loop — with an errgroup so that either one exiting (a
// signal, or the engine returning an error) cancels the other. The
// simulation tick loop inside engine.Run stays single-threaded; errgroup
// only owns process lifecycle, never simulation state.
func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("RS225_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("rs225 server starting", "log_level", cfg.LogLevel)

	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	e, err := engine.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	slog.Info("listening", "address", e.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return waitForSignal(gctx)
	})
	g.Go(func() error {
		return e.Run(gctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// waitForSignal blocks until SIGINT/SIGTERM or ctx is cancelled by the other
// errgroup member, returning context.Canceled in the latter case so g.Wait
// doesn't treat the engine's own clean exit as a failure.
func waitForSignal(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
		return context.Canceled
	case <-ctx.Done():
		return context.Canceled
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
