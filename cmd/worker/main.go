package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/castaway-league/internal/app"
	"github.com/riskibarqy/castaway-league/internal/config"
	"github.com/riskibarqy/castaway-league/internal/interfaces/scheduler"
	"github.com/riskibarqy/castaway-league/internal/observability"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	jobs, err := scheduler.New(ctx, scheduler.Config{
		AutoDraftSpec: cfg.AutoDraftSpec,
		WaiverSpec:    cfg.WaiverSpec,
		JobTimeout:    cfg.JobTimeout,
	}, engine.Services.Draft, engine.Services.Waiver, logger)
	if err != nil {
		logger.Error("build scheduler", "error", err)
		os.Exit(1)
	}
	jobs.Start()

	<-ctx.Done()
	logger.Info("shutdown requested")

	jobs.Stop()
	if err := engine.Close(); err != nil {
		logger.Error("close app", "error", err)
	}
	if err := pprofServer.Stop(cfg.ShutdownPeriod); err != nil {
		logger.Error("stop pprof", "error", err)
	}
	if err := stopProfiler(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error("flush traces", "error", err)
	}
	logger.Info("worker stopped")
}
