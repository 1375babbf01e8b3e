package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picksheet/pkg/config"
	"picksheet/pkg/handlers"
	"picksheet/pkg/history"
	"picksheet/pkg/logger"
	"picksheet/pkg/metrics"
	"picksheet/pkg/notifier"
	"picksheet/pkg/scheduler"
	"picksheet/pkg/server"
	"picksheet/pkg/tasks"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "config file path (json or yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logger.InitLogger(cfg.App.IsDevelopment(), cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close history store", zap.Error(err))
		}
	}()

	opts := []tasks.Option{tasks.WithRecorder(store)}
	if cfg.Metrics.Enabled {
		opts = append(opts, tasks.WithMetrics(metrics.NewPipelineMetrics(server.MetricsNamespace, prometheus.DefaultRegisterer)))
	}
	manager, err := tasks.NewManager(cfg, opts...)
	if err != nil {
		return err
	}

	handlerSvc := handlers.NewHandlerService(cfg, manager, store)

	taskScheduler, err := scheduler.NewTaskScheduler(ctx, cfg, manager)
	if err != nil {
		return err
	}
	if n := notifier.FromConfig(cfg); n != nil {
		logger.Info("Scan notifications enabled", zap.String("notifier", n.Name()))
		taskScheduler.SetNotifier(n)
	}
	handlerSvc.SetScheduler(taskScheduler)

	httpServer := server.NewHTTPServer(cfg, handlerSvc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler stopped", zap.Error(err))
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Runtime.GracefulShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := taskScheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("Scheduler shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
