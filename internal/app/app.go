package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/log"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/managers"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()

	// Restore whatever snapshots survived the last run
	cache := snapshot.NewCache(a.config.Cache.Size, a.config.Cache.Path, a.logger)
	if err := cache.Load(); err != nil {
		a.logger.Warnw("Could not restore snapshot cache", "path", a.config.Cache.Path, "error", err)
	}
	m.SetCachedSnapshots(cache.Len())

	src, err := managers.NewSource(a.config.Source, a.logger)
	if err != nil {
		return fmt.Errorf("error creating source: %w", err)
	}
	if starter, ok := src.(source.Starter); ok {
		if err := starter.Start(ctx, &wg); err != nil {
			return fmt.Errorf("error starting source %s: %w", src.Name(), err)
		}
	}

	// Initialize the publish manager
	publishManager := managers.NewPublishManager(ctx, &wg, m, a.logger)

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.config, managers.Services{
		Source:     src,
		Cache:      cache,
		Evaluator:  airquality.NewEvaluator(airquality.DefaultCatalog()),
		Metrics:    m,
		Publishers: publishManager,
	}, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
