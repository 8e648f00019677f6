// Package refresh periodically pulls fresh series from the configured source,
// caches them as snapshots and hands each evaluation to the publishers.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/snapshot"
	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/source"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"go.uber.org/zap"
)

// Controller runs the fetch, cache, evaluate, publish loop
type Controller struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	src         source.Source
	window      source.Window
	interval    time.Duration
	cache       *snapshot.Cache
	evaluator   *airquality.Evaluator
	metrics     *metrics.Metrics
	distributor chan<- airquality.EvalResponse
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// NewController creates a refresh controller. distributor may be nil when
// nothing consumes evaluations.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, src source.Source, cache *snapshot.Cache, evaluator *airquality.Evaluator, m *metrics.Metrics, distributor chan<- airquality.EvalResponse, logger *zap.SugaredLogger) (*Controller, error) {
	if src == nil {
		return nil, fmt.Errorf("refresh controller requires a source")
	}
	if cache == nil {
		return nil, fmt.Errorf("refresh controller requires a snapshot cache")
	}
	if evaluator == nil {
		evaluator = airquality.NewEvaluator(airquality.DefaultCatalog())
	}

	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}

	return &Controller{
		ctx:         ctx,
		wg:          wg,
		src:         src,
		window:      source.Window{Range: cfg.Source.Range, Step: cfg.Source.Step},
		interval:    interval,
		cache:       cache,
		evaluator:   evaluator,
		metrics:     m,
		distributor: distributor,
		logger:      logger.Named("refresh"),
		now:         time.Now,
	}, nil
}

// StartController starts the refresh loop
func (c *Controller) StartController() error {
	c.logger.Infow("Starting refresh controller...",
		"source", c.src.Name(),
		"interval", c.interval,
		"range", c.window.Range)

	c.wg.Add(1)
	go c.refreshLoop()
	return nil
}

func (c *Controller) refreshLoop() {
	defer c.wg.Done()

	// Initial refresh immediately
	c.refreshAndLog()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Refresh loop stopped")
			return
		case <-ticker.C:
			c.refreshAndLog()
		}
	}
}

func (c *Controller) refreshAndLog() {
	if _, err := c.Refresh(c.ctx); err != nil {
		c.logger.Errorw("Refresh failed; keeping previous snapshot", "source", c.src.Name(), "error", err)
	}
}

// Refresh fetches one window, caches it and evaluates it. On a fetch error
// the cache is left untouched.
func (c *Controller) Refresh(ctx context.Context) (airquality.EvalResponse, error) {
	start := c.now()
	raw, err := c.src.Fetch(ctx, c.window)
	c.metrics.ObserveFetch(c.src.Name(), c.now().Sub(start), err)
	if err != nil {
		return airquality.EvalResponse{}, fmt.Errorf("fetching from %s: %w", c.src.Name(), err)
	}

	s := snapshot.New(raw, c.src.Name(), c.now())
	if err := c.cache.Put(s); err != nil {
		// Still cached in memory
		c.logger.Warnw("Could not persist snapshot cache", "error", err)
	}
	c.metrics.SetCachedSnapshots(c.cache.Len())

	resp := c.evaluator.Evaluate(s.Series)
	c.metrics.RecordEvaluation(resp)

	c.logger.Debugw("Refreshed snapshot",
		"id", s.ID,
		"sensors", len(resp.Sensors),
		"overall", resp.Overall,
		"status", resp.Status)

	if c.distributor != nil {
		select {
		case c.distributor <- resp:
		case <-ctx.Done():
		}
	}
	return resp, nil
}
