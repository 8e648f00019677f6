package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PrometheusSource runs one range query per configured series against a
// Prometheus-compatible HTTP API
type PrometheusSource struct {
	api     v1.API
	queries map[string]string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewPrometheusSource creates a client for the configured backend
func NewPrometheusSource(cfg config.PrometheusData, logger *zap.SugaredLogger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{Address: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("creating prometheus client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}

	return &PrometheusSource{
		api:     v1.NewAPI(client),
		queries: cfg.Queries,
		timeout: timeout,
		logger:  logger.Named("prometheus"),
	}, nil
}

// Name identifies the source in logs and metrics
func (p *PrometheusSource) Name() string {
	return "prometheus"
}

// Fetch queries every series concurrently. Any failed query fails the whole
// fetch. Queries that return no data are left out of the result.
func (p *PrometheusSource) Fetch(ctx context.Context, w Window) (airquality.RawSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start, end := w.Bounds()
	r := v1.Range{Start: start, End: end, Step: w.Step}

	var mu sync.Mutex
	raw := airquality.RawSeries{}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range p.names() {
		name, query := name, p.queries[name]
		g.Go(func() error {
			value, warnings, err := p.api.QueryRange(gctx, query, r)
			if err != nil {
				return fmt.Errorf("query for %s: %w", name, err)
			}
			for _, warning := range warnings {
				p.logger.Warnw("query warning", "series", name, "warning", warning)
			}

			matrix, ok := value.(model.Matrix)
			if !ok {
				return fmt.Errorf("query for %s returned %T, expected matrix", name, value)
			}

			var samples []json.RawMessage
			for _, stream := range matrix {
				samples = appendPairs(samples, stream.Values)
			}
			if len(samples) == 0 {
				p.logger.Debugw("query returned no data", "series", name)
				return nil
			}

			mu.Lock()
			raw[name] = samples
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

// names returns the configured series in a stable order
func (p *PrometheusSource) names() []string {
	names := make([]string, 0, len(p.queries))
	for name := range p.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
