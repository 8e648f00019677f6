package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/constants"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	"go.uber.org/zap"
)

// AirGradientMeasures is the subset of the /measures/current response we
// track. Pointers distinguish a missing field from a real zero reading.
type AirGradientMeasures struct {
	PM02            *float64 `json:"pm02"`            // PM2.5 µg/m³ (raw)
	PM02Compensated *float64 `json:"pm02Compensated"` // PM2.5 µg/m³ (compensated)
	Atmp            *float64 `json:"atmp"`            // °C (raw)
	AtmpCompensated *float64 `json:"atmpCompensated"` // °C (compensated)
	Rhum            *float64 `json:"rhum"`            // % (raw)
	RhumCompensated *float64 `json:"rhumCompensated"` // % (compensated)
	Rco2            *float64 `json:"rco2"`            // ppm
	TvocIndex       *float64 `json:"tvocIndex"`       // 1-500
	SerialNo        string   `json:"serialno"`
	Model           string   `json:"model"`
}

// readings maps the measures onto canonical sensor keys, preferring
// compensated values when the device reports them
func (m AirGradientMeasures) readings() map[string]float64 {
	out := make(map[string]float64, 5)
	pick := func(key string, values ...*float64) {
		for _, v := range values {
			if v != nil {
				out[key] = *v
				return
			}
		}
	}
	pick(airquality.SensorCO2, m.Rco2)
	pick(airquality.SensorPM25, m.PM02Compensated, m.PM02)
	pick(airquality.SensorTVOC, m.TvocIndex)
	pick(airquality.SensorTemperature, m.AtmpCompensated, m.Atmp)
	pick(airquality.SensorHumidity, m.RhumCompensated, m.Rhum)
	return out
}

type timedValue struct {
	ts    int64 // epoch ms
	value float64
}

// AirGradientSource polls an AirGradient monitor and keeps the readings of
// the last retention period in memory
type AirGradientSource struct {
	cfg          config.AirGradientData
	retention    time.Duration
	pollInterval time.Duration
	url          string
	client       *http.Client
	logger       *zap.SugaredLogger

	mu     sync.RWMutex
	series map[string][]timedValue
}

// NewAirGradientSource creates a source for the configured device
func NewAirGradientSource(cfg config.AirGradientData, retention time.Duration, logger *zap.SugaredLogger) *AirGradientSource {
	if cfg.Port == "" {
		cfg.Port = config.DefaultAirGradientPort
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = config.DefaultPollInterval
	}

	return &AirGradientSource{
		cfg:          cfg,
		retention:    retention,
		pollInterval: pollInterval,
		url:          fmt.Sprintf("http://%s:%s/measures/current", cfg.Hostname, cfg.Port),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("airgradient").With("hostname", cfg.Hostname),
		series: make(map[string][]timedValue),
	}
}

// Name identifies the source in logs and metrics
func (s *AirGradientSource) Name() string {
	return "airgradient"
}

// Start begins polling the device
func (s *AirGradientSource) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if s.cfg.Hostname == "" {
		return fmt.Errorf("hostname is required for AirGradient source")
	}

	s.logger.Infow("Starting AirGradient source",
		"port", s.cfg.Port,
		"interval", s.pollInterval)

	wg.Add(1)
	go s.pollLoop(ctx, wg)
	return nil
}

func (s *AirGradientSource) pollLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	// Initial poll immediately
	s.pollAndLog(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Poll loop stopped")
			return
		case <-ticker.C:
			s.pollAndLog(ctx)
		}
	}
}

func (s *AirGradientSource) pollAndLog(ctx context.Context) {
	if err := s.poll(ctx); err != nil {
		s.logger.Errorw("Failed to poll AirGradient device", "error", err, "url", s.url)
	}
}

func (s *AirGradientSource) poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var m AirGradientMeasures
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	readings := m.readings()
	s.record(time.Now(), readings)
	s.logger.Debugw("Reading recorded", "readings", readings, "serial", m.SerialNo)
	return nil
}

// record appends one set of readings and drops everything older than the
// retention period
func (s *AirGradientSource) record(at time.Time, readings map[string]float64) {
	ts := at.UnixMilli()
	cutoff := at.Add(-s.retention).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range readings {
		s.series[key] = append(s.series[key], timedValue{ts: ts, value: v})
	}
	for key, points := range s.series {
		i := 0
		for i < len(points) && points[i].ts < cutoff {
			i++
		}
		if i > 0 {
			s.series[key] = append([]timedValue(nil), points[i:]...)
		}
	}
}

// Fetch returns the recorded readings that fall inside the window
func (s *AirGradientSource) Fetch(ctx context.Context, w Window) (airquality.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, end := w.Bounds()
	from, to := start.UnixMilli(), end.UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()

	raw := airquality.RawSeries{}
	for key, points := range s.series {
		var samples []json.RawMessage
		for _, p := range points {
			if p.ts < from || p.ts > to {
				continue
			}
			if sample, ok := encodeSample(p.ts, p.value); ok {
				samples = append(samples, sample)
			}
		}
		if len(samples) > 0 {
			raw[key] = samples
		}
	}
	return raw, nil
}
