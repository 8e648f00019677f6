// Package metrics exposes the service's own Prometheus metrics. All methods
// are safe to call on a nil *Metrics, which turns them into no-ops.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "airguard"

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	fetchDuration     *prometheus.HistogramVec
	fetchErrors       *prometheus.CounterVec
	overallScore      prometheus.Gauge
	sensorScore       *prometheus.GaugeVec
	sensorValue       *prometheus.GaugeVec
	evaluations       *prometheus.CounterVec
	cachedSnapshots   prometheus.Gauge
	publishDropped    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Histogram of series fetch durations by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_errors_total",
			Help:      "Total failed series fetches by source.",
		}, []string{"source"}),
		overallScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Weighted overall air quality score (0-100) of the latest snapshot.",
		}),
		sensorScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_score",
			Help:      "Per-sensor health score (0-100) of the latest snapshot.",
		}, []string{"sensor"}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Latest raw reading per sensor.",
		}, []string{"sensor"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total evaluations by resulting status.",
		}, []string{"status"}),
		cachedSnapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_snapshots",
			Help:      "Number of snapshots held in the cache.",
		}),
		publishDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_dropped_total",
			Help:      "Evaluations not handed to a publisher because its queue was full.",
		}, []string{"publisher"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.fetchDuration,
		m.fetchErrors,
		m.overallScore,
		m.sensorScore,
		m.sensorValue,
		m.evaluations,
		m.cachedSnapshots,
		m.publishDropped,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveFetch(source string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		m.fetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordEvaluation publishes the scores of a fresh evaluation. Sensors
// missing from the result are reset so stale scores do not linger.
func (m *Metrics) RecordEvaluation(resp airquality.EvalResponse) {
	if m == nil {
		return
	}
	m.overallScore.Set(resp.Overall)
	m.evaluations.WithLabelValues(string(resp.Status)).Inc()

	m.sensorScore.Reset()
	m.sensorValue.Reset()
	for key, s := range resp.Sensors {
		m.sensorScore.WithLabelValues(key).Set(s.Score)
		m.sensorValue.WithLabelValues(key).Set(s.Value)
	}
}

func (m *Metrics) SetCachedSnapshots(n int) {
	if m == nil {
		return
	}
	m.cachedSnapshots.Set(float64(n))
}

func (m *Metrics) PublishDropped(publisher string) {
	if m == nil {
		return
	}
	m.publishDropped.WithLabelValues(publisher).Inc()
}
