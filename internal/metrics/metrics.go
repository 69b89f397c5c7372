// Package metrics exposes Prometheus metrics for the questionnaire service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soaringjerry/Empatia/internal/services"
)

// Manager owns a registry and the service's collectors.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	submissions    *prometheus.CounterVec
	clears         prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	statsCacheHits *prometheus.CounterVec
}

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "empatia",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	auto := promauto.With(m.registry)
	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "submissions_total",
		Help:      "Questionnaire submissions persisted, by profile key.",
	}, []string{"profile"})
	m.clears = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "response_clears_total",
		Help:      "Administrative clears of the response store.",
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template, method and status.",
	}, []string{"route", "method", "status"})
	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	m.statsCacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stats_cache_lookups_total",
		Help:      "Statistics cache lookups by result (hit or miss).",
	}, []string{"result"})
	return m
}

// ObserveSubmission counts a committed submission.
func (m *Manager) ObserveSubmission(p services.Profile) {
	key := "unknown"
	if p.Known() {
		key = p.Key()
	}
	m.submissions.WithLabelValues(key).Inc()
}

func (m *Manager) ObserveClear() { m.clears.Inc() }

func (m *Manager) ObserveRequest(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Manager) ObserveCacheLookup(hit bool) {
	if hit {
		m.statsCacheHits.WithLabelValues("hit").Inc()
		return
	}
	m.statsCacheHits.WithLabelValues("miss").Inc()
}

type instrumentedCache struct {
	services.StatsCache
	m *Manager
}

// InstrumentStatsCache counts hits and misses of c.
func (m *Manager) InstrumentStatsCache(c services.StatsCache) services.StatsCache {
	return instrumentedCache{StatsCache: c, m: m}
}

func (c instrumentedCache) Get(ctx context.Context, gen int64) (*services.StatsBundle, bool, error) {
	b, ok, err := c.StatsCache.Get(ctx, gen)
	if err == nil {
		c.m.ObserveCacheLookup(ok)
	}
	return b, ok, err
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
