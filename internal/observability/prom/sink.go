// Package prom adapts the metrics.Sink interface onto a Prometheus registry.
package prom

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/target/guardlink/internal/observability/metrics"
)

// Sink registers one collector per metric name on first use. The label set
// of a metric is fixed by its first emission; later emissions fill missing
// labels with "" and ignore unknown ones.
type Sink struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*vec[*prometheus.CounterVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
	histograms map[string]*vec[*prometheus.HistogramVec]
}

type vec[T any] struct {
	labels []string
	v      T
}

var _ metrics.Sink = (*Sink)(nil)

// New creates a Sink with its own registry, including Go runtime and process collectors.
func New(namespace string) *Sink {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Sink{
		namespace:  sanitize(namespace),
		registry:   reg,
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry exposes the underlying registry.
func (s *Sink) Registry() *prometheus.Registry { return s.registry }

// Count implements metrics.Sink.
func (s *Sink) Count(name string, value int64, tags map[string]string) {
	if value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		labels := labelNames(tags)
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_total",
			Help:      "Count of " + name + ".",
		}, labels)
		if err := s.registry.Register(cv); err != nil {
			return
		}
		c = &vec[*prometheus.CounterVec]{labels: labels, v: cv}
		s.counters[name] = c
	}
	c.v.With(labelValues(c.labels, tags)).Add(float64(value))
}

// Gauge implements metrics.Sink.
func (s *Sink) Gauge(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gauges[name]
	if !ok {
		labels := labelNames(tags)
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      sanitize(name),
			Help:      "Current value of " + name + ".",
		}, labels)
		if err := s.registry.Register(gv); err != nil {
			return
		}
		g = &vec[*prometheus.GaugeVec]{labels: labels, v: gv}
		s.gauges[name] = g
	}
	g.v.With(labelValues(g.labels, tags)).Set(value)
}

// Timing implements metrics.Sink, observing seconds.
func (s *Sink) Timing(name string, value time.Duration, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[name]
	if !ok {
		labels := labelNames(tags)
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      sanitize(name) + "_seconds",
			Help:      "Duration of " + name + ".",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		}, labels)
		if err := s.registry.Register(hv); err != nil {
			return
		}
		h = &vec[*prometheus.HistogramVec]{labels: labels, v: hv}
		s.histograms[name] = h
	}
	h.v.With(labelValues(h.labels, tags)).Observe(value.Seconds())
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		if n := sanitize(k); n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, tags map[string]string) prometheus.Labels {
	byName := make(map[string]string, len(tags))
	for k, v := range tags {
		byName[sanitize(k)] = v
	}
	out := make(prometheus.Labels, len(names))
	for _, n := range names {
		out[n] = byName[n]
	}
	return out
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
