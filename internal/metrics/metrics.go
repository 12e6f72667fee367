package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pfrederiksen/meetup-events/internal/importer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meetup_import"

// Run outcomes used as the result label
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultMalformed = "malformed"
)

// Metrics holds the import collectors and their registry
type Metrics struct {
	registry *prometheus.Registry
	now      func() time.Time

	runs        *prometheus.CounterVec
	fetched     prometheus.Counter
	skipped     *prometheus.CounterVec
	malformed   prometheus.Counter
	irregular   prometheus.Counter
	meetups     prometheus.Gauge
	lastSuccess prometheus.Gauge
	duration    prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}

	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Number of import runs by result.",
	}, []string{"result"})
	m.fetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_fetched_total",
		Help:      "Raw event records returned by the events API.",
	})
	m.skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Event records left out of an import, by reason.",
	}, []string{"reason"})
	m.malformed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_malformed_total",
		Help:      "Event records dropped because a required field was missing.",
	})
	m.irregular = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "irregular_timestamps_total",
		Help:      "Timestamps whose sub-second digits were not zero.",
	})
	m.meetups = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "meetups",
		Help:      "Meetups saved by the last successful import.",
	})
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful import.",
	})
	m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "duration_seconds",
		Help:      "Wall time of import runs.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	m.registry.MustRegister(
		m.runs, m.fetched, m.skipped, m.malformed,
		m.irregular, m.meetups, m.lastSuccess, m.duration,
	)

	// expose zero values before the first run
	for _, result := range []string{ResultSuccess, ResultFailure, ResultMalformed} {
		m.runs.WithLabelValues(result)
	}
	for _, reason := range importer.SkipReasons {
		m.skipped.WithLabelValues(string(reason))
	}

	return m
}

// Registry returns the registry holding the import collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one import run. result may be nil when err is set.
func (m *Metrics) ObserveRun(result *importer.Result, err error, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())

	if err != nil {
		if errors.Is(err, importer.ErrMalformedRecord) {
			m.runs.WithLabelValues(ResultMalformed).Inc()
		} else {
			m.runs.WithLabelValues(ResultFailure).Inc()
		}
		return
	}

	m.runs.WithLabelValues(ResultSuccess).Inc()
	m.fetched.Add(float64(result.Fetched))
	for reason, n := range result.Skipped {
		m.skipped.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.malformed.Add(float64(len(result.Malformed)))
	m.irregular.Add(float64(result.IrregularTimestamps))
	m.meetups.Set(float64(len(result.Meetups)))
	m.lastSuccess.Set(float64(m.now().Unix()))
}

// WriteTextfile writes all metrics in the text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Handler serves the import metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
