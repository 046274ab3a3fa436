package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the collectors of one process. A nil *Recorder is valid and
// records nothing, so tests and one-shot CLI runs can skip registration.
type Recorder struct {
	registry      *prometheus.Registry
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	nameLookups   *prometheus.CounterVec
	reports       *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ebird_report",
			Name:      "query_duration_seconds",
			Help:      "Duration of metric queries against the observation store.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"metric"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ebird_report",
			Name:      "query_errors_total",
			Help:      "Metric queries that failed.",
		}, []string{"metric"}),
		nameLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ebird_report",
			Name:      "name_lookups_total",
			Help:      "Observer name lookups by source.",
		}, []string{"source"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ebird_report",
			Name:      "reports_total",
			Help:      "Generated reports by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(
		r.queryDuration,
		r.queryErrors,
		r.nameLookups,
		r.reports,
		prometheus.NewGoCollector(),
	)
	return r
}

func (r *Recorder) ObserveQuery(metric string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.queryDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
	if err != nil {
		r.queryErrors.WithLabelValues(metric).Inc()
	}
}

// NameLookup counts a resolution served by source ("override", "cache", "remote", "placeholder").
func (r *Recorder) NameLookup(source string) {
	if r == nil {
		return
	}
	r.nameLookups.WithLabelValues(source).Inc()
}

func (r *Recorder) Report(err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.reports.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
