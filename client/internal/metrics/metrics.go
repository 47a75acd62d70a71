package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder raccoglie le metriche delle richieste in uscita verso il backend.
type Recorder struct {
	registry *prometheus.Registry
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registra i collector su un registry dedicato.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tcg_client",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight backend requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tcg_client",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of backend requests by outcome.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tcg_client",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "route"}),
	}
	r.registry.MustRegister(r.inFlight, r.requests, r.duration)
	return r
}

// Registry espone il registry per test e handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler ritorna l'handler /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RequestStarted incrementa il gauge delle richieste in corso.
func (r *Recorder) RequestStarted() {
	if r == nil {
		return
	}
	r.inFlight.Inc()
}

// RequestDone registra esito e durata. status 0 indica nessuna risposta.
func (r *Recorder) RequestDone(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.inFlight.Dec()
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(method, route, label).Inc()
	r.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
