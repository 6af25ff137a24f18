// Package metrics exports crawl progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rendis/storetap/internal/engine/crawler"
)

const namespace = "storetap"

// Recorder implements crawler.Observer on its own registry.
type Recorder struct {
	reg      *prometheus.Registry
	queries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	accepted *prometheus.CounterVec
	frontier *prometheus.GaugeVec
	brand    string
}

var _ crawler.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder whose series carry the brand label.
func NewRecorder(brand string) *Recorder {
	r := &Recorder{
		reg:   prometheus.NewRegistry(),
		brand: brand,
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "oracle_queries_total", Help: "Oracle queries by outcome."},
			[]string{"brand", "outcome"}, // outcome: ok|transport_error|parse_error|rate_limited|error
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Name: "oracle_query_duration_seconds",
				Help:    "Oracle query duration seconds, retries included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"brand"},
		),
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "records_accepted_total", Help: "Unique records accepted."},
			[]string{"brand"},
		),
		frontier: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "frontier_depth", Help: "Points waiting in the frontier."},
			[]string{"brand"},
		),
	}
	r.reg.MustRegister(r.queries, r.latency, r.accepted, r.frontier)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveQuery(outcome string, elapsed time.Duration) {
	r.queries.WithLabelValues(r.brand, outcome).Inc()
	r.latency.WithLabelValues(r.brand).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveAccepted(n int) {
	r.accepted.WithLabelValues(r.brand).Add(float64(n))
}

func (r *Recorder) ObserveFrontier(depth int) {
	r.frontier.WithLabelValues(r.brand).Set(float64(depth))
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string, r *Recorder) {
	if addr == "" {
		return // disabled
	}
	logger := zap.L().With(zap.String("component", "metrics"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
