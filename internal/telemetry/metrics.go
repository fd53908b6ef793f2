// Package telemetry provides Prometheus metrics for the relay.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	ChunksReceived  prometheus.Counter
	MessagesRelayed prometheus.Counter
	BackendFailures prometheus.Counter
	PongsSent       prometheus.Counter
	BackendDuration prometheus.Observer
	SessionPhase    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChunksReceived:  f.NewCounter(prometheus.CounterOpts{Name: "irc_chunks_received_total", Help: "Raw chunks read from the IRC server"}),
		MessagesRelayed: f.NewCounter(prometheus.CounterOpts{Name: "irc_messages_relayed_total", Help: "Channel messages answered by the relay"}),
		BackendFailures: f.NewCounter(prometheus.CounterOpts{Name: "llm_backend_failures_total", Help: "Backend calls replaced by the placeholder reply"}),
		PongsSent:       f.NewCounter(prometheus.CounterOpts{Name: "irc_pongs_sent_total", Help: "PONG replies sent"}),
		BackendDuration: f.NewHistogram(prometheus.HistogramOpts{Name: "llm_backend_duration_seconds", Help: "Backend call duration seconds", Buckets: prometheus.DefBuckets}),
		SessionPhase:    f.NewGauge(prometheus.GaugeOpts{Name: "irc_session_phase", Help: "Current session phase (0=connecting .. 4=closed)"}),
	}
}

func (m *Metrics) IncChunks() {
	if m != nil {
		m.ChunksReceived.Inc()
	}
}

func (m *Metrics) IncRelayed() {
	if m != nil {
		m.MessagesRelayed.Inc()
	}
}

func (m *Metrics) IncBackendFailures() {
	if m != nil {
		m.BackendFailures.Inc()
	}
}

func (m *Metrics) IncPongs() {
	if m != nil {
		m.PongsSent.Inc()
	}
}

func (m *Metrics) SetPhase(p int) {
	if m != nil {
		m.SessionPhase.Set(float64(p))
	}
}

// ObserveBackend records d as a backend call duration.
func (m *Metrics) ObserveBackend(d time.Duration) {
	if m != nil {
		m.BackendDuration.Observe(d.Seconds())
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
