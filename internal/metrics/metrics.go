package metrics

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts processed commands by outcome (handled, unhandled, session_end, empty).
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_commands_total",
		Help: "Processed commands by outcome",
	}, []string{"outcome"})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jarvis_dispatch_duration_seconds",
		Help:    "Time spent inside a single dispatch",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_handler_failures_total",
		Help: "Handler errors and recovered panics by route keyword",
	}, []string{"route"})

	// Confirmations tracks the gate: requested, confirmed, cancelled, discarded.
	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_confirmations_total",
		Help: "Confirmation gate transitions",
	}, []string{"result"})

	OracleQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_oracle_queries_total",
		Help: "Oracle queries by result (ok, cached, filtered, timeout, error)",
	}, []string{"result"})

	OracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jarvis_oracle_latency_seconds",
		Help:    "Oracle backend round trip",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_alerts_total",
		Help: "Health alerts raised by level",
	}, []string{"level"})

	AlertsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_alerts_dropped_total",
		Help: "Health alerts dropped because the queue was full",
	})

	SessionActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_session_activations_total",
		Help: "Session activations by source (hotword, trigger)",
	}, []string{"source"})

	OverlayReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_overlay_reconnects_total",
		Help: "Overlay websocket reconnect attempts",
	})
)

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
