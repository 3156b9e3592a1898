package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gftdcojp/echo-memory/internal/config"
)

var (
	// Store metrics
	EchoesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecm_echoes_added_total",
		Help: "Total echoes accepted by the store",
	}, []string{"type"})

	EchoesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecm_echoes_rejected_total",
		Help: "Add requests rejected for invalid input",
	})

	LayerEchoCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ecm_layer_echo_count",
		Help: "Number of echoes resting in each layer",
	}, []string{"layer"})

	Retrievals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecm_retrievals_total",
		Help: "Resonance-bumping retrievals",
	})

	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecm_searches_total",
		Help: "Search queries served",
	})

	// Drift metrics
	SweepMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecm_sweep_moves_total",
		Help: "Echoes re-bucketed into a layer by the drift sweep",
	}, []string{"layer"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecm_sweep_duration_seconds",
		Help:    "Time for one full drift sweep",
		Buckets: prometheus.DefBuckets,
	})

	Evictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecm_evictions_total",
		Help: "Echoes evicted by layer compaction",
	}, []string{"layer"})

	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecm_invariant_violations_total",
		Help: "Capacity invariant violations detected and self-healed",
	})

	// Snapshot metrics
	SnapshotsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecm_snapshots_written_total",
		Help: "Snapshots successfully written per sink",
	}, []string{"sink"})

	SnapshotFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecm_snapshot_failures_total",
		Help: "Snapshot sink write failures after retries",
	}, []string{"sink"})

	SnapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecm_snapshot_duration_seconds",
		Help:    "Snapshot sink write latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"sink"})

	// Quality metrics
	EmptyRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecm_empty_ratio",
		Help: "Fraction of stored echoes with empty content",
	})
)

// RunServer starts the Prometheus metrics HTTP server.
func RunServer(ctx context.Context, cfg config.MetricsConfig) error {
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
