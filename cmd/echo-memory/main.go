package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gftdcojp/echo-memory/internal/collective"
	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/dispatch"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/lifecycle"
	"github.com/gftdcojp/echo-memory/internal/metrics"
	"github.com/gftdcojp/echo-memory/internal/resonance"
	"github.com/gftdcojp/echo-memory/internal/serve"
	"github.com/gftdcojp/echo-memory/internal/snapshot"
	"github.com/gftdcojp/echo-memory/internal/store"
	"github.com/gftdcojp/echo-memory/internal/tuning"
	"github.com/gftdcojp/echo-memory/internal/wisdom"
	"github.com/gftdcojp/echo-memory/pkg/natsutil"
	"github.com/gftdcojp/echo-memory/pkg/s3util"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("echo-memory %s\n", version)
		os.Exit(0)
	}

	// Local overrides for development; missing files are fine.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Observability.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("fatal error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Core state
	policy := layer.NewPolicyEngine(cfg.Layers)
	echoStore := store.New(policy, cfg.Weight, logger.Named("store"))
	tracker := resonance.NewTracker(echoStore, logger.Named("resonance"))
	crystallizer := wisdom.NewCrystallizer(echoStore)
	monitor := metrics.NewMonitor(echoStore, cfg.Quality)

	// Snapshot sinks
	var sinks []snapshot.Sink
	var pingers []metrics.Pinger

	if cfg.Snapshot.Bolt.Enabled {
		bolt, err := snapshot.NewBoltSink(cfg.Snapshot.Bolt)
		if err != nil {
			return fmt.Errorf("opening bolt sink: %w", err)
		}
		defer bolt.Close()
		sinks = append(sinks, bolt)
		pingers = append(pingers, bolt)
	}

	if cfg.Snapshot.SQLite.Enabled {
		sqlite, err := snapshot.NewSQLiteSink(cfg.Snapshot.SQLite)
		if err != nil {
			return fmt.Errorf("opening sqlite sink: %w", err)
		}
		defer sqlite.Close()
		sinks = append(sinks, sqlite)
		pingers = append(pingers, sqlite)
	}

	if cfg.Snapshot.S3.Enabled {
		s3Client, err := s3util.NewClient(ctx, cfg.Snapshot.S3)
		if err != nil {
			return fmt.Errorf("creating S3 client: %w", err)
		}
		s3Sink := snapshot.NewS3Sink(s3Client)
		sinks = append(sinks, s3Sink)
		pingers = append(pingers, s3Sink)
	}

	snapshots := snapshot.NewService(echoStore, cfg.Quality, cfg.Snapshot, sinks, logger.Named("snapshot"))
	drift := lifecycle.NewManager(echoStore, logger.Named("drift"))

	mem := collective.New(collective.Config{
		Store:        echoStore,
		Tracker:      tracker,
		Crystallizer: crystallizer,
		Monitor:      monitor,
		Snapshots:    snapshots,
		Drift:        drift,
		Weights:      cfg.Weight,
		Logger:       logger.Named("collective"),
	})

	// Signal dispatch: one echoing handler, instrumented so repeated failures
	// or slow handling dampen its bids.
	knobs := tuning.NewTracker()
	registry := dispatch.NewRegistry(logger.Named("dispatch"))
	registry.Register(dispatch.Instrument(dispatch.NewEchoingHandler(mem), knobs))

	// NATS is optional: the daemon serves HTTP-only deployments too.
	var nc *nats.Conn
	if cfg.NATS.Enabled {
		var err error
		nc, err = natsutil.Connect(cfg.NATS, logger.Named("nats"))
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer nc.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Background loops
	g.Go(func() error { return drift.Run(gctx, cfg.Drift.Interval.Duration()) })
	if len(sinks) > 0 {
		g.Go(func() error { return snapshots.Run(gctx, cfg.Snapshot.Interval.Duration()) })
	}

	if cfg.API.Enabled {
		g.Go(func() error {
			return serve.RunHTTP(gctx, cfg.API, mem, registry, logger.Named("api"))
		})
	}

	if cfg.API.NATSResponder.Enabled && nc != nil {
		g.Go(func() error {
			return serve.RunNATSResponder(gctx, nc, cfg.API, mem, registry, logger.Named("nats-responder"))
		})
	}

	if cfg.Observability.Metrics.Enabled {
		g.Go(func() error { return metrics.RunServer(gctx, cfg.Observability.Metrics) })
	}

	if cfg.Observability.Health.Enabled {
		healthChecker := metrics.NewHealthChecker(nc, pingers...)
		g.Go(func() error {
			return metrics.RunHealthServer(gctx, cfg.Observability.Health, healthChecker)
		})
	}

	logger.Info("echo-memory started",
		zap.String("version", version),
		zap.Int("snapshot_sinks", len(sinks)),
		zap.Bool("nats", cfg.NATS.Enabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	// Final snapshot on the way out so sinks carry closing state.
	if len(sinks) > 0 {
		logger.Info("shutting down, taking final snapshot...")
		if _, err := snapshots.Take(context.Background()); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
		}
	}

	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level.SetLevel(zap.DebugLevel)
	case "info":
		zapCfg.Level.SetLevel(zap.InfoLevel)
	case "warn":
		zapCfg.Level.SetLevel(zap.WarnLevel)
	case "error":
		zapCfg.Level.SetLevel(zap.ErrorLevel)
	}

	return zapCfg.Build()
}
