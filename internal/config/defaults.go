package config

import "time"

func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://localhost:4222",
			ConnectionName: "echo-memory",
			MaxReconnects:  -1,
			ReconnectWait:  Duration(2 * time.Second),
		},
		Layers: LayersConfig{
			Boundaries: LayerBoundaries{
				Immediate: Duration(24 * time.Hour),
				Recent:    Duration(7 * 24 * time.Hour),
				Deep:      Duration(30 * 24 * time.Hour),
				Ancient:   Duration(365 * 24 * time.Hour),
			},
			Capacities: LayerCapacities{
				Immediate: 1000,
				Recent:    500,
				Deep:      200,
				Ancient:   100,
				Eternal:   0, // unbounded, terminal resting layer
			},
		},
		Weight: WeightConfig{
			Max:             1000,
			RetrievalFactor: 1.05,
			DefaultInitial:  1.0,
		},
		Quality: QualityConfig{
			HealthyThreshold: 0.05,
			WarningThreshold: 0.10,
		},
		Drift: DriftConfig{
			Interval: Duration(time.Hour),
		},
		Snapshot: SnapshotConfig{
			Interval: Duration(time.Hour),
			Timeout:  Duration(10 * time.Second),
			Retries:  3,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: Duration(time.Minute),
			},
			Bolt: BoltSinkConfig{
				Enabled: true,
				Path:    "/var/lib/ecm/snapshots.db",
			},
		},
		API: APIConfig{
			Enabled: true,
			Listen:  ":8080",
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 100,
				Burst:             200,
			},
			NATSResponder: NATSResponderConfig{
				Enabled:       false,
				SubjectPrefix: "ecm",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Listen:  ":9090",
				Path:    "/metrics",
			},
			Health: HealthConfig{
				Enabled:       true,
				Listen:        ":8081",
				LivenessPath:  "/healthz",
				ReadinessPath: "/readyz",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stderr",
			},
		},
	}
}
