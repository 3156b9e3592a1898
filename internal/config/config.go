package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NATS          NATSConfig          `yaml:"nats"`
	Layers        LayersConfig        `yaml:"layers"`
	Weight        WeightConfig        `yaml:"weight"`
	Quality       QualityConfig       `yaml:"quality"`
	Drift         DriftConfig         `yaml:"drift"`
	Snapshot      SnapshotConfig      `yaml:"snapshot"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type NATSConfig struct {
	Enabled         bool      `yaml:"enabled"`
	URL             string    `yaml:"url"`
	CredentialsFile string    `yaml:"credentials_file"`
	NKeySeedFile    string    `yaml:"nkey_seed_file"`
	TLS             TLSConfig `yaml:"tls"`
	ConnectionName  string    `yaml:"connection_name"`
	MaxReconnects   int       `yaml:"max_reconnects"`
	ReconnectWait   Duration  `yaml:"reconnect_wait"`
}

type TLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LayersConfig controls the age boundaries and per-layer capacities of the
// retention buckets. A capacity of 0 means unbounded.
type LayersConfig struct {
	Boundaries LayerBoundaries `yaml:"boundaries"`
	Capacities LayerCapacities `yaml:"capacities"`
}

// LayerBoundaries are the exclusive upper age bounds of each non-terminal
// layer. Anything at or beyond the ancient bound rests in eternal.
type LayerBoundaries struct {
	Immediate Duration `yaml:"immediate"`
	Recent    Duration `yaml:"recent"`
	Deep      Duration `yaml:"deep"`
	Ancient   Duration `yaml:"ancient"`
}

type LayerCapacities struct {
	Immediate int `yaml:"immediate"`
	Recent    int `yaml:"recent"`
	Deep      int `yaml:"deep"`
	Ancient   int `yaml:"ancient"`
	Eternal   int `yaml:"eternal"`
}

// WeightConfig bounds echo significance.
type WeightConfig struct {
	Max             float64 `yaml:"max"`
	RetrievalFactor float64 `yaml:"retrieval_factor"`
	DefaultInitial  float64 `yaml:"default_initial"`
}

// QualityConfig holds the empty-content thresholds of the health monitor.
// Thresholds are fractions in [0,1], not percentages.
type QualityConfig struct {
	HealthyThreshold float64 `yaml:"healthy_threshold"`
	WarningThreshold float64 `yaml:"warning_threshold"`
}

type DriftConfig struct {
	Interval Duration `yaml:"interval"`
}

type SnapshotConfig struct {
	Interval Duration         `yaml:"interval"`
	Timeout  Duration         `yaml:"timeout"`
	Retries  int              `yaml:"retries"`
	Breaker  BreakerConfig    `yaml:"breaker"`
	Bolt     BoltSinkConfig   `yaml:"bolt"`
	SQLite   SQLiteSinkConfig `yaml:"sqlite"`
	S3       S3SinkConfig     `yaml:"s3"`
}

type BreakerConfig struct {
	MaxFailures uint32   `yaml:"max_failures"`
	OpenTimeout Duration `yaml:"open_timeout"`
}

type BoltSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	NoSync  bool   `yaml:"no_sync"`
}

type SQLiteSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type S3SinkConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type APIConfig struct {
	Enabled       bool                `yaml:"enabled"`
	Listen        string              `yaml:"listen"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	NATSResponder NATSResponderConfig `yaml:"nats_responder"`
}

// RateLimitConfig is a token bucket applied to add requests on the serve
// layer. Zero requests_per_second disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type NATSResponderConfig struct {
	Enabled       bool   `yaml:"enabled"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Health  HealthConfig  `yaml:"health"`
	Logging LoggingConfig `yaml:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

type HealthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Listen        string `yaml:"listen"`
	LivenessPath  string `yaml:"liveness_path"`
	ReadinessPath string `yaml:"readiness_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	b := c.Layers.Boundaries
	if b.Immediate.Duration() <= 0 {
		return fmt.Errorf("layers.boundaries.immediate must be > 0")
	}
	if b.Recent.Duration() <= b.Immediate.Duration() {
		return fmt.Errorf("layers.boundaries.recent must be > immediate")
	}
	if b.Deep.Duration() <= b.Recent.Duration() {
		return fmt.Errorf("layers.boundaries.deep must be > recent")
	}
	if b.Ancient.Duration() <= b.Deep.Duration() {
		return fmt.Errorf("layers.boundaries.ancient must be > deep")
	}

	caps := map[string]int{
		"immediate": c.Layers.Capacities.Immediate,
		"recent":    c.Layers.Capacities.Recent,
		"deep":      c.Layers.Capacities.Deep,
		"ancient":   c.Layers.Capacities.Ancient,
		"eternal":   c.Layers.Capacities.Eternal,
	}
	for name, n := range caps {
		if n < 0 {
			return fmt.Errorf("layers.capacities.%s must be >= 0", name)
		}
	}

	if c.Weight.Max <= 0 {
		return fmt.Errorf("weight.max must be > 0")
	}
	if c.Weight.RetrievalFactor < 1 {
		return fmt.Errorf("weight.retrieval_factor must be >= 1")
	}
	if c.Weight.DefaultInitial < 0 {
		return fmt.Errorf("weight.default_initial must be >= 0")
	}

	if c.Quality.HealthyThreshold < 0 || c.Quality.HealthyThreshold > 1 {
		return fmt.Errorf("quality.healthy_threshold must be within [0,1]")
	}
	if c.Quality.WarningThreshold < c.Quality.HealthyThreshold || c.Quality.WarningThreshold > 1 {
		return fmt.Errorf("quality.warning_threshold must be within [healthy_threshold,1]")
	}

	if c.Drift.Interval.Duration() <= 0 {
		return fmt.Errorf("drift.interval must be > 0")
	}
	if c.Snapshot.Interval.Duration() <= 0 {
		return fmt.Errorf("snapshot.interval must be > 0")
	}
	if c.Snapshot.Timeout.Duration() <= 0 {
		return fmt.Errorf("snapshot.timeout must be > 0")
	}
	if c.Snapshot.Retries < 0 {
		return fmt.Errorf("snapshot.retries must be >= 0")
	}
	if c.Snapshot.Bolt.Enabled && c.Snapshot.Bolt.Path == "" {
		return fmt.Errorf("snapshot.bolt.path is required when the bolt sink is enabled")
	}
	if c.Snapshot.SQLite.Enabled && c.Snapshot.SQLite.Path == "" {
		return fmt.Errorf("snapshot.sqlite.path is required when the sqlite sink is enabled")
	}
	if c.Snapshot.S3.Enabled {
		if c.Snapshot.S3.Endpoint == "" {
			return fmt.Errorf("snapshot.s3.endpoint is required when the s3 sink is enabled")
		}
		if c.Snapshot.S3.Bucket == "" {
			return fmt.Errorf("snapshot.s3.bucket is required when the s3 sink is enabled")
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats is enabled")
	}
	if c.API.NATSResponder.Enabled && !c.NATS.Enabled {
		return fmt.Errorf("api.nats_responder requires nats.enabled")
	}
	if c.API.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("api.rate_limit.requests_per_second must be >= 0")
	}

	return nil
}

// Duration wraps time.Duration for YAML unmarshaling of strings like "5m", "24h".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
