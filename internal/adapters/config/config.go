package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"augur/pkg/errors"
)

type Config struct {
	App           AppConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Engine        EngineConfig
	Workers       WorkerConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"augur"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"augur"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID    string   `envconfig:"KAFKA_GROUP_ID" default:"augur"`
	BarsTopic  string   `envconfig:"KAFKA_BARS_TOPIC" default:"market.bars"`
	IngestBars bool     `envconfig:"KAFKA_INGEST_BARS" default:"true"`
}

// EngineConfig holds the tunables of the signal engine. Lookahead and label
// threshold materially change backtest outcomes, so they are configuration
// rather than constants.
type EngineConfig struct {
	Symbols          []string `envconfig:"ENGINE_SYMBOLS" default:"EURUSD,GBPUSD,USDJPY"`
	DefaultTimeframe string   `envconfig:"ENGINE_DEFAULT_TIMEFRAME" default:"H1"`

	// Labeling
	Lookahead      int     `envconfig:"ENGINE_LOOKAHEAD" default:"5"`
	LabelThreshold float64 `envconfig:"ENGINE_LABEL_THRESHOLD" default:"0.001"`

	// Training
	Seed          int64 `envconfig:"ENGINE_SEED" default:"42"`
	Trees         int   `envconfig:"ENGINE_TREES" default:"100"`
	MaxDepth      int   `envconfig:"ENGINE_MAX_DEPTH" default:"10"`
	MinSplit      int   `envconfig:"ENGINE_MIN_SPLIT" default:"5"`
	MinLeaf       int   `envconfig:"ENGINE_MIN_LEAF" default:"2"`
	TrainingBars  int   `envconfig:"ENGINE_TRAINING_BARS" default:"5000"`
	MinTrainRows  int   `envconfig:"ENGINE_MIN_TRAIN_ROWS" default:"100"`
	RecentBars    int   `envconfig:"ENGINE_RECENT_BARS" default:"100"`

	// Backtest. BarsPerDay encodes the hourly-bar assumption; WarmupBars skips
	// the indicator stabilization window; RiskFraction is the fixed sizing
	// policy (fraction of balance committed per trade).
	BarsPerDay      int     `envconfig:"ENGINE_BARS_PER_DAY" default:"24"`
	WarmupBars      int     `envconfig:"ENGINE_WARMUP_BARS" default:"50"`
	MinBacktestRows int     `envconfig:"ENGINE_MIN_BACKTEST_ROWS" default:"50"`
	RiskFraction    float64 `envconfig:"ENGINE_RISK_FRACTION" default:"0.10"`
	InitialBalance  float64 `envconfig:"ENGINE_INITIAL_BALANCE" default:"10000"`

	// Provider pacing
	FetchRatePerSec float64 `envconfig:"ENGINE_FETCH_RATE_PER_SEC" default:"10"`
	FetchRetries    int     `envconfig:"ENGINE_FETCH_RETRIES" default:"2"`
}

type WorkerConfig struct {
	TrainerInterval time.Duration `envconfig:"WORKER_TRAINER_INTERVAL" default:"6h"`
	TrainerEnabled  bool          `envconfig:"WORKER_TRAINER_ENABLED" default:"true"`
	ScannerInterval time.Duration `envconfig:"WORKER_SCANNER_INTERVAL" default:"5m"`
	ScannerEnabled  bool          `envconfig:"WORKER_SCANNER_ENABLED" default:"true"`
	TrainTimeout    time.Duration `envconfig:"WORKER_TRAIN_TIMEOUT" default:"10m"`
	SignalCacheTTL  time.Duration `envconfig:"WORKER_SIGNAL_CACHE_TTL" default:"15m"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	Port    int  `envconfig:"METRICS_PORT" default:"9091"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from the environment (and .env when present)
func Load() (*Config, error) {
	// .env is optional; ignore missing file
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.Lookahead <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "ENGINE_LOOKAHEAD must be positive, got %d", c.Engine.Lookahead)
	}
	if c.Engine.LabelThreshold < 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "ENGINE_LABEL_THRESHOLD must be non-negative, got %f", c.Engine.LabelThreshold)
	}
	if c.Engine.RiskFraction <= 0 || c.Engine.RiskFraction >= 1 {
		return errors.Wrapf(errors.ErrInvalidInput, "ENGINE_RISK_FRACTION must be in (0,1), got %f", c.Engine.RiskFraction)
	}
	if c.Engine.Trees <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "ENGINE_TREES must be positive, got %d", c.Engine.Trees)
	}
	return nil
}
