// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, TextProc, Search, Cluster, Redis, Postgres, Kafka,
// etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	TextProc  TextProcConfig  `yaml:"textproc"`
	Search    SearchConfig    `yaml:"search"`
	Cluster   ClusterConfig   `yaml:"cluster"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
	// WriteRateLimit is the number of document writes per minute allowed for
	// a single client address. Zero disables limiting.
	WriteRateLimit int `yaml:"writeRateLimit"`
}

// CorpusConfig controls the document store.
type CorpusConfig struct {
	SeedFile        string `yaml:"seedFile"`
	DefaultCategory string `yaml:"defaultCategory"`
	MaxTextLength   int    `yaml:"maxTextLength"`
	MaxBulkRows     int    `yaml:"maxBulkRows"`
}

// TextProcConfig selects the normalizer language.
type TextProcConfig struct {
	Language string `yaml:"language"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	SuggestThreshold int           `yaml:"suggestThreshold"`
	StatsTopTerms    int           `yaml:"statsTopTerms"`
	ClusterTimeout   time.Duration `yaml:"clusterTimeout"`
}

// ClusterConfig controls K-Means.
type ClusterConfig struct {
	K             int    `yaml:"k"`
	Seed          uint64 `yaml:"seed"`
	MaxIterations int    `yaml:"maxIterations"`
	Workers       int    `yaml:"workers"`
}

// FeedbackConfig controls pseudo relevance feedback.
type FeedbackConfig struct {
	TopK        int     `yaml:"topK"`
	ExpandTerms int     `yaml:"expandTerms"`
	Alpha       float64 `yaml:"alpha"`
	Beta        float64 `yaml:"beta"`
}

// PostgresConfig holds PostgreSQL connection parameters. Persistence is off
// unless Enabled is set.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings for the analytics stream.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls event buffering and, with postgres enabled, how
// often aggregate snapshots are persisted.
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  45 * time.Second,
			MaxBodyBytes:    32 << 20,
			AllowOrigins:    []string{"*"},
			WriteRateLimit:  600,
		},
		Corpus: CorpusConfig{
			DefaultCategory: "Umum",
			MaxTextLength:   1 << 20,
			MaxBulkRows:     10000,
		},
		TextProc: TextProcConfig{
			Language: "indonesian",
		},
		Search: SearchConfig{
			SuggestThreshold: 1,
			StatsTopTerms:    50,
			ClusterTimeout:   30 * time.Second,
		},
		Cluster: ClusterConfig{
			K:             2,
			Seed:          0,
			MaxIterations: 100,
			Workers:       4,
		},
		Feedback: FeedbackConfig{
			TopK:        3,
			ExpandTerms: 5,
			Alpha:       1.0,
			Beta:        0.75,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "retrievallab",
			User:            "retrievallab",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				AnalyticsEvents: "retrieval-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			BatchSize:        100,
			FlushInterval:    2 * time.Second,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.TextProc.Language {
	case "indonesian", "english":
	default:
		return fmt.Errorf("textproc.language %q is not supported (indonesian, english)", c.TextProc.Language)
	}
	if c.Cluster.K < 1 {
		return fmt.Errorf("cluster.k must be at least 1, got %d", c.Cluster.K)
	}
	if c.Cluster.MaxIterations < 1 {
		return fmt.Errorf("cluster.maxIterations must be at least 1, got %d", c.Cluster.MaxIterations)
	}
	if c.Corpus.MaxBulkRows < 1 {
		return fmt.Errorf("corpus.maxBulkRows must be at least 1, got %d", c.Corpus.MaxBulkRows)
	}
	if c.Feedback.TopK < 1 {
		return fmt.Errorf("feedback.topK must be at least 1, got %d", c.Feedback.TopK)
	}
	if strings.TrimSpace(c.Corpus.DefaultCategory) == "" {
		c.Corpus.DefaultCategory = "Umum"
	}
	return nil
}

// applyEnvOverrides reads RL_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RL_SERVER_ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("RL_CORPUS_SEED_FILE"); v != "" {
		cfg.Corpus.SeedFile = v
	}
	if v := os.Getenv("RL_TEXTPROC_LANGUAGE"); v != "" {
		cfg.TextProc.Language = v
	}
	if v := os.Getenv("RL_CLUSTER_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Cluster.K = k
		}
	}
	if v := os.Getenv("RL_CLUSTER_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Cluster.Seed = seed
		}
	}
	if v := os.Getenv("RL_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = parseBool(v)
	}
	if v := os.Getenv("RL_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RL_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RL_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RL_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RL_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RL_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("RL_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v)
	}
	if v := os.Getenv("RL_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RL_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("RL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RL_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RL_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RL_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
