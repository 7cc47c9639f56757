// Package config defines all configuration structures for the ADMET server.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// SecureCookies marks the session cookie as Secure; enable behind TLS.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

// PredictConfig holds prediction pipeline limits and defaults.
type PredictConfig struct {
	// MaxMolecules caps the number of SMILES accepted per request.
	// Zero means unlimited.
	MaxMolecules int `mapstructure:"max_molecules"`

	// MaxVisibleMolecules caps how many molecules are rendered on the
	// results page; the full set is still stored and downloadable.
	MaxVisibleMolecules int `mapstructure:"max_visible_molecules"`

	// DefaultXProperty and DefaultYProperty are the initial scatter axes.
	DefaultXProperty string `mapstructure:"default_x_property"`
	DefaultYProperty string `mapstructure:"default_y_property"`
}

// ModelConfig holds ADMET model loading and inference parameters.
type ModelConfig struct {
	// Backend selects the predictor: "onnx" for real inference, "descriptor"
	// for the descriptor-derived fallback that needs no model artifacts.
	Backend string `mapstructure:"backend"`

	// ONNXLibraryPath points at the onnxruntime shared library.
	ONNXLibraryPath string `mapstructure:"onnx_library_path"`

	// ModelDir is the local directory holding model artifacts (model.onnx,
	// metadata.json). When ArtifactSource is "minio" artifacts are fetched
	// into this directory at startup.
	ModelDir string `mapstructure:"model_dir"`

	// ArtifactSource selects where model artifacts come from: "local" | "minio".
	ArtifactSource string `mapstructure:"artifact_source"`

	InferenceTimeout time.Duration `mapstructure:"inference_timeout"`
	MaxBatchSize     int           `mapstructure:"max_batch_size"`
}

// StoreConfig holds prediction store parameters.
type StoreConfig struct {
	// Backend selects the store implementation: "memory" | "redis".
	Backend string `mapstructure:"backend"`

	// TTL is how long an entry survives without a heartbeat or access.
	TTL time.Duration `mapstructure:"ttl"`

	// SweepInterval controls how often the memory backend scans for
	// expired entries.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// DrugBankConfig holds reference dataset parameters.
type DrugBankConfig struct {
	// Source selects where the approved-drug reference set is loaded from:
	// "csv" | "postgres".
	Source string `mapstructure:"source"`

	// CSVPath is the reference CSV file location when Source is "csv".
	CSVPath string `mapstructure:"csv_path"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Kafka producer parameters for prediction events.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the entire server.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Predict  PredictConfig  `mapstructure:"predict"`
	Model    ModelConfig    `mapstructure:"model"`
	Store    StoreConfig    `mapstructure:"store"`
	DrugBank DrugBankConfig `mapstructure:"drugbank"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Predict
	if c.Predict.MaxMolecules < 0 {
		return fmt.Errorf("config: predict.max_molecules must be >= 0, got %d", c.Predict.MaxMolecules)
	}
	if c.Predict.MaxVisibleMolecules < 1 {
		return fmt.Errorf("config: predict.max_visible_molecules must be >= 1, got %d", c.Predict.MaxVisibleMolecules)
	}

	// Model
	switch c.Model.Backend {
	case "onnx", "descriptor":
	default:
		return fmt.Errorf("config: model.backend %q is invalid; expected onnx|descriptor", c.Model.Backend)
	}
	switch c.Model.ArtifactSource {
	case "local", "minio":
	default:
		return fmt.Errorf("config: model.artifact_source %q is invalid; expected local|minio", c.Model.ArtifactSource)
	}
	if c.Model.Backend == "onnx" && c.Model.ModelDir == "" {
		return fmt.Errorf("config: model.model_dir is required when model.backend is onnx")
	}
	if c.Model.ArtifactSource == "minio" {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required when model.artifact_source is minio")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required when model.artifact_source is minio")
		}
	}

	// Store
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: store.backend %q is invalid; expected memory|redis", c.Store.Backend)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("config: store.ttl must be positive, got %s", c.Store.TTL)
	}
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when store.backend is redis")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// DrugBank
	switch c.DrugBank.Source {
	case "csv", "postgres":
	default:
		return fmt.Errorf("config: drugbank.source %q is invalid; expected csv|postgres", c.DrugBank.Source)
	}
	if c.DrugBank.Source == "csv" && c.DrugBank.CSVPath == "" {
		return fmt.Errorf("config: drugbank.csv_path is required when drugbank.source is csv")
	}
	if c.DrugBank.Source == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required when drugbank.source is postgres")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when drugbank.source is postgres")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when drugbank.source is postgres")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
