package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultMaxMolecules        = 1000
	DefaultMaxVisibleMolecules = 25
	DefaultXProperty           = "Human Intestinal Absorption"
	DefaultYProperty           = "Clinical Toxicity"

	DefaultModelBackend   = "descriptor"
	DefaultArtifactSource = "local"
	DefaultModelDir       = "models"

	DefaultStoreBackend  = "memory"
	DefaultStoreTTL      = 2 * time.Hour
	DefaultSweepInterval = 5 * time.Minute

	DefaultDrugBankSource = "csv"
	DefaultDrugBankCSV    = "data/drugbank_approved.csv"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "admet"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "admet:"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "predictions.completed"

	DefaultMetricsNamespace = "admet"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the server default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins. It must be called
// after unmarshalling and before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 16 << 20 // 16 MiB; bulk CSV uploads need room
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// Predict
	if cfg.Predict.MaxMolecules == 0 {
		cfg.Predict.MaxMolecules = DefaultMaxMolecules
	}
	if cfg.Predict.MaxVisibleMolecules == 0 {
		cfg.Predict.MaxVisibleMolecules = DefaultMaxVisibleMolecules
	}
	if cfg.Predict.DefaultXProperty == "" {
		cfg.Predict.DefaultXProperty = DefaultXProperty
	}
	if cfg.Predict.DefaultYProperty == "" {
		cfg.Predict.DefaultYProperty = DefaultYProperty
	}

	// Model
	if cfg.Model.Backend == "" {
		cfg.Model.Backend = DefaultModelBackend
	}
	if cfg.Model.ArtifactSource == "" {
		cfg.Model.ArtifactSource = DefaultArtifactSource
	}
	if cfg.Model.ModelDir == "" {
		cfg.Model.ModelDir = DefaultModelDir
	}
	if cfg.Model.InferenceTimeout == 0 {
		cfg.Model.InferenceTimeout = 60 * time.Second
	}
	if cfg.Model.MaxBatchSize == 0 {
		cfg.Model.MaxBatchSize = 64
	}

	// Store
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.TTL == 0 {
		cfg.Store.TTL = DefaultStoreTTL
	}
	if cfg.Store.SweepInterval == 0 {
		cfg.Store.SweepInterval = DefaultSweepInterval
	}

	// DrugBank
	if cfg.DrugBank.Source == "" {
		cfg.DrugBank.Source = DefaultDrugBankSource
	}
	if cfg.DrugBank.Source == "csv" && cfg.DrugBank.CSVPath == "" {
		cfg.DrugBank.CSVPath = DefaultDrugBankCSV
	}

	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}

	// Metrics
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
