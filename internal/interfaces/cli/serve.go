package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openadmet/admet-server/internal/application/plots"
	"github.com/openadmet/admet-server/internal/application/predict"
	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/drugbank"
	"github.com/openadmet/admet-server/internal/infrastructure/database/postgres"
	redisdb "github.com/openadmet/admet-server/internal/infrastructure/database/redis"
	"github.com/openadmet/admet-server/internal/infrastructure/messaging/kafka"
	"github.com/openadmet/admet-server/internal/infrastructure/model"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
	"github.com/openadmet/admet-server/internal/infrastructure/reference"
	"github.com/openadmet/admet-server/internal/infrastructure/store"
	httpserver "github.com/openadmet/admet-server/internal/interfaces/http"
	"github.com/openadmet/admet-server/internal/interfaces/http/handlers"
	"github.com/openadmet/admet-server/pkg/errors"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ADMET prediction web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			logging.SetDefault(logger)
			return RunServer(cmd.Context(), cfg, logger)
		},
	}
}

// RunServer wires every component from configuration and serves until the
// context is cancelled or a shutdown signal arrives.
func RunServer(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting admet server",
		logging.String("version", Version),
		logging.String("model_backend", cfg.Model.Backend),
		logging.String("store_backend", cfg.Store.Backend),
	)

	var metrics *prometheus.AppMetrics
	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		var err error
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
			EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	referenceSet, checks, cleanup, err := loadReference(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	st, storeCleanup, err := buildStore(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer storeCleanup()

	predictor, err := buildPredictor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer predictor.Close()

	var events kafka.EventPublisher = kafka.NewNopPublisher()
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		events = producer
	}
	defer events.Close()

	predictSvc := predict.NewService(*cfg, predictor, referenceSet, st, events, metrics, logger)
	plotsSvc := plots.NewService(cfg.Predict, referenceSet, st, metrics, logger)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		IndexHandler:     handlers.NewIndexHandler(predictSvc, plotsSvc, st, cfg.Predict, logger),
		PlotHandler:      handlers.NewPlotHandler(plotsSvc),
		DownloadHandler:  handlers.NewDownloadHandler(st, logger),
		HeartbeatHandler: handlers.NewHeartbeatHandler(st, logger),
		HealthHandler:    handlers.NewHealthHandler(checks, metrics),
		Server:           cfg.Server,
		Metrics:          metrics,
		MetricsCollector: collector,
		Logger:           logger,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("http server shutdown failed", logging.Err(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// loadReference builds the DrugBank reference set from the configured source
// and returns the readiness checks tied to it.
func loadReference(ctx context.Context, cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (*drugbank.ReferenceSet, map[string]handlers.ReadinessCheck, func(), error) {
	checks := map[string]handlers.ReadinessCheck{}
	cleanup := func() {}

	var repo drugbank.Repository
	switch cfg.DrugBank.Source {
	case "csv":
		repo = reference.NewCSVRepository(cfg.DrugBank.CSVPath, logger)
	case "postgres":
		db, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Database.MigrationPath != "" {
			if err := db.RunMigrations(cfg.Database.MigrationPath); err != nil {
				db.Close()
				return nil, nil, nil, err
			}
		}
		repo = postgres.NewReferenceRepository(db, logger)
		checks["database"] = db.HealthCheck
		cleanup = func() { db.Close() }
	default:
		return nil, nil, nil, errors.New(errors.ErrCodeReferenceLoadFailed, "unknown drugbank source").
			WithDetail("source=" + cfg.DrugBank.Source)
	}

	molecules, err := repo.LoadAll(ctx)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	set := drugbank.NewReferenceSet(molecules)

	logger.Info("drugbank reference set loaded",
		logging.String("source", cfg.DrugBank.Source),
		logging.Int("molecules", set.Size(drugbank.ATCAll)),
		logging.Int("atc_codes", len(set.ATCCodes())),
	)
	if metrics != nil {
		metrics.ReferenceSetSize.WithLabelValues(drugbank.ATCAll).Set(float64(set.Size(drugbank.ATCAll)))
	}

	checks["reference"] = func(context.Context) error {
		if set.Size(drugbank.ATCAll) == 0 {
			return errors.New(errors.ErrCodeInsufficientReference, "reference set is empty")
		}
		return nil
	}
	return set, checks, cleanup, nil
}

// buildStore selects the prediction store backend.
func buildStore(cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		s := store.NewMemoryStore(cfg.Store, logger, metrics)
		return s, func() { s.Close() }, nil
	case "redis":
		client, err := redisdb.NewClient(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewRedisStore(client, *cfg, metrics)
		return s, func() { client.Close() }, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeStoreUnavailable, "unknown store backend").
			WithDetail("backend=" + cfg.Store.Backend)
	}
}

// buildPredictor fetches model artifacts if needed and loads the predictor.
func buildPredictor(ctx context.Context, cfg *config.Config, logger logging.Logger) (model.Predictor, error) {
	if cfg.Model.Backend == "onnx" {
		if err := model.FetchArtifacts(ctx, cfg.Model, cfg.MinIO, logger); err != nil {
			return nil, err
		}
	}
	return model.NewPredictor(cfg.Model, logger)
}
