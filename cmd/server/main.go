package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/api"
	"github.com/clinical-cds-server/internal/cache"
	"github.com/clinical-cds-server/internal/config"
	"github.com/clinical-cds-server/internal/database"
	"github.com/clinical-cds-server/internal/domain"
	"github.com/clinical-cds-server/internal/enrichment"
	"github.com/clinical-cds-server/internal/feedback"
	"github.com/clinical-cds-server/internal/knowledge"
	"github.com/clinical-cds-server/internal/repository"
	"github.com/clinical-cds-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional database: without it the server runs with logging-only
	// persistence.
	var (
		db         *database.DB
		store      domain.ResultStore
		alertRepo  *repository.AlertRepository
		alertStore api.AlertStore
	)
	if cfg.Database.Enabled {
		db, err = database.NewConnection(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Database:    cfg.Database.Database,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    int32(cfg.Database.MaxOpenConns),
			MinConns:    int32(cfg.Database.MaxIdleConns),
			MaxConnLife: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create migration runner")
		}
		if err := runner.Up(); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		runner.Close()

		store = repository.NewAssessmentRepository(db.Pool, logger)
		alertRepo = repository.NewAlertRepository(db.Pool, logger)
		alertStore = alertRepo
	} else {
		logger.Warn("Database disabled, assessments will not be persisted")
	}

	// Optional redis-backed assessment cache
	var assessments *cache.AssessmentCache
	if cfg.Cache.Enabled {
		assessments, err = cache.NewAssessmentCache(cache.Config{
			RedisURL:   cfg.Cache.RedisURL,
			DefaultTTL: cfg.Cache.DefaultTTL,
			PoolSize:   cfg.Cache.PoolSize,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Assessment cache unavailable, continuing without caching")
			assessments = nil
		}
	}

	// Static clinical knowledge
	provider, err := knowledge.NewProvider(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load clinical knowledge tables")
	}

	// Optional narrative enrichment
	var enricher domain.NarrativeEnricher
	if cfg.Enrichment.Enabled {
		enricher = enrichment.NewClient(enrichment.Config{
			Enabled: true,
			BaseURL: cfg.Enrichment.BaseURL,
			APIKey:  cfg.Enrichment.APIKey,
			Model:   cfg.Enrichment.Model,
			Timeout: cfg.Enrichment.Timeout,
		}, logger)
	}

	// Clinician feedback store
	var feedbackStore feedback.Store
	switch cfg.Feedback.Backend {
	case "postgres":
		feedbackStore, err = feedback.NewPostgresStoreFromURL(configManager.GetDatabaseURL())
	default:
		feedbackStore, err = feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}
	defer feedbackStore.Close()

	// Alert sinks: persisted when the database is up, always logged, always
	// streamed to websocket subscribers.
	hub := api.NewHub(logger)
	go hub.Run(ctx)

	sinks := []domain.AlertSink{
		repository.NewLoggingAlertSink(logger),
		api.NewBroadcastAlertSink(hub),
	}
	if alertRepo != nil {
		sinks = append(sinks, alertRepo)
	}
	alertSink := repository.NewFanoutAlertSink(sinks...)

	// Assemble the pipeline
	decisionSupport := service.NewDecisionSupportService(logger, provider, enricher, alertSink, store, assessments)

	server := api.NewServer(cfg, logger, api.Dependencies{
		Service:   decisionSupport,
		Risk:      service.NewRiskAssessor(logger),
		Knowledge: provider,
		Feedback:  feedbackStore,
		Alerts:    alertStore,
		Hub:       hub,
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting clinical decision support server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration
func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.SetOutput(os.Stdout)
	return logger
}
