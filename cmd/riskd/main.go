package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"

	"github.com/veridex/riskengine/internal/application/usecase"
	"github.com/veridex/riskengine/internal/domain/port"
	"github.com/veridex/riskengine/internal/domain/service"
	"github.com/veridex/riskengine/internal/infrastructure/config"
	"github.com/veridex/riskengine/internal/infrastructure/memory"
	"github.com/veridex/riskengine/internal/infrastructure/messaging"
	"github.com/veridex/riskengine/internal/infrastructure/postgres"
	"github.com/veridex/riskengine/internal/infrastructure/providers"
	"github.com/veridex/riskengine/internal/infrastructure/registry"
	grpcpresentation "github.com/veridex/riskengine/internal/presentation/grpc"
	"github.com/veridex/riskengine/internal/presentation/rest"
	"github.com/veridex/riskengine/pkg/kafka"
	"github.com/veridex/riskengine/pkg/observability"
	pkgpostgres "github.com/veridex/riskengine/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: "json",
	})
	slog.SetDefault(logger)

	logger.Info("starting risk-engine",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: "risk-engine",
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	// Metrics exporter and /metrics handler.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: "risk-engine",
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	otel.SetMeterProvider(meterProvider)

	// Governance bundle: thresholds, weights, calibration, release policy and
	// seed models. The engine refuses to start without a valid bundle.
	gov, err := config.LoadGovernance(cfg.GovernancePath)
	if err != nil {
		logger.Error("failed to load governance config", "error", err)
		os.Exit(1)
	}

	// Audit chain: postgres in production, in-memory for development.
	var (
		audit  port.AuditChain
		pool   *pgxpool.Pool
		checks = map[string]rest.ReadinessCheck{}
	)
	switch cfg.AuditStore {
	case "postgres":
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		defer dbCancel()

		pool, err = pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(dbCtx); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		if err := pkgpostgres.RunMigrations(cfg.DatabaseURL, "file://migrations"); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		audit = postgres.NewAuditChain(pool)
		checks["database"] = func(ctx context.Context) error {
			return pkgpostgres.HealthCheck(ctx, pool)
		}
	case "memory":
		logger.Warn("using in-memory audit chain, records do not survive restarts")
		audit = memory.NewAuditChain()
	default:
		logger.Error("unknown audit store", "store", cfg.AuditStore)
		os.Exit(1)
	}

	// Event publisher: Kafka when a broker is configured.
	var publisher port.EventPublisher
	if cfg.KafkaBroker != "" {
		producer := kafka.NewProducer(kafka.Config{Brokers: []string{cfg.KafkaBroker}})
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
	} else {
		logger.Warn("no kafka broker configured, events are logged only")
		publisher = messaging.NewLogPublisher(logger)
	}
	publisher = messaging.NewMeteredPublisher(publisher)

	// Signal providers behind circuit breakers.
	breakerGroup := providers.NewBreakerGroup([]port.SignalProvider{
		providers.NewTransformerProvider(),
		providers.NewLinearProvider(),
		providers.NewRulesProvider(),
	}, providers.DefaultBreakerConfig())

	weights := gov.Weights
	if len(weights) == 0 {
		weights = map[string]float64{"transformer": 0.45, "linear": 0.30, "rules": 0.25}
	}
	ensemble, err := service.NewSignalEnsemble(breakerGroup.Providers(), service.EnsembleConfig{
		Weights:       weights,
		DomainWeights: gov.DomainWeights,
		MinQuorum:     gov.MinQuorum,
	}, logger)
	if err != nil {
		logger.Error("failed to build signal ensemble", "error", err)
		os.Exit(1)
	}

	calibrator, err := service.NewCalibrator(gov.Calibration)
	if err != nil {
		logger.Error("failed to load calibration artifacts", "error", err)
		os.Exit(1)
	}

	// Model registry seeded from the governance bundle.
	modelRegistry := registry.NewModelRegistry(gov.ReleasePolicy)
	if err := modelRegistry.Seed(gov.SeedVersions(), gov.ActiveVersions()); err != nil {
		logger.Error("failed to seed model registry", "error", err)
		os.Exit(1)
	}

	// Drift monitor, with offline reference distributions where declared.
	drift := service.NewDriftMonitor(cfg.DriftWindow, publisher, logger)
	for version, scores := range gov.DriftBaseline {
		drift.SetReference(version, scores)
	}

	// Drift feed: consume the fleet's evaluation stream so every instance
	// monitors global traffic, not just its own. The per-instance consumer
	// group gives each instance the full stream, and the feed replaces the
	// in-process observation so local evaluations are not counted twice.
	localDrift := drift
	if cfg.KafkaBroker != "" {
		feed := messaging.NewDriftFeed(kafka.Config{
			Brokers:       []string{cfg.KafkaBroker},
			ConsumerGroup: messaging.FeedGroupID(),
		}, cfg.KafkaTopic, drift, logger)
		defer feed.Close()
		go func() {
			if err := feed.Start(ctx); err != nil {
				logger.Error("drift feed stopped", "error", err)
			}
		}()
		localDrift = nil
	}

	defaults, domains := gov.PolicyThresholds()
	policy := service.NewGovernancePolicy(defaults, domains)

	// Wire use cases.
	evaluateUC := usecase.NewEvaluateText(
		service.NewDataQualityGate(service.DefaultQualityGateConfig()),
		ensemble,
		calibrator,
		service.NewEnsembleVarianceEstimator(0.25),
		service.NewPoliticalClassifier(0.3),
		policy,
		modelRegistry,
		audit,
		publisher,
		localDrift,
		cfg.RequestTimeout,
		logger,
	)
	governanceUC := usecase.NewGovernance(modelRegistry, audit, drift)
	promoteUC := usecase.NewPromoteModel(modelRegistry, publisher, logger)

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(evaluateUC, governanceUC, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), cfg.TLSCertFile, cfg.TLSKeyFile, logger)

	// HTTP server: evaluation and governance endpoints, health, metrics.
	httpMux := http.NewServeMux()
	rest.NewHandler(evaluateUC, governanceUC, promoteUC, logger).RegisterRoutes(httpMux)
	rest.NewHealthHandler(logger, breakerGroup, checks).RegisterRoutes(httpMux)
	httpMux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      rest.Instrument(httpMux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("risk-engine started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"audit_store", cfg.AuditStore,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down risk-engine")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("risk-engine stopped")
}
