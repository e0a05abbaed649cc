package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/config"
	"github.com/cuongbtq/pdf-retriever/internal/metrics"
	"github.com/cuongbtq/pdf-retriever/internal/worker"
	"github.com/cuongbtq/pdf-retriever/internal/worker/sink"
	"github.com/cuongbtq/pdf-retriever/internal/worker/storage"
	"github.com/cuongbtq/pdf-retriever/shared/logger"
	"github.com/cuongbtq/pdf-retriever/shared/postgresql"
	"github.com/cuongbtq/pdf-retriever/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const serviceName = "worker-service"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	workerID := workerID()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("worker_id", workerID),
		slog.String("destination", cfg.Worker.Destination),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	recorder := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)
	if err := recorder.EnsureSchema(ctx); err != nil {
		return err
	}

	documentSink, err := sink.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage sink: %w", err)
	}
	defer documentSink.Close()

	appLogger.Info("Storage sink ready",
		slog.String("destination", documentSink.Destination()),
		slog.String("location", documentSink.Location()),
	)

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	if cfg.Worker.SpoolDir != "" {
		if err := os.MkdirAll(cfg.Worker.SpoolDir, 0o750); err != nil {
			return fmt.Errorf("failed to create spool directory: %w", err)
		}
	}

	fetcher := worker.NewHTTPFetcher(worker.FetcherConfig{
		Timeout:   cfg.Worker.FetchTimeout,
		MaxBytes:  cfg.Worker.MaxDocumentBytes,
		SpoolDir:  cfg.Worker.SpoolDir,
		UserAgent: cfg.Worker.UserAgent,
	}, appLogger.Logger)

	processor := worker.NewProcessor(fetcher, documentSink, recorder, rabbitClient, appLogger.Logger)

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:          appLogger.Logger,
		Broker:          rabbitClient,
		Processor:       processor,
		WorkerID:        workerID,
		Concurrency:     cfg.Worker.Concurrency,
		ShutdownTimeout: cfg.Worker.ShutdownTimeout,
	})

	metricsSrv := startMetricsServer(cfg.Worker.MetricsPort, appLogger.Logger)
	if metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	appLogger.Info("Worker service started successfully")

	if err := workerInstance.Start(ctx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// workerID names this process in consumer tags and logs
func workerID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// startMetricsServer exposes /metrics on port. Port 0 disables it.
func startMetricsServer(port int, logger *slog.Logger) *http.Server {
	if port == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed",
				slog.Any("error", err),
			)
		}
	}()

	logger.Info("Metrics server listening",
		slog.String("address", srv.Addr),
	)
	return srv
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		Service:      serviceName,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		DSN:             cfg.DSN,
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnectTimeout:  cfg.ConnectTimeout,
		RetryAttempts:   cfg.RetryAttempts,
		RetryInterval:   cfg.RetryInterval,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		URL:                cfg.URL,
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}
