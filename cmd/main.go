package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"augur/internal/adapters/clickhouse"
	"augur/internal/adapters/config"
	"augur/internal/adapters/errors/noop"
	"augur/internal/adapters/errors/sentry"
	kafkaadapter "augur/internal/adapters/kafka"
	redisadapter "augur/internal/adapters/redis"
	"augur/internal/consumers"
	"augur/internal/metrics"
	chrepo "augur/internal/repository/clickhouse"
	redisrepo "augur/internal/repository/redis"
	marketdata "augur/internal/services/market_data"
	"augur/internal/services/signals"
	"augur/internal/workers"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	redisClient, err := redisadapter.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Repositories and services
	barRepo := chrepo.NewMarketDataRepository(chClient.Conn())
	signalCache := redisrepo.NewSignalCache(redisClient.Client(), cfg.Workers.SignalCacheTTL)

	marketDataService := marketdata.NewService(barRepo, cfg.Engine, log)
	signalService := signals.NewService(marketDataService, cfg.Engine, log)

	// Metrics endpoint
	metrics.Init()
	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics.Port, log)
	}

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewModelTrainerWorker(signalService, cfg.Engine, cfg.Workers))
	scheduler.RegisterWorker(workers.NewSignalScannerWorker(signalService, signalCache, cfg.Engine, cfg.Workers))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// Bar ingestion from Kafka
	if cfg.Kafka.IngestBars {
		consumer := kafkaadapter.NewConsumer(kafkaadapter.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topic:   cfg.Kafka.BarsTopic,
		})

		barConsumer := consumers.NewBarConsumer(consumer, barRepo, cfg.Kafka.BarsTopic, log)
		go func() {
			if err := barConsumer.Start(ctx); err != nil {
				log.ErrorWithContext(ctx, err, map[string]string{"component": "bar_consumer"})
			}
		}()
	}

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// startMetricsServer exposes the Prometheus endpoint on its own port
func startMetricsServer(port int, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infow("Metrics server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()
}

// waitForShutdown blocks until a termination signal, then shuts down workers
// and flushes the error tracker
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown incomplete: %v", err)
	}

	if errorTracker != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := errorTracker.Flush(flushCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
