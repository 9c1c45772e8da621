// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	awsclients "provider-discovery/internal/common/aws"
	"provider-discovery/internal/common/camunda"
	"provider-discovery/internal/common/config"
	"provider-discovery/internal/common/database"
	commonhttp "provider-discovery/internal/common/http"
	"provider-discovery/internal/common/logger"
	"provider-discovery/internal/common/observability"
	"provider-discovery/internal/discovery/classifier"
	"provider-discovery/internal/discovery/filter"
	"provider-discovery/internal/discovery/ranking"
	"provider-discovery/internal/discovery/session"
	"provider-discovery/internal/discovery/source"

	cp "provider-discovery/internal/workers/ai-matching/classify-project"
	nmp "provider-discovery/internal/workers/ai-matching/notify-matched-providers"
	rm "provider-discovery/internal/workers/ai-matching/rank-matches"
	psf "provider-discovery/internal/workers/provider/parse-search-filters"
	sp "provider-discovery/internal/workers/provider/search-providers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("providerSource", cfg.Search.Source),
	)

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()
	var checks []readinessCheck

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	checks = append(checks, readinessCheck{name: "zeebe", check: zeebe.HealthCheck})
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis: sequencing and the provider cache ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	checks = append(checks, readinessCheck{name: "redis", check: redisClient.Ping})
	zapLog.Info("Redis connected successfully")

	// --- Provider source ---
	var providers source.ProviderSource
	switch cfg.Search.Source {
	case config.SourceElasticsearch:
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		providers = source.NewElasticsearchSource(esClient.Client, esClient.Index, source.DefaultSearchSize)
		checks = append(checks, readinessCheck{name: "elasticsearch", check: esClient.Ping})
		zapLog.Info("Elasticsearch connected successfully")

	default:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		providers = source.NewPostgresSource(pg.DB)
		checks = append(checks, readinessCheck{name: "postgres", check: pg.Ready})
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Search.CacheTTL > 0 {
		providers = source.NewCachedSource(providers, redisClient.Client, cfg.Search.Source,
			config.GetDuration(cfg.Search.CacheTTL), log)
		zapLog.Info("provider cache enabled", zap.Int("ttlMs", cfg.Search.CacheTTL))
	}

	// --- Discovery engine ---
	engine := filter.NewEngine()
	sequencer := session.NewRedisSequencer(redisClient.Client, config.GetDuration(cfg.Search.SequenceTTL))

	transport := commonhttp.NewClient(config.GetDuration(cfg.APIs.Classifier.Timeout))
	if key := cfg.APIs.Classifier.APIKey; key != "" {
		transport = transport.WithHeader("Authorization", "Bearer "+key)
	}
	projectClassifier := classifier.New(classifier.Options{
		BaseURL:            cfg.APIs.Classifier.BaseURL,
		Timeout:            config.GetDuration(cfg.APIs.Classifier.Timeout),
		FallbackConfidence: cfg.Classifier.FallbackConfidence,
		Catalog:            classifier.CatalogFromConfig(cfg.Classifier),
	}, transport, obs.Tracer("classifier"), log)

	ranker, err := ranking.NewRanker(ranking.WeightsFromConfig(cfg.Matching), cfg.Matching.ReviewThreshold)
	if err != nil {
		zapLog.Fatal("invalid matching weights", zap.Error(err))
	}

	// --- Workers ---
	client := zeebe.GetClient()
	var workers []worker.JobWorker
	register := func(taskType string, handler worker.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	register(psf.TaskType, psf.NewHandler(psf.NewConfig(cfg), engine, log).Handle)
	register(sp.TaskType, sp.NewHandler(sp.NewConfig(cfg), providers, engine, sequencer, log).Handle)
	register(cp.TaskType, cp.NewHandler(cp.NewConfig(cfg), projectClassifier, sequencer, log).Handle)
	register(rm.TaskType, rm.NewHandler(rm.NewConfig(cfg), providers, engine, ranker, sequencer, log).Handle)

	if config.IsWorkerEnabled(cfg, nmp.TaskType) {
		aws, err := awsclients.NewClients(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		register(nmp.TaskType, nmp.NewHandler(nmp.NewConfig(cfg), aws.SES, aws.SNS, log).Handle)
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := newHealthServer(fmt.Sprintf(":%d", cfg.App.HealthPort), checks)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
