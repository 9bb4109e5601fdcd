// Package main 异步索引执行器入口（index-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"avangard-rag-api/internal/application/document"
	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/config"
	"avangard-rag-api/internal/infrastructure/embedding"
	"avangard-rag-api/internal/infrastructure/extract"
	"avangard-rag-api/internal/infrastructure/messaging"
	"avangard-rag-api/internal/infrastructure/persistence/milvus"
	"avangard-rag-api/internal/infrastructure/persistence/postgres"
	"avangard-rag-api/internal/infrastructure/persistence/redis"
	"avangard-rag-api/internal/infrastructure/storage"
	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "index-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	vectorRepo := milvus.NewRepository(milvusClient, cfg.Embedding.Dimension)
	if err := vectorRepo.EnsureCollection(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure milvus collection", err)
	}

	docRepo := postgres.NewDocumentRepository(pgClient)

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal(ctx, "failed to init file store", err)
	}

	searchCache := retrieval.NewSearchCache(
		redis.NewSearchStore(redisClient),
		cfg.Cache.Search.Prefix,
		cfg.Cache.Search.TTL,
	)

	indexer := retrieval.NewIndexer(
		extract.NewExtractor(),
		embedding.NewClient(&cfg.Embedding),
		vectorRepo,
		cfg.Embedding.BatchSize,
	)

	processor := document.NewProcessor(docRepo, indexer, fileStore, searchCache)

	consumerCfg := func(stream messaging.Stream) messaging.ConsumerConfig {
		return messaging.ConsumerConfig{
			Stream:        stream,
			Group:         messaging.ConsumerGroupIndexWorker,
			ConsumerName:  hostnameConsumerName(),
			BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
			ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
			RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
			Backoff: messaging.BackoffConfig{
				Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
				Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
				Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
			},
		}
	}

	indexConsumer := messaging.NewConsumer(redisClient.Raw(), consumerCfg(messaging.StreamDocumentIndex))
	indexConsumer.RegisterHandler(messaging.TypeDocumentIndex, processor.HandleIndex)

	deleteConsumer := messaging.NewConsumer(redisClient.Raw(), consumerCfg(messaging.StreamDocumentDelete))
	deleteConsumer.RegisterHandler(messaging.TypeDocumentDelete, processor.HandleDelete)

	if err := indexConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start index consumer", err)
	}
	if err := deleteConsumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start delete consumer", err)
	}

	go indexConsumer.MonitorDLQ(ctx, 100)
	go deleteConsumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("index-worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("index-worker shutting down")
	indexConsumer.Stop()
	deleteConsumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
