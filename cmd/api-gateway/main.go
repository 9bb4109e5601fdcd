// Package main API Gateway 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"avangard-rag-api/internal/application/auth"
	"avangard-rag-api/internal/application/document"
	"avangard-rag-api/internal/application/retrieval"
	"avangard-rag-api/internal/application/search"
	"avangard-rag-api/internal/config"
	"avangard-rag-api/internal/infrastructure/embedding"
	"avangard-rag-api/internal/infrastructure/messaging"
	"avangard-rag-api/internal/infrastructure/persistence/milvus"
	"avangard-rag-api/internal/infrastructure/persistence/postgres"
	"avangard-rag-api/internal/infrastructure/persistence/redis"
	"avangard-rag-api/internal/infrastructure/rerank"
	"avangard-rag-api/internal/infrastructure/storage"
	"avangard-rag-api/internal/interfaces/http/handler"
	"avangard-rag-api/internal/interfaces/http/router"
	"avangard-rag-api/pkg/logger"
	"avangard-rag-api/pkg/tracer"
	"avangard-rag-api/pkg/utils"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-gateway",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 数据层
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

	userRepo := postgres.NewUserRepository(pgClient)
	docRepo := postgres.NewDocumentRepository(pgClient)
	queryLogRepo := postgres.NewQueryLogRepository(pgClient)

	// 检索链路
	searchCache := retrieval.NewSearchCache(
		redis.NewSearchStore(redisClient),
		cfg.Cache.Search.Prefix,
		cfg.Cache.Search.TTL,
	)

	embedder := embedding.NewClient(&cfg.Embedding)

	var reranker retrieval.Reranker
	if cfg.Rerank.Enabled {
		reranker = rerank.NewClient(&cfg.Rerank)
	}

	engine := retrieval.NewEngine(embedder, vectorRepo, reranker, searchCache, retrieval.EngineOptions{
		DefaultLimit:   cfg.Search.DefaultLimit,
		MaxLimit:       cfg.Search.MaxLimit,
		ScoreThreshold: cfg.Search.ScoreThreshold,
		RerankTopN:     cfg.Search.RerankTopN,
		ExpandQueries:  cfg.Search.ExpandQueries,
	})

	// 文件存储与消息队列
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal(ctx, "failed to init file store", err)
	}

	producer := messaging.NewProducer(redisClient.Raw(), int64(cfg.Messaging.RedisStream.MaxLen))

	// 应用服务
	jwtManager := utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.Expiration,
		cfg.Security.JWT.RefreshExpiration,
		cfg.Security.JWT.Issuer,
	)

	authSvc := auth.NewService(userRepo, jwtManager)
	docSvc := document.NewService(docRepo, producer, fileStore, searchCache, cfg.Server.HTTP.MaxUploadSize)
	searchSvc := search.NewService(engine, queryLogRepo)

	// HTTP 层
	r := router.New(cfg, jwtManager)
	r.Register(
		handler.NewHealthHandler(pgClient, redisClient, milvusClient),
		handler.NewAuthHandler(authSvc),
		handler.NewDocumentHandler(docSvc, cfg.Server.HTTP.MaxUploadSize),
		handler.NewSearchHandler(searchSvc),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
