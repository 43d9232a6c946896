package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/zatekoja/medtimeline/backend/internal/adapters/cache"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/database"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/events"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/extraction"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/search"
	"github.com/zatekoja/medtimeline/backend/internal/api/handlers"
	"github.com/zatekoja/medtimeline/backend/internal/api/middleware"
	"github.com/zatekoja/medtimeline/backend/internal/api/routes"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
	queryservices "github.com/zatekoja/medtimeline/backend/internal/query/services"
	"github.com/zatekoja/medtimeline/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Canonical in-memory stores
	docStore := memory.NewDocumentStore()
	fingerprintStore := memory.NewFingerprintStore()
	chunkStore := memory.NewChunkStore()
	fieldStore := memory.NewFieldStore()
	taskStore := memory.NewTaskStore()
	jobStore := memory.NewJobStore()
	eventStore := memory.NewEventStore()
	episodeStore := memory.NewEpisodeStore()

	docRepo := repositories.DocumentRepository(docStore)
	fingerprintRepo := repositories.FingerprintRepository(fingerprintStore)
	jobRepo := repositories.ImportJobRepository(jobStore)
	eventRepo := repositories.EventRepository(eventStore)

	// Durable mirror when PostgreSQL is configured
	if cfg.Database.Enabled() {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Printf("Warning: Failed to initialize PostgreSQL client: %v", err)
		} else {
			defer pgClient.Close()
			docRepo = database.NewMirroredDocumentAdapter(docStore, database.NewDocumentAdapter(pgClient))
			eventRepo = database.NewMirroredEventAdapter(eventStore, database.NewEventAdapter(pgClient))
			fingerprintRepo = database.NewFingerprintAdapter(pgClient)
			jobRepo = database.NewImportJobAdapter(pgClient)
		}
	}

	// Redis powers the event bus, response cache and trigger idempotency
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	var rawRedis *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis client: %v", err)
		} else {
			defer redisClient.Close()
			rawRedis = redisClient
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}

	// Typesense powers free-text document search
	var searchRepo repositories.DocumentSearchRepository
	if cfg.Typesense.Enabled() {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		} else {
			adapter := search.NewTypesenseAdapter(typesenseClient)
			if err := adapter.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: Failed to init Typesense schema: %v", err)
			}
			searchRepo = adapter
		}
	}

	extractor := extraction.NewHTTPExtractor(&cfg.Extractor)

	importService := services.NewImportService(services.ImportServiceDeps{
		Extractor:    extractor,
		DocumentRepo: docRepo,
		Fingerprints: fingerprintRepo,
		ChunkRepo:    chunkStore,
		FieldRepo:    fieldStore,
		TaskRepo:     taskStore,
		JobRepo:      jobRepo,
		EventRepo:    eventRepo,
		SearchRepo:   searchRepo,
		Bus:          eventBus,
	}, services.ImportServiceConfig{
		MaxRetries:    cfg.Import.MaxRetries,
		MaxTextLength: cfg.Extractor.MaxTextLength,
		Chunker: services.ChunkerConfig{
			MaxChars:     cfg.Import.ChunkMaxChars,
			MinChars:     cfg.Import.ChunkMinChars,
			OverlapChars: cfg.Import.ChunkOverlap,
		},
		Engine: services.ExtractionEngineConfig{
			MaxCandidates: cfg.Import.MaxCandidates,
			PreviewLength: 240,
		},
	})

	verificationService := services.NewVerificationService(taskStore, docRepo, fieldStore, eventRepo, eventBus)
	episodeService := services.NewEpisodeService(eventRepo, episodeStore, eventBus, services.EpisodePolicy{
		MaxGapDays:       cfg.Import.EpisodeGapDays,
		GroupByCondition: true,
	})
	queryService := queryservices.NewTimelineQueryService(
		docRepo, chunkStore, fieldStore, eventRepo, episodeStore, jobRepo, searchRepo,
	)

	var idempotencyRedis *redislib.Client
	if rawRedis != nil {
		idempotencyRedis = rawRedis.Client()
	}
	importHandler := handlers.NewImportHandler(importService, episodeService, queryService, idempotencyRedis, 24*time.Hour)
	timelineHandler := handlers.NewTimelineHandler(queryService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	streamHandler := handlers.NewStreamHandler(eventBus)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	router := routes.NewRouter(
		importHandler,
		timelineHandler,
		verificationHandler,
		streamHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
