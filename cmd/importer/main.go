package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/adapters/database"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/extraction"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
	"github.com/zatekoja/medtimeline/backend/pkg/config"
)

func main() {
	var root string
	var mode string
	var actor string
	var dryRun bool

	flag.StringVar(&root, "root", "", "Folder tree to import (required)")
	flag.StringVar(&mode, "mode", "backfill", "Import mode: backfill or sync")
	flag.StringVar(&actor, "actor", "importer", "Actor recorded on the job")
	flag.BoolVar(&dryRun, "dry-run", false, "Use a stub extractor instead of the extraction service")
	flag.Parse()

	if root == "" {
		log.Fatal("-root is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-importer", cfg.Server.Env)

	importMode := entities.ImportModeBackfill
	if mode == string(entities.ImportModeSync) {
		importMode = entities.ImportModeSync
	}

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

	if cfg.Database.Enabled() {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pgClient.Close()
		docRepo = database.NewMirroredDocumentAdapter(docStore, database.NewDocumentAdapter(pgClient))
		eventRepo = database.NewMirroredEventAdapter(eventStore, database.NewEventAdapter(pgClient))
		fingerprintRepo = database.NewFingerprintAdapter(pgClient)
		jobRepo = database.NewImportJobAdapter(pgClient)
	}

	var extractor providers.TextExtractor
	if dryRun {
		extractor = extraction.NewMockExtractor()
	} else {
		extractor = extraction.NewHTTPExtractor(&cfg.Extractor)
	}

	svc := services.NewImportService(services.ImportServiceDeps{
		Extractor:    extractor,
		DocumentRepo: docRepo,
		Fingerprints: fingerprintRepo,
		ChunkRepo:    chunkStore,
		FieldRepo:    fieldStore,
		TaskRepo:     taskStore,
		JobRepo:      jobRepo,
		EventRepo:    eventRepo,
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

	episodeSvc := services.NewEpisodeService(eventRepo, episodeStore, nil, services.EpisodePolicy{
		MaxGapDays:       cfg.Import.EpisodeGapDays,
		GroupByCondition: true,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()

	files, err := services.ScanTree(root)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", root, err)
	}
	log.Printf("Scanned %d files under %s", len(files), root)

	job, err := svc.Run(ctx, importMode, actor, files)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	episodes, err := episodeSvc.Regroup(ctx)
	if err != nil {
		log.Printf("Episode grouping failed: %v", err)
	}

	log.Printf("Import %s in %s", job.Status, time.Since(start))
	log.Printf("Scanned: %d", job.Summary.Scanned)
	log.Printf("Created: %d", job.Summary.Created)
	log.Printf("Duplicates: %d", job.Summary.Duplicates)
	log.Printf("Rejected: %d", job.Summary.Rejected)
	log.Printf("Failed: %d (dead-lettered %d, retries %d)", job.Summary.Failed, job.Summary.DeadLettered, job.Summary.RetryAttempts)
	log.Printf("Episodes: %d", len(episodes))

	for _, letter := range job.DeadLetters {
		log.Printf("Dead letter: %s (%s, retryable=%v)", letter.Path, letter.Error, letter.Retryable)
	}
}
