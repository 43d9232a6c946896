package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
	"github.com/zatekoja/medtimeline/backend/pkg/retry"
)

// ImportServiceDeps wires the orchestrator's collaborators. SearchRepo
// and Bus are optional; a nil value disables the concern.
type ImportServiceDeps struct {
	Extractor    providers.TextExtractor
	DocumentRepo repositories.DocumentRepository
	Fingerprints repositories.FingerprintRepository
	ChunkRepo    repositories.ChunkRepository
	FieldRepo    repositories.FieldRepository
	TaskRepo     repositories.VerificationTaskRepository
	JobRepo      repositories.ImportJobRepository
	EventRepo    repositories.EventRepository
	SearchRepo   repositories.DocumentSearchRepository
	Bus          providers.EventBus
}

// ImportServiceConfig tunes the pipeline
type ImportServiceConfig struct {
	MaxRetries    int
	MaxTextLength int
	Chunker       ChunkerConfig
	Engine        ExtractionEngineConfig
}

// DefaultImportServiceConfig returns pipeline defaults: one retry on
// transient extraction failure.
func DefaultImportServiceConfig() ImportServiceConfig {
	return ImportServiceConfig{
		MaxRetries:    1,
		MaxTextLength: 200000,
		Chunker:       DefaultChunkerConfig(),
		Engine:        DefaultExtractionEngineConfig(),
	}
}

// ImportService drives ingestion runs: dedup via the fingerprint set,
// extraction with bounded retry, chunking, heuristic extraction,
// verification task creation and clinical event derivation.
type ImportService struct {
	deps ImportServiceDeps
	cfg  ImportServiceConfig
}

// NewImportService creates a new import orchestrator
func NewImportService(deps ImportServiceDeps, cfg ImportServiceConfig) *ImportService {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultImportServiceConfig().MaxTextLength
	}
	return &ImportService{deps: deps, cfg: cfg}
}

// Run executes one ingestion run over the given raw files. Candidates
// are processed sequentially in scan order; every file ends with
// exactly one item status. The returned job is terminal: completed if
// at least one item was imported or deduplicated, failed otherwise.
func (s *ImportService) Run(ctx context.Context, mode entities.ImportMode, actor string, files []RawFile) (*entities.ImportJob, error) {
	ctx, span := observability.StartSpan(ctx, "import.run")
	defer span.End()
	span.SetAttributes(attribute.Int("import.scanned", len(files)))

	logger := observability.LoggerFromContext(ctx)

	job := &entities.ImportJob{
		ID:        uuid.NewString(),
		Mode:      mode,
		Actor:     actor,
		Status:    entities.JobStatusQueued,
		StartedAt: time.Now(),
	}
	if err := s.deps.JobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	job.Status = entities.JobStatusProcessing
	if err := s.deps.JobRepo.Update(ctx, job); err != nil {
		return nil, err
	}

	result := Normalize(files)
	job.Summary.Scanned = len(files)
	job.Summary.Accepted = len(result.Accepted)
	job.Summary.Rejected = len(result.Rejected)

	for _, rejection := range result.Rejected {
		job.Items = append(job.Items, entities.ImportItem{
			Path:   rejection.Path,
			Status: entities.ImportItemRejected,
			Reason: string(rejection.Reason),
		})
	}

	for _, candidate := range result.Accepted {
		s.processCandidate(ctx, job, candidate)
	}

	now := time.Now()
	job.CompletedAt = &now
	if job.Summary.Created > 0 || job.Summary.Duplicates > 0 {
		job.Status = entities.JobStatusCompleted
	} else {
		job.Status = entities.JobStatusFailed
	}
	if err := s.deps.JobRepo.Update(ctx, job); err != nil {
		return nil, err
	}

	s.publish(ctx, providers.EventChannelJobs, entities.NewPipelineEvent(entities.PipelineEventJobFinished, "", job.ID, map[string]interface{}{
		"status":  string(job.Status),
		"summary": job.Summary,
	}))

	logger.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Int("created", job.Summary.Created).
		Int("duplicates", job.Summary.Duplicates).
		Int("rejected", job.Summary.Rejected).
		Int("failed", job.Summary.Failed).
		Msg("import run finished")

	return job, nil
}

func (s *ImportService) processCandidate(ctx context.Context, job *entities.ImportJob, candidate DocumentCandidate) {
	path := candidate.Record.SourcePath

	known, err := s.deps.Fingerprints.Contains(ctx, candidate.Fingerprint)
	if err != nil {
		s.recordFailure(ctx, job, candidate, 1, err)
		return
	}
	if known {
		s.recordDuplicate(job, candidate)
		return
	}

	var extraction *providers.ExtractionResult
	retryCfg := retry.Config{
		MaxAttempts:   1 + s.cfg.MaxRetries,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryIf:       apperrors.IsRetryable,
	}

	res := retry.Do(ctx, retryCfg, func() error {
		result, extractErr := s.deps.Extractor.Extract(ctx, path)
		if extractErr != nil {
			return extractErr
		}
		if !result.Ok {
			return apperrors.NewExternalError(result.Error, nil)
		}
		extraction = result
		return nil
	})

	// A cancelled context can abort before the first attempt, so only
	// attempts beyond the first count as retries
	if res.Attempts > 1 {
		job.Summary.RetryAttempts += res.Attempts - 1
	}

	if res.Err != nil {
		s.recordFailure(ctx, job, candidate, res.Attempts, res.Err)
		return
	}

	// CAS insert: losing the race to another job means this file was
	// just imported elsewhere
	added, err := s.deps.Fingerprints.Add(ctx, candidate.Fingerprint)
	if err != nil {
		s.recordFailure(ctx, job, candidate, res.Attempts, err)
		return
	}
	if !added {
		s.recordDuplicate(job, candidate)
		return
	}

	if err := s.indexDocument(ctx, job, candidate, extraction); err != nil {
		s.recordFailure(ctx, job, candidate, res.Attempts, err)
		return
	}

	job.Summary.Created++
	job.Items = append(job.Items, entities.ImportItem{
		Path:         path,
		Fingerprint:  candidate.Fingerprint,
		Status:       entities.ImportItemImported,
		AttemptCount: res.Attempts,
	})
}

// indexDocument persists the document and everything derived from it.
// A record is created even when extraction returned no usable text; it
// carries parse_status=failed then, with no chunks and no fields.
func (s *ImportService) indexDocument(ctx context.Context, job *entities.ImportJob, candidate DocumentCandidate, extraction *providers.ExtractionResult) error {
	record := candidate.Record
	record.ImportJobID = job.ID

	text := extraction.Text
	if len(text) > s.cfg.MaxTextLength {
		text = text[:s.cfg.MaxTextLength]
	}

	normalized := NormalizeText(text)
	if normalized == "" {
		record.ParseStatus = entities.ParseStatusFailed
		record.ParseError = "extractor returned no text"
	} else {
		record.ParseStatus = entities.ParseStatusParsed
	}
	if extraction.PageCount > 0 {
		pages := extraction.PageCount
		record.PageCount = &pages
	}
	record.TextPreview = buildPreview(normalized, 240)
	record.UpdatedAt = time.Now()

	if err := s.deps.DocumentRepo.Create(ctx, record); err != nil {
		return err
	}

	var chunks []*entities.TextChunk
	var fieldIDs []string
	taskReason := "automatic extraction pending review"

	if normalized != "" {
		chunks = ChunkText(record.ID, normalized, s.cfg.Chunker)
		if len(chunks) > 0 {
			if err := s.deps.ChunkRepo.CreateBatch(ctx, chunks); err != nil {
				return err
			}
		}

		candidates := ExtractCandidates(normalized, record.FileName, chunks, s.cfg.Engine)
		fields, ents := materializeCandidates(record.ID, candidates)
		if len(fields) > 0 {
			if err := s.deps.FieldRepo.CreateFields(ctx, fields); err != nil {
				return err
			}
		}
		if len(ents) > 0 {
			if err := s.deps.FieldRepo.CreateEntities(ctx, ents); err != nil {
				return err
			}
		}
		for _, field := range fields {
			fieldIDs = append(fieldIDs, field.ID)
		}
	} else {
		taskReason = "no extracted text; manual review required"
	}

	task := &entities.VerificationTask{
		ID:         uuid.NewString(),
		DocumentID: record.ID,
		FieldIDs:   fieldIDs,
		Status:     entities.TaskStatusPending,
		Priority:   taskPriorityFor(record),
		Reason:     taskReason,
		CreatedAt:  time.Now(),
	}
	if err := s.deps.TaskRepo.Create(ctx, task); err != nil {
		return err
	}

	event := NormalizeDocument(record)
	if err := s.deps.EventRepo.Create(ctx, event); err != nil {
		return err
	}

	// Search indexing is best-effort and never fails the import
	if s.deps.SearchRepo != nil {
		if err := s.deps.SearchRepo.Index(ctx, record); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("document_id", record.ID).Msg("search indexing failed")
			job.Errors = append(job.Errors, "search indexing failed: "+err.Error())
		}
	}

	s.publish(ctx, providers.EventChannelDocuments, entities.NewPipelineEvent(entities.PipelineEventDocumentIndexed, record.ID, job.ID, map[string]interface{}{
		"fingerprint": record.Fingerprint,
	}))

	return nil
}

func (s *ImportService) recordDuplicate(job *entities.ImportJob, candidate DocumentCandidate) {
	job.Summary.Duplicates++
	job.Items = append(job.Items, entities.ImportItem{
		Path:        candidate.Record.SourcePath,
		Fingerprint: candidate.Fingerprint,
		Status:      entities.ImportItemDuplicate,
	})
}

// recordFailure dead-letters a candidate. No document is created and
// the fingerprint is not recorded, so a later run retries the file.
func (s *ImportService) recordFailure(ctx context.Context, job *entities.ImportJob, candidate DocumentCandidate, attempts int, err error) {
	retryable := apperrors.IsRetryable(err)

	job.Summary.Failed++
	job.Summary.DeadLettered++
	job.Items = append(job.Items, entities.ImportItem{
		Path:         candidate.Record.SourcePath,
		Fingerprint:  candidate.Fingerprint,
		Status:       entities.ImportItemFailed,
		Reason:       err.Error(),
		AttemptCount: attempts,
		Retryable:    &retryable,
	})
	job.DeadLetters = append(job.DeadLetters, entities.DeadLetter{
		Path:        candidate.Record.SourcePath,
		Fingerprint: candidate.Fingerprint,
		Error:       err.Error(),
		Retryable:   retryable,
		Attempts:    attempts,
		FailedAt:    time.Now(),
	})

	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("path", candidate.Record.SourcePath).
		Bool("retryable", retryable).
		Int("attempts", attempts).
		Msg("candidate dead-lettered")

	s.publish(ctx, providers.EventChannelDocuments, entities.NewPipelineEvent(entities.PipelineEventDocumentDeadLettered, "", job.ID, map[string]interface{}{
		"path":      candidate.Record.SourcePath,
		"retryable": retryable,
	}))
}

func (s *ImportService) publish(ctx context.Context, channel string, event *entities.PipelineEvent) {
	if s.deps.Bus == nil {
		return
	}
	if err := s.deps.Bus.Publish(ctx, channel, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("channel", channel).Msg("event publish failed")
	}
}

// materializeCandidates turns heuristic candidates into persisted
// fields; diagnosis and provider candidates additionally yield entities
func materializeCandidates(documentID string, candidates []entities.ExtractionCandidate) ([]*entities.ExtractedField, []*entities.ExtractedEntity) {
	now := time.Now()
	fields := make([]*entities.ExtractedField, 0, len(candidates))
	ents := make([]*entities.ExtractedEntity, 0)

	for _, c := range candidates {
		fields = append(fields, &entities.ExtractedField{
			ID:           uuid.NewString(),
			DocumentID:   documentID,
			Type:         c.Type,
			Key:          c.Key,
			Value:        c.Value,
			Unit:         c.Unit,
			Confidence:   c.Confidence,
			ChunkIndices: c.ChunkIndices,
			Status:       entities.VerificationPending,
			CreatedAt:    now,
		})

		if c.Type == entities.FieldTypeDiagnosis || c.Type == entities.FieldTypeProvider {
			ents = append(ents, &entities.ExtractedEntity{
				ID:         uuid.NewString(),
				DocumentID: documentID,
				Type:       c.Type,
				Name:       c.Value,
				Confidence: c.Confidence,
				Status:     entities.VerificationPending,
				CreatedAt:  now,
			})
		}
	}
	return fields, ents
}

func taskPriorityFor(record *entities.DocumentRecord) entities.TaskPriority {
	if record.ParseStatus == entities.ParseStatusFailed {
		return entities.TaskPriorityHigh
	}
	if record.DocumentType == entities.DocumentTypeUnknown {
		return entities.TaskPriorityLow
	}
	return entities.TaskPriorityNormal
}
