package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/extraction"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

type importFixture struct {
	extractor *extraction.MockExtractor
	docs      *memory.DocumentStore
	prints    *memory.FingerprintStore
	chunks    *memory.ChunkStore
	fields    *memory.FieldStore
	tasks     *memory.TaskStore
	jobs      *memory.JobStore
	events    *memory.EventStore
	service   *services.ImportService
}

func newImportFixture(cfg services.ImportServiceConfig) *importFixture {
	f := &importFixture{
		extractor: extraction.NewMockExtractor(),
		docs:      memory.NewDocumentStore(),
		prints:    memory.NewFingerprintStore(),
		chunks:    memory.NewChunkStore(),
		fields:    memory.NewFieldStore(),
		tasks:     memory.NewTaskStore(),
		jobs:      memory.NewJobStore(),
		events:    memory.NewEventStore(),
	}
	f.service = services.NewImportService(services.ImportServiceDeps{
		Extractor:    f.extractor,
		DocumentRepo: f.docs,
		Fingerprints: f.prints,
		ChunkRepo:    f.chunks,
		FieldRepo:    f.fields,
		TaskRepo:     f.tasks,
		JobRepo:      f.jobs,
		EventRepo:    f.events,
	}, cfg)
	return f
}

func rawFiles(paths ...string) []services.RawFile {
	files := make([]services.RawFile, 0, len(paths))
	for _, path := range paths {
		files = append(files, services.RawFile{Path: path, SizeBytes: 1024})
	}
	return files
}

func TestImportService_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())
	f.extractor.Script("scans/2019/mcas/tryptase_lab.pdf", extraction.Outcome{
		Result: &providers.ExtractionResult{Ok: true, Text: "Serum tryptase: 14.2 ng/mL. Seen by Dr. Chen.", PageCount: 2},
	})

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles("scans/2019/mcas/tryptase_lab.pdf"))

	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Summary.Scanned)
	assert.Equal(t, 1, job.Summary.Created)
	assert.Equal(t, 0, job.Summary.Failed)
	require.NotNil(t, job.CompletedAt)

	require.Len(t, job.Items, 1)
	assert.Equal(t, entities.ImportItemImported, job.Items[0].Status)
	assert.Equal(t, 1, job.Items[0].AttemptCount)

	docs, err := f.docs.List(ctx, repositories.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, entities.ParseStatusParsed, doc.ParseStatus)
	assert.Equal(t, job.ID, doc.ImportJobID)
	require.NotNil(t, doc.PageCount)
	assert.Equal(t, 2, *doc.PageCount)
	assert.NotEmpty(t, doc.TextPreview)

	chunks, err := f.chunks.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	fields, err := f.fields.ListFieldsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, fields)

	tasks, err := f.tasks.ListPending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, doc.ID, tasks[0].DocumentID)
	assert.Equal(t, entities.TaskPriorityNormal, tasks[0].Priority)

	events, err := f.events.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entities.EventTypeLabResult, events[0].Type)

	known, err := f.prints.Contains(ctx, job.Items[0].Fingerprint)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestImportService_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())
	files := rawFiles("scans/2021/cardiology/echo_results.pdf")

	first, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", files)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.Created)

	second, err := f.service.Run(ctx, entities.ImportModeSync, "tester", files)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, second.Status)
	assert.Equal(t, 0, second.Summary.Created)
	assert.Equal(t, 1, second.Summary.Duplicates)

	require.Len(t, second.Items, 1)
	assert.Equal(t, entities.ImportItemDuplicate, second.Items[0].Status)

	// The duplicate path is never re-extracted
	assert.Equal(t, 1, f.extractor.Calls("scans/2021/cardiology/echo_results.pdf"))

	docs, err := f.docs.List(ctx, repositories.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestImportService_RenamedCopyDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(
		"scans/2021/cardiology/echo_results.pdf",
		"backup/2021/cardiology/echo_results (1).pdf",
	))

	require.NoError(t, err)
	assert.Equal(t, 1, job.Summary.Created)
	assert.Equal(t, 1, job.Summary.Duplicates)
}

func TestImportService_TransientFailureRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	cfg := services.DefaultImportServiceConfig()
	cfg.MaxRetries = 1
	f := newImportFixture(cfg)

	path := "scans/2020/gi/endoscopy_report.pdf"
	f.extractor.Script(path,
		extraction.Outcome{Err: apperrors.NewTransientError("extraction service unreachable", nil)},
		extraction.Outcome{Result: &providers.ExtractionResult{Ok: true, Text: "Endoscopy unremarkable.", PageCount: 1}},
	)

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))

	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Summary.Created)
	assert.Equal(t, 1, job.Summary.RetryAttempts)
	assert.Equal(t, 0, job.Summary.Failed)
	assert.Equal(t, 2, f.extractor.Calls(path))

	require.Len(t, job.Items, 1)
	assert.Equal(t, 2, job.Items[0].AttemptCount)
}

func TestImportService_TransientFailureExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	cfg := services.DefaultImportServiceConfig()
	cfg.MaxRetries = 1
	f := newImportFixture(cfg)

	path := "scans/2020/gi/endoscopy_report.pdf"
	f.extractor.Script(path,
		extraction.Outcome{Err: apperrors.NewTransientError("extraction request timed out", nil)},
	)

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))

	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Summary.Failed)
	assert.Equal(t, 1, job.Summary.DeadLettered)
	assert.Equal(t, 1, job.Summary.RetryAttempts)
	assert.Equal(t, 2, f.extractor.Calls(path))

	require.Len(t, job.DeadLetters, 1)
	assert.True(t, job.DeadLetters[0].Retryable)
	assert.Equal(t, 2, job.DeadLetters[0].Attempts)

	// No document and no fingerprint: the next run retries the file
	docs, err := f.docs.List(ctx, repositories.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	known, err := f.prints.Contains(ctx, services.Fingerprint(path))
	require.NoError(t, err)
	assert.False(t, known)
}

func TestImportService_PermanentFailureSkipsRetry(t *testing.T) {
	ctx := context.Background()
	cfg := services.DefaultImportServiceConfig()
	cfg.MaxRetries = 3
	f := newImportFixture(cfg)

	path := "scans/2020/gi/endoscopy_report.pdf"
	f.extractor.Script(path,
		extraction.Outcome{Result: &providers.ExtractionResult{Ok: false, Error: "password protected"}},
	)

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))

	require.NoError(t, err)
	assert.Equal(t, 1, job.Summary.Failed)
	assert.Equal(t, 0, job.Summary.RetryAttempts)
	assert.Equal(t, 1, f.extractor.Calls(path))

	require.Len(t, job.DeadLetters, 1)
	assert.False(t, job.DeadLetters[0].Retryable)
	assert.Equal(t, 1, job.DeadLetters[0].Attempts)

	require.Len(t, job.Items, 1)
	require.NotNil(t, job.Items[0].Retryable)
	assert.False(t, *job.Items[0].Retryable)
}

func TestImportService_EmptyTextStillCreatesRecord(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())

	path := "scans/2021/derm/rash_photo.jpg"
	f.extractor.Script(path, extraction.Outcome{
		Result: &providers.ExtractionResult{Ok: true, Text: "   \n  ", PageCount: 1},
	})

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))

	require.NoError(t, err)
	assert.Equal(t, 1, job.Summary.Created)

	docs, err := f.docs.List(ctx, repositories.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, entities.ParseStatusFailed, doc.ParseStatus)
	assert.NotEmpty(t, doc.ParseError)

	chunks, err := f.chunks.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	fields, err := f.fields.ListFieldsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, fields)

	// Unreadable documents go to the front of the review queue
	tasks, err := f.tasks.ListPending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, entities.TaskPriorityHigh, tasks[0].Priority)

	// The fingerprint is recorded: re-scanning will not re-import
	known, err := f.prints.Contains(ctx, services.Fingerprint(path))
	require.NoError(t, err)
	assert.True(t, known)
}

func TestImportService_RejectedFiles(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(
		"scans/2021/cardiology/echo_results.pdf",
		"scans/2021/cardiology/.DS_Store",
		"scans/misfiled.pdf",
	))

	require.NoError(t, err)
	assert.Equal(t, 3, job.Summary.Scanned)
	assert.Equal(t, 1, job.Summary.Accepted)
	assert.Equal(t, 2, job.Summary.Rejected)
	assert.Equal(t, 1, job.Summary.Created)

	statuses := map[entities.ImportItemStatus]int{}
	for _, item := range job.Items {
		statuses[item.Status]++
	}
	assert.Equal(t, 1, statuses[entities.ImportItemImported])
	assert.Equal(t, 2, statuses[entities.ImportItemRejected])
}

func TestImportService_AllRejectedJobFails(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles("scans/notes.txt"))

	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, job.Status)
}

func TestImportService_SummaryAccounting(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(services.DefaultImportServiceConfig())

	failing := "scans/2020/gi/endoscopy_report.pdf"
	f.extractor.Script(failing, extraction.Outcome{
		Result: &providers.ExtractionResult{Ok: false, Error: "corrupt file"},
	})

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(
		"scans/2021/cardiology/echo_results.pdf",
		"scans/2021/cardiology/echo_results (1).pdf",
		"scans/2021/cardiology/Thumbs.db",
		failing,
	))

	require.NoError(t, err)
	sum := job.Summary
	assert.Equal(t, sum.Scanned, sum.Created+sum.Duplicates+sum.Rejected+sum.Failed)
	assert.Equal(t, len(job.Items), sum.Scanned)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 1, sum.Failed)

	persisted, err := f.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, persisted.Status)
	assert.Equal(t, sum, persisted.Summary)
}

func TestImportService_CancelledContextKeepsCountersNonNegative(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newImportFixture(services.DefaultImportServiceConfig())
	path := "scans/2019/mcas/tryptase_lab.pdf"

	job, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))

	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, job.Status)
	sum := job.Summary
	assert.Equal(t, 0, sum.RetryAttempts)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.DeadLettered)
	assert.Equal(t, sum.Scanned, sum.Created+sum.Duplicates+sum.Rejected+sum.Failed)
	assert.Equal(t, 0, f.extractor.Calls(path))
}

func TestImportService_TruncatesOversizedText(t *testing.T) {
	ctx := context.Background()
	cfg := services.DefaultImportServiceConfig()
	cfg.MaxTextLength = 50
	f := newImportFixture(cfg)

	path := "scans/2021/cardiology/echo_results.pdf"
	long := ""
	for i := 0; i < 20; i++ {
		long += "Repeated sentence here. "
	}
	f.extractor.Script(path, extraction.Outcome{
		Result: &providers.ExtractionResult{Ok: true, Text: long, PageCount: 1},
	})

	_, err := f.service.Run(ctx, entities.ImportModeBackfill, "tester", rawFiles(path))
	require.NoError(t, err)

	docs, err := f.docs.List(ctx, repositories.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	chunks, err := f.chunks.ListByDocument(ctx, docs[0].ID)
	require.NoError(t, err)
	total := 0
	for _, chunk := range chunks {
		if chunk.EndOffset > total {
			total = chunk.EndOffset
		}
	}
	assert.LessOrEqual(t, total, cfg.MaxTextLength)
}
