package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/extraction"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/api/handlers"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	queryservices "github.com/zatekoja/medtimeline/backend/internal/query/services"
)

type handlerFixture struct {
	docs     *memory.DocumentStore
	chunks   *memory.ChunkStore
	fields   *memory.FieldStore
	tasks    *memory.TaskStore
	jobs     *memory.JobStore
	events   *memory.EventStore
	episodes *memory.EpisodeStore

	importHandler       *handlers.ImportHandler
	timelineHandler     *handlers.TimelineHandler
	verificationHandler *handlers.VerificationHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		docs:     memory.NewDocumentStore(),
		chunks:   memory.NewChunkStore(),
		fields:   memory.NewFieldStore(),
		tasks:    memory.NewTaskStore(),
		jobs:     memory.NewJobStore(),
		events:   memory.NewEventStore(),
		episodes: memory.NewEpisodeStore(),
	}

	importService := services.NewImportService(services.ImportServiceDeps{
		Extractor:    extraction.NewMockExtractor(),
		DocumentRepo: f.docs,
		Fingerprints: memory.NewFingerprintStore(),
		ChunkRepo:    f.chunks,
		FieldRepo:    f.fields,
		TaskRepo:     f.tasks,
		JobRepo:      f.jobs,
		EventRepo:    f.events,
	}, services.DefaultImportServiceConfig())

	episodeService := services.NewEpisodeService(f.events, f.episodes, nil, services.DefaultEpisodePolicy())
	verificationService := services.NewVerificationService(f.tasks, f.docs, f.fields, f.events, nil)
	queryService := queryservices.NewTimelineQueryService(f.docs, f.chunks, f.fields, f.events, f.episodes, f.jobs, nil)

	f.importHandler = handlers.NewImportHandler(importService, episodeService, queryService, nil, 0)
	f.timelineHandler = handlers.NewTimelineHandler(queryService)
	f.verificationHandler = handlers.NewVerificationHandler(verificationService)
	return f
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "2021", "cardiology")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "echo_results.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.docx"), []byte("doc"), 0o644))
	return root
}

func TestTriggerImport(t *testing.T) {
	f := newHandlerFixture()
	root := seedTree(t)

	body := `{"root":` + jsonString(root) + `,"mode":"backfill","actor":"tester"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(body))
	rec := httptest.NewRecorder()

	f.importHandler.TriggerImport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var job entities.ImportJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Summary.Scanned)
	assert.Equal(t, 1, job.Summary.Created)
	assert.Equal(t, 1, job.Summary.Rejected)
	assert.Equal(t, "tester", job.Actor)
}

func jsonString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

func TestTriggerImport_MissingRoot(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(`{"mode":"sync"}`))
	rec := httptest.NewRecorder()

	f.importHandler.TriggerImport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerImport_InvalidBody(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	f.importHandler.TriggerImport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerImport_UnscannableRoot(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(`{"root":"/does/not/exist"}`))
	rec := httptest.NewRecorder()

	f.importHandler.TriggerImport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_NotFound(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/imports/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	f.importHandler.GetJob(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	f := newHandlerFixture()
	root := seedTree(t)

	body := `{"root":` + jsonString(root) + `}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(body))
	f.importHandler.TriggerImport(httptest.NewRecorder(), req)

	listReq := httptest.NewRequest(http.MethodGet, "/api/imports", nil)
	rec := httptest.NewRecorder()
	f.importHandler.ListJobs(rec, listReq)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Jobs  []entities.ImportJob `json:"jobs"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Jobs, 1)
}
