package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

func seedTask(t *testing.T, f *handlerFixture, taskID, docID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.docs.Create(ctx, &entities.DocumentRecord{
		ID: docID, FileName: "tryptase_lab.pdf", Fingerprint: "fp-" + docID,
		VerificationStatus: entities.VerificationPending,
	}))
	require.NoError(t, f.tasks.Create(ctx, &entities.VerificationTask{
		ID:         taskID,
		DocumentID: docID,
		Status:     entities.TaskStatusPending,
		Priority:   entities.TaskPriorityNormal,
	}))
}

func TestListPendingTasks(t *testing.T) {
	f := newHandlerFixture()
	seedTask(t, f, "task-1", "doc-1")

	req := httptest.NewRequest(http.MethodGet, "/api/verification/tasks", nil)
	rec := httptest.NewRecorder()
	f.verificationHandler.ListPendingTasks(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Tasks []entities.VerificationTask `json:"tasks"`
		Count int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "task-1", payload.Tasks[0].ID)
}

func TestApproveTask(t *testing.T) {
	f := newHandlerFixture()
	seedTask(t, f, "task-1", "doc-1")

	req := httptest.NewRequest(http.MethodPost, "/api/verification/tasks/task-1/approve",
		strings.NewReader(`{"actor":"reviewer"}`))
	req.SetPathValue("id", "task-1")
	rec := httptest.NewRecorder()

	f.verificationHandler.ApproveTask(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var task entities.VerificationTask
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, entities.TaskStatusApproved, task.Status)
	assert.Equal(t, "reviewer", task.ResolvedBy)

	doc, err := f.docs.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entities.VerificationVerified, doc.VerificationStatus)
}

func TestRejectTask_DefaultsActor(t *testing.T) {
	f := newHandlerFixture()
	seedTask(t, f, "task-1", "doc-1")

	req := httptest.NewRequest(http.MethodPost, "/api/verification/tasks/task-1/reject", nil)
	req.SetPathValue("id", "task-1")
	rec := httptest.NewRecorder()

	f.verificationHandler.RejectTask(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var task entities.VerificationTask
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, entities.TaskStatusRejected, task.Status)
	assert.Equal(t, "api", task.ResolvedBy)
}

func TestApproveTask_AlreadyResolved(t *testing.T) {
	f := newHandlerFixture()
	seedTask(t, f, "task-1", "doc-1")

	first := httptest.NewRequest(http.MethodPost, "/api/verification/tasks/task-1/approve", nil)
	first.SetPathValue("id", "task-1")
	f.verificationHandler.ApproveTask(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/verification/tasks/task-1/approve", nil)
	second.SetPathValue("id", "task-1")
	rec := httptest.NewRecorder()

	f.verificationHandler.ApproveTask(rec, second)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveTask_Unknown(t *testing.T) {
	f := newHandlerFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/verification/tasks/nope/approve", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()

	f.verificationHandler.ApproveTask(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
