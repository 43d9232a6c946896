package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

type verificationFixture struct {
	docs    *memory.DocumentStore
	fields  *memory.FieldStore
	tasks   *memory.TaskStore
	events  *memory.EventStore
	service *services.VerificationService

	doc   *entities.DocumentRecord
	field *entities.ExtractedField
	task  *entities.VerificationTask
	event *entities.ClinicalEvent
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	ctx := context.Background()

	f := &verificationFixture{
		docs:   memory.NewDocumentStore(),
		fields: memory.NewFieldStore(),
		tasks:  memory.NewTaskStore(),
		events: memory.NewEventStore(),
	}
	f.service = services.NewVerificationService(f.tasks, f.docs, f.fields, f.events, nil)

	f.doc = &entities.DocumentRecord{
		ID:                 uuid.NewString(),
		FileName:           "tryptase_lab.pdf",
		Specialty:          "immunology_mcas",
		DocumentType:       entities.DocumentTypeLabResult,
		Year:               2019,
		VerificationStatus: entities.VerificationPending,
		ParseStatus:        entities.ParseStatusParsed,
	}
	require.NoError(t, f.docs.Create(ctx, f.doc))

	f.field = &entities.ExtractedField{
		ID:         uuid.NewString(),
		DocumentID: f.doc.ID,
		Type:       entities.FieldTypeLab,
		Key:        "lab_value:tryptase",
		Value:      "14.2",
		Status:     entities.VerificationPending,
	}
	require.NoError(t, f.fields.CreateFields(ctx, []*entities.ExtractedField{f.field}))

	f.event = &entities.ClinicalEvent{
		ID:          uuid.NewString(),
		Date:        time.Date(2019, time.June, 2, 0, 0, 0, 0, time.UTC),
		Type:        entities.EventTypeLabResult,
		Specialty:   "immunology_mcas",
		DocumentIDs: []string{f.doc.ID},
	}
	require.NoError(t, f.events.Create(ctx, f.event))

	f.task = &entities.VerificationTask{
		ID:         uuid.NewString(),
		DocumentID: f.doc.ID,
		FieldIDs:   []string{f.field.ID},
		Status:     entities.TaskStatusPending,
		Priority:   entities.TaskPriorityNormal,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.tasks.Create(ctx, f.task))

	return f
}

func TestVerificationService_ApproveCascades(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	resolved, err := f.service.Resolve(ctx, f.task.ID, true, "reviewer")
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusApproved, resolved.Status)
	assert.Equal(t, "reviewer", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	doc, err := f.docs.GetByID(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.VerificationVerified, doc.VerificationStatus)

	fields, err := f.fields.ListFieldsByDocument(ctx, f.doc.ID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, entities.VerificationVerified, fields[0].Status)

	event, err := f.events.GetByID(ctx, f.event.ID)
	require.NoError(t, err)
	assert.True(t, event.Verified)
}

func TestVerificationService_RejectCascades(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	resolved, err := f.service.Resolve(ctx, f.task.ID, false, "reviewer")
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusRejected, resolved.Status)

	doc, err := f.docs.GetByID(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.VerificationRejected, doc.VerificationStatus)

	fields, err := f.fields.ListFieldsByDocument(ctx, f.doc.ID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, entities.VerificationRejected, fields[0].Status)

	event, err := f.events.GetByID(ctx, f.event.ID)
	require.NoError(t, err)
	assert.False(t, event.Verified)
}

func TestVerificationService_ResolvesAtMostOnce(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	_, err := f.service.Resolve(ctx, f.task.ID, true, "reviewer")
	require.NoError(t, err)

	_, err = f.service.Resolve(ctx, f.task.ID, false, "second reviewer")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	// The first decision stands
	doc, err := f.docs.GetByID(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.VerificationVerified, doc.VerificationStatus)
}

func TestVerificationService_UnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	_, err := f.service.Resolve(ctx, "missing", true, "reviewer")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestVerificationService_PendingTasksOrderedByPriority(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	urgent := &entities.VerificationTask{
		ID:         uuid.NewString(),
		DocumentID: f.doc.ID,
		Status:     entities.TaskStatusPending,
		Priority:   entities.TaskPriorityHigh,
		CreatedAt:  time.Now().Add(time.Minute),
	}
	require.NoError(t, f.tasks.Create(ctx, urgent))

	pending, err := f.service.PendingTasks(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, urgent.ID, pending[0].ID)
}
