package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// VerificationService resolves manual-review tasks and cascades the
// decision to the task's document, its extracted fields and any clinical
// events derived from it.
type VerificationService struct {
	taskRepo  repositories.VerificationTaskRepository
	docRepo   repositories.DocumentRepository
	fieldRepo repositories.FieldRepository
	eventRepo repositories.EventRepository
	bus       providers.EventBus
}

// NewVerificationService creates a new verification service. The bus is
// optional.
func NewVerificationService(
	taskRepo repositories.VerificationTaskRepository,
	docRepo repositories.DocumentRepository,
	fieldRepo repositories.FieldRepository,
	eventRepo repositories.EventRepository,
	bus providers.EventBus,
) *VerificationService {
	return &VerificationService{
		taskRepo:  taskRepo,
		docRepo:   docRepo,
		fieldRepo: fieldRepo,
		eventRepo: eventRepo,
		bus:       bus,
	}
}

// Resolve transitions a pending task to approved or rejected. Each task
// resolves at most once: a second resolution attempt yields a not-found
// error regardless of the requested status. Approval marks the document
// and its fields verified and flips derived events to verified; rejection
// marks them rejected and leaves events unverified.
func (s *VerificationService) Resolve(ctx context.Context, taskID string, approve bool, actor string) (*entities.VerificationTask, error) {
	ctx, span := observability.StartSpan(ctx, "verification.resolve")
	defer span.End()

	status := entities.TaskStatusRejected
	docStatus := entities.VerificationRejected
	if approve {
		status = entities.TaskStatusApproved
		docStatus = entities.VerificationVerified
	}

	transitioned, err := s.taskRepo.Resolve(ctx, taskID, status, actor)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no pending verification task %s", taskID))
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.cascade(ctx, task, docStatus); err != nil {
		return nil, err
	}

	s.notify(ctx, task, status)
	return task, nil
}

// PendingTasks returns unresolved tasks for the review queue
func (s *VerificationService) PendingTasks(ctx context.Context, limit, offset int) ([]*entities.VerificationTask, error) {
	return s.taskRepo.ListPending(ctx, limit, offset)
}

func (s *VerificationService) cascade(ctx context.Context, task *entities.VerificationTask, status entities.VerificationStatus) error {
	doc, err := s.docRepo.GetByID(ctx, task.DocumentID)
	if err != nil {
		return err
	}

	doc.VerificationStatus = status
	doc.UpdatedAt = time.Now()
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return err
	}

	if len(task.FieldIDs) > 0 {
		if err := s.fieldRepo.UpdateFieldStatus(ctx, task.FieldIDs, status); err != nil {
			return err
		}
	}

	events, err := s.eventRepo.ListByDocument(ctx, task.DocumentID)
	if err != nil {
		return err
	}
	for _, event := range events {
		verified := status == entities.VerificationVerified
		if event.Verified == verified {
			continue
		}
		event.Verified = verified
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *VerificationService) notify(ctx context.Context, task *entities.VerificationTask, status entities.TaskStatus) {
	if s.bus == nil {
		return
	}
	event := entities.NewPipelineEvent(entities.PipelineEventVerificationResolved, task.DocumentID, "", map[string]interface{}{
		"task_id": task.ID,
		"status":  string(status),
	})
	if err := s.bus.Publish(ctx, providers.EventChannelDocuments, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("task_id", task.ID).Msg("event publish failed")
	}
}
