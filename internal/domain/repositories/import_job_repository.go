package repositories

import (
	"context"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// ImportJobRepository stores import job runs
type ImportJobRepository interface {
	// Create creates a new import job
	Create(ctx context.Context, job *entities.ImportJob) error

	// GetByID retrieves a job by ID
	GetByID(ctx context.Context, id string) (*entities.ImportJob, error)

	// Update persists job progress and terminal state
	Update(ctx context.Context, job *entities.ImportJob) error

	// List retrieves jobs, most recent first
	List(ctx context.Context, limit, offset int) ([]*entities.ImportJob, error)
}

// VerificationTaskRepository stores manual-review tasks
type VerificationTaskRepository interface {
	// Create creates a new verification task
	Create(ctx context.Context, task *entities.VerificationTask) error

	// GetByID retrieves a task by ID
	GetByID(ctx context.Context, id string) (*entities.VerificationTask, error)

	// Resolve atomically transitions a pending task to the given terminal
	// status and reports whether the transition happened. A task that is
	// no longer pending yields false.
	Resolve(ctx context.Context, id string, status entities.TaskStatus, actor string) (bool, error)

	// ListPending returns pending tasks ordered by priority then age
	ListPending(ctx context.Context, limit, offset int) ([]*entities.VerificationTask, error)
}
