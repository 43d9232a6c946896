package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// JobStore is an in-memory ImportJobRepository
type JobStore struct {
	mu    sync.RWMutex
	byID  map[string]*entities.ImportJob
	order []string
}

// NewJobStore creates an empty job store
func NewJobStore() *JobStore {
	return &JobStore{byID: make(map[string]*entities.ImportJob)}
}

func (s *JobStore) Create(ctx context.Context, job *entities.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[job.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("import job %s already exists", job.ID))
	}
	stored := *job
	s.byID[job.ID] = &stored
	s.order = append(s.order, job.ID)
	return nil
}

func (s *JobStore) GetByID(ctx context.Context, id string) (*entities.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("import job %s not found", id))
	}
	out := *job
	return &out, nil
}

func (s *JobStore) Update(ctx context.Context, job *entities.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[job.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("import job %s not found", job.ID))
	}
	stored := *job
	s.byID[job.ID] = &stored
	return nil
}

func (s *JobStore) List(ctx context.Context, limit, offset int) ([]*entities.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.ImportJob, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		copied := *s.byID[s.order[i]]
		out = append(out, &copied)
	}
	return page(out, limit, offset), nil
}

// TaskStore is an in-memory VerificationTaskRepository. Resolve holds
// the write lock for the whole check-and-set, making each task's
// pending-to-terminal transition happen at most once.
type TaskStore struct {
	mu   sync.RWMutex
	byID map[string]*entities.VerificationTask
}

// NewTaskStore creates an empty task store
func NewTaskStore() *TaskStore {
	return &TaskStore{byID: make(map[string]*entities.VerificationTask)}
}

func (s *TaskStore) Create(ctx context.Context, task *entities.VerificationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[task.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("verification task %s already exists", task.ID))
	}
	stored := *task
	s.byID[task.ID] = &stored
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*entities.VerificationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("verification task %s not found", id))
	}
	out := *task
	return &out, nil
}

func (s *TaskStore) Resolve(ctx context.Context, id string, status entities.TaskStatus, actor string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	if task.Status != entities.TaskStatusPending {
		return false, nil
	}

	now := time.Now()
	task.Status = status
	task.ResolvedAt = &now
	task.ResolvedBy = actor
	return true, nil
}

func (s *TaskStore) ListPending(ctx context.Context, limit, offset int) ([]*entities.VerificationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*entities.VerificationTask, 0)
	for _, task := range s.byID {
		if task.Status != entities.TaskStatusPending {
			continue
		}
		copied := *task
		pending = append(pending, &copied)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		ri, rj := priorityRank(pending[i].Priority), priorityRank(pending[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return page(pending, limit, offset), nil
}

func priorityRank(priority entities.TaskPriority) int {
	switch priority {
	case entities.TaskPriorityHigh:
		return 0
	case entities.TaskPriorityNormal:
		return 1
	default:
		return 2
	}
}
