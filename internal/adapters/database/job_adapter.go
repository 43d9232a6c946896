package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// ImportJobAdapter implements ImportJobRepository against PostgreSQL.
// The summary, items and dead letters travel as JSONB documents.
type ImportJobAdapter struct {
	client *postgres.Client
}

// NewImportJobAdapter creates a new import job adapter
func NewImportJobAdapter(client *postgres.Client) repositories.ImportJobRepository {
	return &ImportJobAdapter{client: client}
}

type jobRow struct {
	ID          string         `db:"id"`
	Mode        string         `db:"mode"`
	Actor       string         `db:"actor"`
	Status      string         `db:"status"`
	Summary     []byte         `db:"summary"`
	Items       []byte         `db:"items"`
	DeadLetters []byte         `db:"dead_letters"`
	Errors      pq.StringArray `db:"errors"`
	StartedAt   time.Time      `db:"started_at"`
	CompletedAt *time.Time     `db:"completed_at"`
}

// Create creates a new import job
func (a *ImportJobAdapter) Create(ctx context.Context, job *entities.ImportJob) error {
	row, err := toJobRow(job)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO import_jobs (
			id, mode, actor, status, summary, items, dead_letters, errors,
			started_at, completed_at
		) VALUES (
			:id, :mode, :actor, :status, :summary, :items, :dead_letters, :errors,
			:started_at, :completed_at
		)
	`

	if _, err := a.client.Sqlx().NamedExecContext(ctx, query, row); err != nil {
		return apperrors.NewInternalError("failed to create import job", err)
	}
	return nil
}

// GetByID retrieves a job by ID
func (a *ImportJobAdapter) GetByID(ctx context.Context, id string) (*entities.ImportJob, error) {
	query := `
		SELECT id, mode, actor, status, summary, items, dead_letters, errors,
			started_at, completed_at
		FROM import_jobs
		WHERE id = $1
	`

	var row jobRow
	err := a.client.Sqlx().GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("import job with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get import job", err)
	}
	return fromJobRow(&row)
}

// Update persists job progress and terminal state
func (a *ImportJobAdapter) Update(ctx context.Context, job *entities.ImportJob) error {
	row, err := toJobRow(job)
	if err != nil {
		return err
	}

	query := `
		UPDATE import_jobs SET
			status = :status, summary = :summary, items = :items,
			dead_letters = :dead_letters, errors = :errors,
			completed_at = :completed_at
		WHERE id = :id
	`

	result, err := a.client.Sqlx().NamedExecContext(ctx, query, row)
	if err != nil {
		return apperrors.NewInternalError("failed to update import job", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("import job with id %s not found", job.ID))
	}
	return nil
}

// List retrieves jobs, most recent first
func (a *ImportJobAdapter) List(ctx context.Context, limit, offset int) ([]*entities.ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, mode, actor, status, summary, items, dead_letters, errors,
			started_at, completed_at
		FROM import_jobs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`

	var rows []jobRow
	if err := a.client.Sqlx().SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, apperrors.NewInternalError("failed to list import jobs", err)
	}

	jobs := make([]*entities.ImportJob, 0, len(rows))
	for i := range rows {
		job, err := fromJobRow(&rows[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func toJobRow(job *entities.ImportJob) (*jobRow, error) {
	summary, err := json.Marshal(job.Summary)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal job summary", err)
	}
	items, err := json.Marshal(job.Items)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal job items", err)
	}
	deadLetters, err := json.Marshal(job.DeadLetters)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal dead letters", err)
	}

	return &jobRow{
		ID:          job.ID,
		Mode:        string(job.Mode),
		Actor:       job.Actor,
		Status:      string(job.Status),
		Summary:     summary,
		Items:       items,
		DeadLetters: deadLetters,
		Errors:      pq.StringArray(job.Errors),
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

func fromJobRow(row *jobRow) (*entities.ImportJob, error) {
	job := &entities.ImportJob{
		ID:          row.ID,
		Mode:        entities.ImportMode(row.Mode),
		Actor:       row.Actor,
		Status:      entities.JobStatus(row.Status),
		Errors:      []string(row.Errors),
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}

	if len(row.Summary) > 0 {
		if err := json.Unmarshal(row.Summary, &job.Summary); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal job summary", err)
		}
	}
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &job.Items); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal job items", err)
		}
	}
	if len(row.DeadLetters) > 0 {
		if err := json.Unmarshal(row.DeadLetters, &job.DeadLetters); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal dead letters", err)
		}
	}
	return job, nil
}
