package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

var eventColumns = []interface{}{
	"id", "date", "type", "specialty", "title", "summary",
	"document_ids", "condition_tags", "verified", "episode_id", "created_at",
}

// EventAdapter implements EventRepository against PostgreSQL
type EventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewEventAdapter creates a new clinical event adapter
func NewEventAdapter(client *postgres.Client) repositories.EventRepository {
	return &EventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new clinical event
func (a *EventAdapter) Create(ctx context.Context, event *entities.ClinicalEvent) error {
	record := goqu.Record{
		"id":             event.ID,
		"date":           event.Date,
		"type":           string(event.Type),
		"specialty":      event.Specialty,
		"title":          event.Title,
		"summary":        event.Summary,
		"document_ids":   pq.Array(event.DocumentIDs),
		"condition_tags": pq.Array(event.ConditionTags),
		"verified":       event.Verified,
		"episode_id":     sql.NullString{String: event.EpisodeID, Valid: event.EpisodeID != ""},
		"created_at":     event.CreatedAt,
	}

	query, args, err := a.db.Insert("clinical_events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create event", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.ClinicalEvent, error) {
	query, args, err := a.db.Select(eventColumns...).From("clinical_events").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get event", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
	}
	return scanEvent(rows)
}

// Update updates an event's verification flag and episode assignment
func (a *EventAdapter) Update(ctx context.Context, event *entities.ClinicalEvent) error {
	record := goqu.Record{
		"verified":       event.Verified,
		"episode_id":     sql.NullString{String: event.EpisodeID, Valid: event.EpisodeID != ""},
		"condition_tags": pq.Array(event.ConditionTags),
	}

	query, args, err := a.db.Update("clinical_events").Set(record).Where(goqu.Ex{"id": event.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update event", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", event.ID))
	}
	return nil
}

// List retrieves events with filters, ordered by date ascending
func (a *EventAdapter) List(ctx context.Context, filter repositories.EventFilter) ([]*entities.ClinicalEvent, error) {
	ds := a.db.Select(eventColumns...).From("clinical_events")

	where := goqu.Ex{}
	if filter.Specialty != "" {
		where["specialty"] = filter.Specialty
	}
	if filter.Type != "" {
		where["type"] = string(filter.Type)
	}
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	if filter.From != nil {
		ds = ds.Where(goqu.I("date").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.I("date").Lte(*filter.To))
	}
	if filter.Unassigned {
		ds = ds.Where(goqu.I("episode_id").IsNull())
	}

	ds = ds.Order(goqu.I("date").Asc(), goqu.I("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list events", err)
	}
	defer rows.Close()

	var events []*entities.ClinicalEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// ListByDocument returns events referencing the given document
func (a *EventAdapter) ListByDocument(ctx context.Context, documentID string) ([]*entities.ClinicalEvent, error) {
	query := `
		SELECT id, date, type, specialty, title, summary,
			document_ids, condition_tags, verified, episode_id, created_at
		FROM clinical_events
		WHERE $1 = ANY(document_ids)
		ORDER BY date ASC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list events by document", err)
	}
	defer rows.Close()

	var events []*entities.ClinicalEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func scanEvent(row rowScanner) (*entities.ClinicalEvent, error) {
	event := &entities.ClinicalEvent{}
	var eventType string
	var episodeID sql.NullString

	err := row.Scan(
		&event.ID,
		&event.Date,
		&eventType,
		&event.Specialty,
		&event.Title,
		&event.Summary,
		pq.Array(&event.DocumentIDs),
		pq.Array(&event.ConditionTags),
		&event.Verified,
		&episodeID,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan event", err)
	}

	event.Type = entities.EventType(eventType)
	event.EpisodeID = episodeID.String
	return event, nil
}
