package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// EventRepository stores clinical events derived from documents
type EventRepository interface {
	// Create creates a new clinical event
	Create(ctx context.Context, event *entities.ClinicalEvent) error

	// GetByID retrieves an event by ID
	GetByID(ctx context.Context, id string) (*entities.ClinicalEvent, error)

	// Update updates an event (verification flag, episode assignment)
	Update(ctx context.Context, event *entities.ClinicalEvent) error

	// List retrieves events with filters, ordered by date ascending
	List(ctx context.Context, filter EventFilter) ([]*entities.ClinicalEvent, error)

	// ListByDocument returns events referencing the given document
	ListByDocument(ctx context.Context, documentID string) ([]*entities.ClinicalEvent, error)
}

// EventFilter defines filters for listing clinical events
type EventFilter struct {
	Specialty  string
	Type       entities.EventType
	From       *time.Time
	To         *time.Time
	Unassigned bool
	Limit      int
	Offset     int
}

// EpisodeRepository stores clinical episodes
type EpisodeRepository interface {
	// Create creates a new episode
	Create(ctx context.Context, episode *entities.ClinicalEpisode) error

	// GetByID retrieves an episode by ID
	GetByID(ctx context.Context, id string) (*entities.ClinicalEpisode, error)

	// Update updates episode membership and bounds
	Update(ctx context.Context, episode *entities.ClinicalEpisode) error

	// List retrieves episodes ordered by start date ascending
	List(ctx context.Context, limit, offset int) ([]*entities.ClinicalEpisode, error)

	// ReplaceAll atomically swaps the full episode set for a regroup pass
	ReplaceAll(ctx context.Context, episodes []*entities.ClinicalEpisode) error
}

// DocumentSearchRepository defines the interface for timeline text
// search (e.g. Typesense).
type DocumentSearchRepository interface {
	// Index indexes a document for search
	Index(ctx context.Context, doc *entities.DocumentRecord) error

	// Search returns document ids matching the query
	Search(ctx context.Context, query string, limit int) ([]string, error)

	// Delete removes a document from the index
	Delete(ctx context.Context, id string) error
}
