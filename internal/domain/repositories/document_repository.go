package repositories

import (
	"context"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// DocumentRepository defines the interface for document record operations
type DocumentRepository interface {
	// Create creates a new document record
	Create(ctx context.Context, doc *entities.DocumentRecord) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*entities.DocumentRecord, error)

	// GetByFingerprint retrieves a document by its fingerprint
	GetByFingerprint(ctx context.Context, fingerprint string) (*entities.DocumentRecord, error)

	// Update updates a document record
	Update(ctx context.Context, doc *entities.DocumentRecord) error

	// List retrieves documents with filters
	List(ctx context.Context, filter DocumentFilter) ([]*entities.DocumentRecord, error)
}

// DocumentFilter defines filters for listing documents
type DocumentFilter struct {
	Year         int
	Specialty    string
	DocumentType entities.DocumentType
	ImportJobID  string
	Limit        int
	Offset       int
}

// FingerprintRepository is an append-only set of canonical path slugs
// used for at-most-once-per-source-file dedup.
type FingerprintRepository interface {
	// Add inserts the fingerprint and reports whether it was newly added.
	// The check-and-insert is atomic: two concurrent imports of the same
	// fingerprint observe exactly one true.
	Add(ctx context.Context, fingerprint string) (bool, error)

	// Contains reports membership without inserting
	Contains(ctx context.Context, fingerprint string) (bool, error)
}

// ChunkRepository stores the immutable text chunks of a document
type ChunkRepository interface {
	// CreateBatch stores all chunks for a document in index order
	CreateBatch(ctx context.Context, chunks []*entities.TextChunk) error

	// ListByDocument returns a document's chunks ordered by index
	ListByDocument(ctx context.Context, documentID string) ([]*entities.TextChunk, error)
}

// FieldRepository stores extracted fields and entities
type FieldRepository interface {
	// CreateFields stores extracted fields
	CreateFields(ctx context.Context, fields []*entities.ExtractedField) error

	// CreateEntities stores extracted entities
	CreateEntities(ctx context.Context, ents []*entities.ExtractedEntity) error

	// ListFieldsByDocument returns a document's fields
	ListFieldsByDocument(ctx context.Context, documentID string) ([]*entities.ExtractedField, error)

	// ListEntitiesByDocument returns a document's entities
	ListEntitiesByDocument(ctx context.Context, documentID string) ([]*entities.ExtractedEntity, error)

	// UpdateFieldStatus sets the verification status of the given fields
	UpdateFieldStatus(ctx context.Context, fieldIDs []string, status entities.VerificationStatus) error
}
