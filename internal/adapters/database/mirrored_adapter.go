package database

import (
	"context"
	"log"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
)

// MirroredDocumentAdapter pairs the in-memory canonical store with a
// durable PostgreSQL mirror. Reads are served from the canonical store;
// writes land there synchronously and are mirrored asynchronously on a
// best-effort basis, so a database outage never fails the pipeline.
type MirroredDocumentAdapter struct {
	canonical repositories.DocumentRepository
	durable   repositories.DocumentRepository
}

// NewMirroredDocumentAdapter creates a new mirrored document adapter
func NewMirroredDocumentAdapter(canonical, durable repositories.DocumentRepository) repositories.DocumentRepository {
	return &MirroredDocumentAdapter{
		canonical: canonical,
		durable:   durable,
	}
}

func (a *MirroredDocumentAdapter) Create(ctx context.Context, doc *entities.DocumentRecord) error {
	if err := a.canonical.Create(ctx, doc); err != nil {
		return err
	}

	mirrored := *doc
	go func() {
		if err := a.durable.Create(context.Background(), &mirrored); err != nil {
			log.Printf("Failed to mirror document %s: %v", mirrored.ID, err)
		}
	}()
	return nil
}

func (a *MirroredDocumentAdapter) GetByID(ctx context.Context, id string) (*entities.DocumentRecord, error) {
	return a.canonical.GetByID(ctx, id)
}

func (a *MirroredDocumentAdapter) GetByFingerprint(ctx context.Context, fingerprint string) (*entities.DocumentRecord, error) {
	return a.canonical.GetByFingerprint(ctx, fingerprint)
}

func (a *MirroredDocumentAdapter) Update(ctx context.Context, doc *entities.DocumentRecord) error {
	if err := a.canonical.Update(ctx, doc); err != nil {
		return err
	}

	mirrored := *doc
	go func() {
		if err := a.durable.Update(context.Background(), &mirrored); err != nil {
			log.Printf("Failed to mirror document update %s: %v", mirrored.ID, err)
		}
	}()
	return nil
}

func (a *MirroredDocumentAdapter) List(ctx context.Context, filter repositories.DocumentFilter) ([]*entities.DocumentRecord, error) {
	return a.canonical.List(ctx, filter)
}

// MirroredEventAdapter mirrors clinical event writes the same way
type MirroredEventAdapter struct {
	canonical repositories.EventRepository
	durable   repositories.EventRepository
}

// NewMirroredEventAdapter creates a new mirrored event adapter
func NewMirroredEventAdapter(canonical, durable repositories.EventRepository) repositories.EventRepository {
	return &MirroredEventAdapter{
		canonical: canonical,
		durable:   durable,
	}
}

func (a *MirroredEventAdapter) Create(ctx context.Context, event *entities.ClinicalEvent) error {
	if err := a.canonical.Create(ctx, event); err != nil {
		return err
	}

	mirrored := *event
	go func() {
		if err := a.durable.Create(context.Background(), &mirrored); err != nil {
			log.Printf("Failed to mirror event %s: %v", mirrored.ID, err)
		}
	}()
	return nil
}

func (a *MirroredEventAdapter) GetByID(ctx context.Context, id string) (*entities.ClinicalEvent, error) {
	return a.canonical.GetByID(ctx, id)
}

func (a *MirroredEventAdapter) Update(ctx context.Context, event *entities.ClinicalEvent) error {
	if err := a.canonical.Update(ctx, event); err != nil {
		return err
	}

	mirrored := *event
	go func() {
		if err := a.durable.Update(context.Background(), &mirrored); err != nil {
			log.Printf("Failed to mirror event update %s: %v", mirrored.ID, err)
		}
	}()
	return nil
}

func (a *MirroredEventAdapter) List(ctx context.Context, filter repositories.EventFilter) ([]*entities.ClinicalEvent, error) {
	return a.canonical.List(ctx, filter)
}

func (a *MirroredEventAdapter) ListByDocument(ctx context.Context, documentID string) ([]*entities.ClinicalEvent, error) {
	return a.canonical.ListByDocument(ctx, documentID)
}
