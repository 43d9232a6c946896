package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// DocumentStore is an in-memory DocumentRepository. It is the canonical
// store for the pipeline; durable adapters mirror it.
type DocumentStore struct {
	mu            sync.RWMutex
	byID          map[string]*entities.DocumentRecord
	byFingerprint map[string]string
	order         []string
}

// NewDocumentStore creates an empty document store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		byID:          make(map[string]*entities.DocumentRecord),
		byFingerprint: make(map[string]string),
	}
}

func (s *DocumentStore) Create(ctx context.Context, doc *entities.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[doc.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("document %s already exists", doc.ID))
	}

	stored := *doc
	s.byID[doc.ID] = &stored
	if doc.Fingerprint != "" {
		s.byFingerprint[doc.Fingerprint] = doc.ID
	}
	s.order = append(s.order, doc.ID)
	return nil
}

func (s *DocumentStore) GetByID(ctx context.Context, id string) (*entities.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", id))
	}
	out := *doc
	return &out, nil
}

func (s *DocumentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*entities.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no document with fingerprint %s", fingerprint))
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *DocumentStore) Update(ctx context.Context, doc *entities.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[doc.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("document %s not found", doc.ID))
	}
	stored := *doc
	s.byID[doc.ID] = &stored
	return nil
}

func (s *DocumentStore) List(ctx context.Context, filter repositories.DocumentFilter) ([]*entities.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entities.DocumentRecord, 0, len(s.order))
	for _, id := range s.order {
		doc := s.byID[id]
		if filter.Year != 0 && doc.Year != filter.Year {
			continue
		}
		if filter.Specialty != "" && doc.Specialty != filter.Specialty {
			continue
		}
		if filter.DocumentType != "" && doc.DocumentType != filter.DocumentType {
			continue
		}
		if filter.ImportJobID != "" && doc.ImportJobID != filter.ImportJobID {
			continue
		}
		out := *doc
		matched = append(matched, &out)
	}
	return page(matched, filter.Limit, filter.Offset), nil
}

// FingerprintStore is an in-memory FingerprintRepository with an atomic
// check-and-insert.
type FingerprintStore struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// NewFingerprintStore creates an empty fingerprint set
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{set: make(map[string]struct{})}
}

func (s *FingerprintStore) Add(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[fingerprint]; exists {
		return false, nil
	}
	s.set[fingerprint] = struct{}{}
	return true, nil
}

func (s *FingerprintStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.set[fingerprint]
	return exists, nil
}

// page applies limit/offset to an already-filtered slice
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
