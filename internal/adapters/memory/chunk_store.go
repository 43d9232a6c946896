package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// ChunkStore is an in-memory ChunkRepository
type ChunkStore struct {
	mu         sync.RWMutex
	byDocument map[string][]*entities.TextChunk
}

// NewChunkStore creates an empty chunk store
func NewChunkStore() *ChunkStore {
	return &ChunkStore{byDocument: make(map[string][]*entities.TextChunk)}
}

func (s *ChunkStore) CreateBatch(ctx context.Context, chunks []*entities.TextChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		stored := *chunk
		s.byDocument[chunk.DocumentID] = append(s.byDocument[chunk.DocumentID], &stored)
	}
	return nil
}

func (s *ChunkStore) ListByDocument(ctx context.Context, documentID string) ([]*entities.TextChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.byDocument[documentID]
	out := make([]*entities.TextChunk, len(chunks))
	for i, chunk := range chunks {
		copied := *chunk
		out[i] = &copied
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// FieldStore is an in-memory FieldRepository
type FieldStore struct {
	mu               sync.RWMutex
	fields           map[string]*entities.ExtractedField
	fieldsByDocument map[string][]string
	ents             map[string][]*entities.ExtractedEntity
}

// NewFieldStore creates an empty field store
func NewFieldStore() *FieldStore {
	return &FieldStore{
		fields:           make(map[string]*entities.ExtractedField),
		fieldsByDocument: make(map[string][]string),
		ents:             make(map[string][]*entities.ExtractedEntity),
	}
}

func (s *FieldStore) CreateFields(ctx context.Context, fields []*entities.ExtractedField) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, field := range fields {
		stored := *field
		s.fields[field.ID] = &stored
		s.fieldsByDocument[field.DocumentID] = append(s.fieldsByDocument[field.DocumentID], field.ID)
	}
	return nil
}

func (s *FieldStore) CreateEntities(ctx context.Context, ents []*entities.ExtractedEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entity := range ents {
		stored := *entity
		s.ents[entity.DocumentID] = append(s.ents[entity.DocumentID], &stored)
	}
	return nil
}

func (s *FieldStore) ListFieldsByDocument(ctx context.Context, documentID string) ([]*entities.ExtractedField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.fieldsByDocument[documentID]
	out := make([]*entities.ExtractedField, 0, len(ids))
	for _, id := range ids {
		copied := *s.fields[id]
		out = append(out, &copied)
	}
	return out, nil
}

func (s *FieldStore) ListEntitiesByDocument(ctx context.Context, documentID string) ([]*entities.ExtractedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ents := s.ents[documentID]
	out := make([]*entities.ExtractedEntity, 0, len(ents))
	for _, entity := range ents {
		copied := *entity
		out = append(out, &copied)
	}
	return out, nil
}

func (s *FieldStore) UpdateFieldStatus(ctx context.Context, fieldIDs []string, status entities.VerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range fieldIDs {
		if field, ok := s.fields[id]; ok {
			field.Status = status
		}
	}
	return nil
}
