package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// EventStore is an in-memory EventRepository
type EventStore struct {
	mu   sync.RWMutex
	byID map[string]*entities.ClinicalEvent
}

// NewEventStore creates an empty event store
func NewEventStore() *EventStore {
	return &EventStore{byID: make(map[string]*entities.ClinicalEvent)}
}

func (s *EventStore) Create(ctx context.Context, event *entities.ClinicalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("event %s already exists", event.ID))
	}
	stored := copyEvent(event)
	s.byID[event.ID] = stored
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*entities.ClinicalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event %s not found", id))
	}
	return copyEvent(event), nil
}

func (s *EventStore) Update(ctx context.Context, event *entities.ClinicalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[event.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("event %s not found", event.ID))
	}
	s.byID[event.ID] = copyEvent(event)
	return nil
}

func (s *EventStore) List(ctx context.Context, filter repositories.EventFilter) ([]*entities.ClinicalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entities.ClinicalEvent, 0, len(s.byID))
	for _, event := range s.byID {
		if filter.Specialty != "" && event.Specialty != filter.Specialty {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		if filter.From != nil && event.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && event.Date.After(*filter.To) {
			continue
		}
		if filter.Unassigned && event.EpisodeID != "" {
			continue
		}
		matched = append(matched, copyEvent(event))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})
	return page(matched, filter.Limit, filter.Offset), nil
}

func (s *EventStore) ListByDocument(ctx context.Context, documentID string) ([]*entities.ClinicalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entities.ClinicalEvent, 0)
	for _, event := range s.byID {
		for _, id := range event.DocumentIDs {
			if id == documentID {
				matched = append(matched, copyEvent(event))
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	return matched, nil
}

// EpisodeStore is an in-memory EpisodeRepository
type EpisodeStore struct {
	mu   sync.RWMutex
	byID map[string]*entities.ClinicalEpisode
}

// NewEpisodeStore creates an empty episode store
func NewEpisodeStore() *EpisodeStore {
	return &EpisodeStore{byID: make(map[string]*entities.ClinicalEpisode)}
}

func (s *EpisodeStore) Create(ctx context.Context, episode *entities.ClinicalEpisode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[episode.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("episode %s already exists", episode.ID))
	}
	s.byID[episode.ID] = copyEpisode(episode)
	return nil
}

func (s *EpisodeStore) GetByID(ctx context.Context, id string) (*entities.ClinicalEpisode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	episode, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("episode %s not found", id))
	}
	return copyEpisode(episode), nil
}

func (s *EpisodeStore) Update(ctx context.Context, episode *entities.ClinicalEpisode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[episode.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("episode %s not found", episode.ID))
	}
	s.byID[episode.ID] = copyEpisode(episode)
	return nil
}

func (s *EpisodeStore) List(ctx context.Context, limit, offset int) ([]*entities.ClinicalEpisode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.ClinicalEpisode, 0, len(s.byID))
	for _, episode := range s.byID {
		out = append(out, copyEpisode(episode))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

func (s *EpisodeStore) ReplaceAll(ctx context.Context, episodes []*entities.ClinicalEpisode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*entities.ClinicalEpisode, len(episodes))
	for _, episode := range episodes {
		s.byID[episode.ID] = copyEpisode(episode)
	}
	return nil
}

func copyEvent(event *entities.ClinicalEvent) *entities.ClinicalEvent {
	copied := *event
	copied.DocumentIDs = append([]string(nil), event.DocumentIDs...)
	copied.ConditionTags = append([]string(nil), event.ConditionTags...)
	return &copied
}

func copyEpisode(episode *entities.ClinicalEpisode) *entities.ClinicalEpisode {
	copied := *episode
	copied.EventIDs = append([]string(nil), episode.EventIDs...)
	copied.ConditionFocus = append([]string(nil), episode.ConditionFocus...)
	return &copied
}
