package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/adapters/memory"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
)

func storedEvent(id string, date time.Time, specialty string, eventType entities.EventType) *entities.ClinicalEvent {
	return &entities.ClinicalEvent{
		ID:          id,
		Date:        date,
		Type:        eventType,
		Specialty:   specialty,
		DocumentIDs: []string{"doc-" + id},
	}
}

func TestEventStore_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEventStore()

	jan := time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2021, time.March, 5, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2021, time.June, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, storedEvent("e1", mar, "cardiology", entities.EventTypeImagingResult)))
	require.NoError(t, store.Create(ctx, storedEvent("e2", jan, "cardiology", entities.EventTypeLabResult)))
	require.NoError(t, store.Create(ctx, storedEvent("e3", jun, "neurology", entities.EventTypeAppointment)))

	all, err := store.List(ctx, repositories.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e2", all[0].ID)
	assert.Equal(t, "e3", all[2].ID)

	cards, err := store.List(ctx, repositories.EventFilter{Specialty: "cardiology"})
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	imaging, err := store.List(ctx, repositories.EventFilter{Type: entities.EventTypeImagingResult})
	require.NoError(t, err)
	require.Len(t, imaging, 1)
	assert.Equal(t, "e1", imaging[0].ID)

	from := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2021, time.April, 1, 0, 0, 0, 0, time.UTC)
	window, err := store.List(ctx, repositories.EventFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "e1", window[0].ID)
}

func TestEventStore_UnassignedFilter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEventStore()

	assigned := storedEvent("e1", time.Now(), "cardiology", entities.EventTypeLabResult)
	assigned.EpisodeID = "ep-1"
	require.NoError(t, store.Create(ctx, assigned))
	require.NoError(t, store.Create(ctx, storedEvent("e2", time.Now(), "cardiology", entities.EventTypeLabResult)))

	unassigned, err := store.List(ctx, repositories.EventFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "e2", unassigned[0].ID)
}

func TestEventStore_ListByDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEventStore()

	event := storedEvent("e1", time.Now(), "cardiology", entities.EventTypeLabResult)
	event.DocumentIDs = []string{"doc-a", "doc-b"}
	require.NoError(t, store.Create(ctx, event))
	require.NoError(t, store.Create(ctx, storedEvent("e2", time.Now(), "cardiology", entities.EventTypeLabResult)))

	matched, err := store.ListByDocument(ctx, "doc-b")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "e1", matched[0].ID)
}

func TestEpisodeStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEpisodeStore()

	require.NoError(t, store.Create(ctx, &entities.ClinicalEpisode{ID: "old", StartDate: time.Now()}))

	fresh := []*entities.ClinicalEpisode{
		{ID: "new-1", StartDate: time.Now()},
		{ID: "new-2", StartDate: time.Now().Add(time.Hour)},
	}
	require.NoError(t, store.ReplaceAll(ctx, fresh))

	episodes, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	_, err = store.GetByID(ctx, "old")
	assert.Error(t, err)
}

func TestEpisodeStore_ListOrderedByStartDate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEpisodeStore()

	later := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, &entities.ClinicalEpisode{ID: "ep-later", StartDate: later}))
	require.NoError(t, store.Create(ctx, &entities.ClinicalEpisode{ID: "ep-earlier", StartDate: earlier}))

	episodes, err := store.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "ep-earlier", episodes[0].ID)
}

func TestEventStore_CopiesProtectInternalState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewEventStore()

	event := storedEvent("e1", time.Now(), "cardiology", entities.EventTypeLabResult)
	event.ConditionTags = []string{"cardiac"}
	require.NoError(t, store.Create(ctx, event))

	got, err := store.GetByID(ctx, "e1")
	require.NoError(t, err)
	got.ConditionTags[0] = "mutated"

	again, err := store.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cardiac"}, again.ConditionTags)
}
