package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

func eventOn(id string, date time.Time, specialty string, eventType entities.EventType, conditions ...string) *entities.ClinicalEvent {
	return &entities.ClinicalEvent{
		ID:            id,
		Date:          date,
		Type:          eventType,
		Specialty:     specialty,
		ConditionTags: conditions,
	}
}

func day(n int) time.Time {
	return time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestGroupEvents_MergesWithinGap(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}
	events := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "gastroenterology", entities.EventTypeAppointment, "gi"),
		eventOn("e2", day(10), "gastroenterology", entities.EventTypeLabResult, "gi"),
		eventOn("e3", day(25), "gastroenterology", entities.EventTypeProcedure, "gi"),
	}

	episodes := services.GroupEvents(events, policy)

	require.Len(t, episodes, 1)
	assert.Len(t, episodes[0].EventIDs, 3)
	assert.Equal(t, day(0), episodes[0].StartDate)
	require.NotNil(t, episodes[0].EndDate)
	assert.Equal(t, day(25), *episodes[0].EndDate)

	for _, event := range events {
		assert.Equal(t, episodes[0].ID, event.EpisodeID)
	}
}

// The gap is measured to the nearest member, not the seed, so a chain of
// short gaps spans longer than MaxGapDays.
func TestGroupEvents_ChainsThroughIntermediateEvents(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}
	events := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "cardiology", entities.EventTypeAppointment, "cardiac"),
		eventOn("e2", day(25), "cardiology", entities.EventTypeLabResult, "cardiac"),
		eventOn("e3", day(50), "cardiology", entities.EventTypeImagingResult, "cardiac"),
	}

	episodes := services.GroupEvents(events, policy)
	require.Len(t, episodes, 1)
	assert.Len(t, episodes[0].EventIDs, 3)
}

func TestGroupEvents_SplitsBeyondGap(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}
	events := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "cardiology", entities.EventTypeAppointment, "cardiac"),
		eventOn("e2", day(45), "cardiology", entities.EventTypeLabResult, "cardiac"),
	}

	episodes := services.GroupEvents(events, policy)
	require.Len(t, episodes, 2)
}

func TestGroupEvents_DisjointConditionsStaySeparate(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}
	events := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "immunology_mcas", entities.EventTypeLabResult, "mcas"),
		eventOn("e2", day(0), "endocrinology", entities.EventTypeLabResult, "thyroid"),
	}

	episodes := services.GroupEvents(events, policy)
	require.Len(t, episodes, 2)
}

func TestGroupEvents_SpecialtyFallbackWhenUntagged(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}
	events := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "neurology", entities.EventTypeAppointment),
		eventOn("e2", day(5), "neurology", entities.EventTypeAppointment),
		eventOn("e3", day(5), "dermatology", entities.EventTypeAppointment),
	}

	episodes := services.GroupEvents(events, policy)
	require.Len(t, episodes, 2)
}

func TestGroupEvents_Severity(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}

	tests := []struct {
		name   string
		events []*entities.ClinicalEvent
		want   entities.EpisodeSeverity
	}{
		{
			"procedure is severe",
			[]*entities.ClinicalEvent{
				eventOn("e1", day(0), "gastroenterology", entities.EventTypeProcedure, "gi"),
			},
			entities.SeveritySevere,
		},
		{
			"imaging is moderate",
			[]*entities.ClinicalEvent{
				eventOn("e1", day(0), "cardiology", entities.EventTypeImagingResult, "cardiac"),
			},
			entities.SeverityModerate,
		},
		{
			"single lab is mild",
			[]*entities.ClinicalEvent{
				eventOn("e1", day(0), "endocrinology", entities.EventTypeLabResult, "thyroid"),
			},
			entities.SeverityMild,
		},
		{
			"two appointments are moderate",
			[]*entities.ClinicalEvent{
				eventOn("e1", day(0), "neurology", entities.EventTypeAppointment, "neurologic"),
				eventOn("e2", day(5), "neurology", entities.EventTypeAppointment, "neurologic"),
			},
			entities.SeverityModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			episodes := services.GroupEvents(tt.events, policy)
			require.Len(t, episodes, 1)
			assert.Equal(t, tt.want, episodes[0].Severity)
		})
	}
}

func TestGroupEvents_Labels(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}

	t.Run("condition focus with kind", func(t *testing.T) {
		events := []*entities.ClinicalEvent{
			eventOn("e1", day(0), "endocrinology", entities.EventTypeLabResult, "thyroid"),
			eventOn("e2", day(10), "endocrinology", entities.EventTypeLabResult, "thyroid"),
		}
		episodes := services.GroupEvents(events, policy)
		require.Len(t, episodes, 1)
		assert.Equal(t, "THYROID lab monitoring", episodes[0].Label)
	})

	t.Run("untagged single specialty", func(t *testing.T) {
		events := []*entities.ClinicalEvent{
			eventOn("e1", day(0), "physical_therapy", entities.EventTypeAppointment),
		}
		episodes := services.GroupEvents(events, policy)
		require.Len(t, episodes, 1)
		assert.Equal(t, "Physical Therapy clinical episode", episodes[0].Label)
	})
}

func TestAssignEvents_AttachesToExistingEpisode(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}

	existing := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "gastroenterology", entities.EventTypeAppointment, "gi"),
		eventOn("e2", day(10), "gastroenterology", entities.EventTypeLabResult, "gi"),
	}
	episodes := services.GroupEvents(existing, policy)
	require.Len(t, episodes, 1)

	incoming := eventOn("e3", day(20), "gastroenterology", entities.EventTypeProcedure, "gi")
	attached := services.AssignEvents([]*entities.ClinicalEvent{incoming}, episodes, existing, policy)

	assert.Equal(t, 1, attached)
	assert.Equal(t, episodes[0].ID, incoming.EpisodeID)
	assert.Contains(t, episodes[0].EventIDs, "e3")
	require.NotNil(t, episodes[0].EndDate)
	assert.Equal(t, day(20), *episodes[0].EndDate)
	assert.Equal(t, entities.SeveritySevere, episodes[0].Severity)
}

func TestAssignEvents_LeavesUnrelatedUnassigned(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}

	existing := []*entities.ClinicalEvent{
		eventOn("e1", day(0), "gastroenterology", entities.EventTypeAppointment, "gi"),
	}
	episodes := services.GroupEvents(existing, policy)

	incoming := eventOn("e2", day(200), "gastroenterology", entities.EventTypeLabResult, "gi")
	attached := services.AssignEvents([]*entities.ClinicalEvent{incoming}, episodes, existing, policy)

	assert.Equal(t, 0, attached)
	assert.Empty(t, incoming.EpisodeID)
}

func TestGroupEvents_AllEventsAssignedExactlyOnce(t *testing.T) {
	policy := services.EpisodePolicy{MaxGapDays: 30, GroupByCondition: true}

	events := make([]*entities.ClinicalEvent, 0, 12)
	for i := 0; i < 12; i++ {
		events = append(events, eventOn(
			fmt.Sprintf("e%d", i),
			day(i*20),
			"cardiology",
			entities.EventTypeLabResult,
			"cardiac",
		))
	}

	episodes := services.GroupEvents(events, policy)

	seen := map[string]int{}
	for _, episode := range episodes {
		for _, id := range episode.EventIDs {
			seen[id]++
		}
	}
	assert.Len(t, seen, len(events))
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %s assigned %d times", id, count)
	}
}
