package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// EpisodePolicy tunes the temporal-proximity clustering
type EpisodePolicy struct {
	MaxGapDays       int
	GroupByCondition bool
}

// DefaultEpisodePolicy returns the grouping defaults
func DefaultEpisodePolicy() EpisodePolicy {
	return EpisodePolicy{
		MaxGapDays:       30,
		GroupByCondition: true,
	}
}

// GroupEvents clusters clinical events into episodes. Events are
// processed in date order; an episode forms greedily around the first
// unassigned event, pulling in any unassigned event within MaxGapDays
// of ANY current member that also shares a condition tag with some
// member (specialty equality is the fallback when either side has no
// condition tags). Each event joins at most one episode. Events are
// mutated in place with their episode assignment.
func GroupEvents(events []*entities.ClinicalEvent, policy EpisodePolicy) []*entities.ClinicalEpisode {
	if policy.MaxGapDays <= 0 {
		policy = DefaultEpisodePolicy()
	}

	sorted := make([]*entities.ClinicalEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	assigned := make(map[string]bool, len(sorted))
	episodes := make([]*entities.ClinicalEpisode, 0)

	for _, seed := range sorted {
		if assigned[seed.ID] {
			continue
		}

		members := []*entities.ClinicalEvent{seed}
		assigned[seed.ID] = true

		// Grow to a fixpoint: joining an event can bring others in range
		for grew := true; grew; {
			grew = false
			for _, candidate := range sorted {
				if assigned[candidate.ID] {
					continue
				}
				if belongsWith(candidate, members, policy) {
					members = append(members, candidate)
					assigned[candidate.ID] = true
					grew = true
				}
			}
		}

		episodes = append(episodes, buildEpisode(members))
	}

	return episodes
}

// AssignEvents attaches new unassigned events to existing episodes
// under the same time/condition rule, without regrouping events that
// are already assigned. The episode's end date is extended when the new
// event is later. Returns the number of events that found an episode.
func AssignEvents(newEvents []*entities.ClinicalEvent, episodes []*entities.ClinicalEpisode, existing []*entities.ClinicalEvent, policy EpisodePolicy) int {
	if policy.MaxGapDays <= 0 {
		policy = DefaultEpisodePolicy()
	}

	byID := make(map[string]*entities.ClinicalEvent, len(existing))
	for _, event := range existing {
		byID[event.ID] = event
	}

	sorted := make([]*entities.ClinicalEvent, len(newEvents))
	copy(sorted, newEvents)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	attached := 0
	for _, event := range sorted {
		if event.EpisodeID != "" {
			continue
		}
		for _, episode := range episodes {
			members := make([]*entities.ClinicalEvent, 0, len(episode.EventIDs))
			for _, id := range episode.EventIDs {
				if member, ok := byID[id]; ok {
					members = append(members, member)
				}
			}
			if len(members) == 0 || !belongsWith(event, members, policy) {
				continue
			}

			event.EpisodeID = episode.ID
			episode.EventIDs = append(episode.EventIDs, event.ID)
			episode.ConditionFocus = unionTags(episode.ConditionFocus, event.ConditionTags)
			if episode.EndDate == nil || event.Date.After(*episode.EndDate) {
				end := event.Date
				episode.EndDate = &end
			}
			members = append(members, event)
			episode.Severity = deriveSeverity(members)
			episode.UpdatedAt = time.Now()

			byID[event.ID] = event
			attached++
			break
		}
	}
	return attached
}

// belongsWith reports whether the candidate is within MaxGapDays of any
// member and passes the condition/specialty overlap rule
func belongsWith(candidate *entities.ClinicalEvent, members []*entities.ClinicalEvent, policy EpisodePolicy) bool {
	maxGap := time.Duration(policy.MaxGapDays) * 24 * time.Hour

	for _, member := range members {
		gap := candidate.Date.Sub(member.Date)
		if gap < 0 {
			gap = -gap
		}
		if gap > maxGap {
			continue
		}
		if !policy.GroupByCondition {
			return true
		}
		if sharesCondition(candidate, member) {
			return true
		}
	}
	return false
}

func sharesCondition(a, b *entities.ClinicalEvent) bool {
	if len(a.ConditionTags) == 0 || len(b.ConditionTags) == 0 {
		return a.Specialty == b.Specialty
	}
	for _, tagA := range a.ConditionTags {
		for _, tagB := range b.ConditionTags {
			if tagA == tagB {
				return true
			}
		}
	}
	return false
}

func buildEpisode(members []*entities.ClinicalEvent) *entities.ClinicalEpisode {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Date.Before(members[j].Date)
	})

	now := time.Now()
	episode := &entities.ClinicalEpisode{
		ID:        uuid.NewString(),
		StartDate: members[0].Date,
		Severity:  deriveSeverity(members),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, member := range members {
		member.EpisodeID = episode.ID
		episode.EventIDs = append(episode.EventIDs, member.ID)
		episode.ConditionFocus = unionTags(episode.ConditionFocus, member.ConditionTags)
	}

	last := members[len(members)-1].Date
	if last.After(episode.StartDate) {
		episode.EndDate = &last
	}

	episode.Label = deriveLabel(members, episode.ConditionFocus)
	return episode
}

// deriveSeverity: severe when a procedure is present, or imaging with 4+
// events; moderate on imaging, 2+ appointments, or 3+ events; else mild
func deriveSeverity(members []*entities.ClinicalEvent) entities.EpisodeSeverity {
	var hasProcedure, hasImaging bool
	appointments := 0
	for _, member := range members {
		switch member.Type {
		case entities.EventTypeProcedure:
			hasProcedure = true
		case entities.EventTypeImagingResult:
			hasImaging = true
		case entities.EventTypeAppointment:
			appointments++
		}
	}

	if hasProcedure || (hasImaging && len(members) >= 4) {
		return entities.SeveritySevere
	}
	if hasImaging || appointments >= 2 || len(members) >= 3 {
		return entities.SeverityModerate
	}
	return entities.SeverityMild
}

func deriveLabel(members []*entities.ClinicalEvent, conditions []string) string {
	var hasImaging, hasLab bool
	for _, member := range members {
		switch member.Type {
		case entities.EventTypeImagingResult:
			hasImaging = true
		case entities.EventTypeLabResult:
			hasLab = true
		}
	}

	var kind string
	switch {
	case hasImaging && hasLab:
		kind = "comprehensive workup"
	case hasImaging:
		kind = "imaging investigation"
	case hasLab:
		kind = "lab monitoring"
	default:
		kind = "clinical episode"
	}

	if len(conditions) > 0 {
		focus := topConditions(members, conditions, 2)
		return strings.Join(focus, "/") + " " + kind
	}

	specialty := members[0].Specialty
	for _, member := range members[1:] {
		if member.Specialty != specialty {
			return "Multi-specialty assessment"
		}
	}
	return humanizeSpecialty(specialty) + " " + kind
}

// topConditions returns up to max condition tags ranked by how many
// member events carry them, upper-cased
func topConditions(members []*entities.ClinicalEvent, conditions []string, max int) []string {
	counts := map[string]int{}
	for _, member := range members {
		for _, tag := range member.ConditionTags {
			counts[tag]++
		}
	}

	ranked := make([]string, len(conditions))
	copy(ranked, conditions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, tag := range ranked {
		out[i] = strings.ToUpper(tag)
	}
	return out
}

func humanizeSpecialty(specialty string) string {
	words := strings.Split(strings.ReplaceAll(specialty, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
