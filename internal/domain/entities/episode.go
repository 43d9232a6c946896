package entities

import (
	"time"
)

// EpisodeSeverity is derived from the mix of events inside an episode
type EpisodeSeverity string

const (
	SeverityMild     EpisodeSeverity = "mild"
	SeverityModerate EpisodeSeverity = "moderate"
	SeveritySevere   EpisodeSeverity = "severe"
)

// ClinicalEpisode is a time-bounded cluster of clinical events sharing
// condition or specialty context.
type ClinicalEpisode struct {
	ID             string          `json:"id" db:"id"`
	Label          string          `json:"label" db:"label"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty" db:"end_date"`
	ConditionFocus []string        `json:"condition_focus,omitempty" db:"condition_focus"`
	EventIDs       []string        `json:"event_ids" db:"event_ids"`
	Severity       EpisodeSeverity `json:"severity" db:"severity"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
