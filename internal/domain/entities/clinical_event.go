package entities

import (
	"time"
)

// EventType classifies a clinical event on the timeline
type EventType string

const (
	EventTypeLabResult     EventType = "lab_result"
	EventTypeImagingResult EventType = "imaging_result"
	EventTypeAppointment   EventType = "appointment"
	EventTypeProcedure     EventType = "procedure"
	EventTypeNote          EventType = "note"
)

// ClinicalEvent is a dated, typed, specialty-scoped occurrence derived
// from one or more document records.
type ClinicalEvent struct {
	ID            string    `json:"id" db:"id"`
	Date          time.Time `json:"date" db:"date"`
	Type          EventType `json:"type" db:"type"`
	Specialty     string    `json:"specialty" db:"specialty"`
	Title         string    `json:"title" db:"title"`
	Summary       string    `json:"summary" db:"summary"`
	DocumentIDs   []string  `json:"document_ids" db:"document_ids"`
	ConditionTags []string  `json:"condition_tags,omitempty" db:"condition_tags"`
	Verified      bool      `json:"verified" db:"verified"`
	EpisodeID     string    `json:"episode_id,omitempty" db:"episode_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
