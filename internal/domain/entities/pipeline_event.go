package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// PipelineEventType represents the type of pipeline lifecycle event
type PipelineEventType string

const (
	PipelineEventDocumentIndexed      PipelineEventType = "document_indexed"
	PipelineEventDocumentDeadLettered PipelineEventType = "document_dead_lettered"
	PipelineEventVerificationResolved PipelineEventType = "verification_resolved"
	PipelineEventEpisodeUpdated       PipelineEventType = "episode_updated"
	PipelineEventJobFinished          PipelineEventType = "job_finished"
)

// PipelineEvent is a real-time notification emitted as documents move
// through the ingestion pipeline.
type PipelineEvent struct {
	ID         string                 `json:"id"`
	EventType  PipelineEventType      `json:"event_type"`
	DocumentID string                 `json:"document_id,omitempty"`
	JobID      string                 `json:"job_id,omitempty"`
	EpisodeID  string                 `json:"episode_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// NewPipelineEvent creates a new pipeline event
func NewPipelineEvent(eventType PipelineEventType, documentID, jobID string, details map[string]interface{}) *PipelineEvent {
	return &PipelineEvent{
		ID:         generateEventID(),
		EventType:  eventType,
		DocumentID: documentID,
		JobID:      jobID,
		Timestamp:  time.Now(),
		Details:    details,
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
