package entities

import (
	"time"
)

// TaskStatus represents the lifecycle of a verification task
type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusApproved TaskStatus = "approved"
	TaskStatusRejected TaskStatus = "rejected"
)

// TaskPriority orders pending verification work
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityHigh   TaskPriority = "high"
)

// VerificationTask groups the extracted fields of one document for
// manual review. Exactly one pending task exists per freshly indexed
// document; the task is terminal once approved or rejected.
type VerificationTask struct {
	ID         string       `json:"id" db:"id"`
	DocumentID string       `json:"document_id" db:"document_id"`
	FieldIDs   []string     `json:"field_ids" db:"field_ids"`
	Status     TaskStatus   `json:"status" db:"status"`
	Priority   TaskPriority `json:"priority" db:"priority"`
	Reason     string       `json:"reason" db:"reason"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy string       `json:"resolved_by,omitempty" db:"resolved_by"`
}
