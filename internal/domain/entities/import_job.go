package entities

import (
	"time"
)

// ImportMode distinguishes a full backfill from an incremental sync
type ImportMode string

const (
	ImportModeBackfill ImportMode = "backfill"
	ImportModeSync     ImportMode = "sync"
)

// JobStatus represents the state of an import job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ImportItemStatus is the terminal status of one scanned file
type ImportItemStatus string

const (
	ImportItemImported  ImportItemStatus = "imported"
	ImportItemDuplicate ImportItemStatus = "duplicate"
	ImportItemRejected  ImportItemStatus = "rejected"
	ImportItemFailed    ImportItemStatus = "failed"
)

// ImportSummary aggregates per-file outcomes for one run. Field names
// are part of the API contract and must not change.
type ImportSummary struct {
	Scanned       int `json:"scanned"`
	Accepted      int `json:"accepted"`
	Created       int `json:"created"`
	Duplicates    int `json:"duplicates"`
	Rejected      int `json:"rejected"`
	Failed        int `json:"failed"`
	RetryAttempts int `json:"retryAttempts"`
	DeadLettered  int `json:"deadLettered"`
}

// ImportItem records the outcome for a single scanned file
type ImportItem struct {
	Path         string           `json:"path"`
	Fingerprint  string           `json:"fingerprint,omitempty"`
	Status       ImportItemStatus `json:"status"`
	Reason       string           `json:"reason,omitempty"`
	AttemptCount int              `json:"attempt_count,omitempty"`
	Retryable    *bool            `json:"retryable,omitempty"`
}

// DeadLetter captures a permanently failed file for manual inspection
type DeadLetter struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error"`
	Retryable   bool      `json:"retryable"`
	Attempts    int       `json:"attempts"`
	FailedAt    time.Time `json:"failed_at"`
}

// ImportJob represents one ingestion run over a folder tree. Items and
// summary counters are append-only while the job is processing; the job
// is immutable once completed or failed.
type ImportJob struct {
	ID          string        `json:"id" db:"id"`
	Mode        ImportMode    `json:"mode" db:"mode"`
	Actor       string        `json:"actor" db:"actor"`
	Status      JobStatus     `json:"status" db:"status"`
	Summary     ImportSummary `json:"summary" db:"summary"`
	Items       []ImportItem  `json:"items" db:"items"`
	DeadLetters []DeadLetter  `json:"dead_letters,omitempty" db:"dead_letters"`
	Errors      []string      `json:"errors,omitempty" db:"errors"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}
