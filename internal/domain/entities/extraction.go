package entities

import (
	"time"
)

// FieldType classifies an extracted clinical signal
type FieldType string

const (
	FieldTypeSummary   FieldType = "summary"
	FieldTypeDiagnosis FieldType = "diagnosis"
	FieldTypeLab       FieldType = "lab"
	FieldTypeProcedure FieldType = "procedure"
	FieldTypeFinding   FieldType = "finding"
	FieldTypeProvider  FieldType = "provider"
)

// ExtractionCandidate is a heuristic hit before persistence: a typed
// key/value pair with a confidence score and the chunk indices that
// contain the matched text.
type ExtractionCandidate struct {
	Type         FieldType `json:"type"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	Unit         string    `json:"unit,omitempty"`
	Confidence   float64   `json:"confidence"`
	ChunkIndices []int     `json:"chunk_indices,omitempty"`
}

// ExtractedField is a persisted candidate awaiting verification. Its
// verification status is independent of the owning document's status.
type ExtractedField struct {
	ID           string             `json:"id" db:"id"`
	DocumentID   string             `json:"document_id" db:"document_id"`
	Type         FieldType          `json:"type" db:"type"`
	Key          string             `json:"key" db:"key"`
	Value        string             `json:"value" db:"value"`
	Unit         string             `json:"unit,omitempty" db:"unit"`
	Confidence   float64            `json:"confidence" db:"confidence"`
	ChunkIndices []int              `json:"chunk_indices,omitempty" db:"chunk_indices"`
	Status       VerificationStatus `json:"status" db:"status"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}

// ExtractedEntity is a named clinical entity (condition, provider)
// surfaced from a document.
type ExtractedEntity struct {
	ID         string             `json:"id" db:"id"`
	DocumentID string             `json:"document_id" db:"document_id"`
	Type       FieldType          `json:"type" db:"type"`
	Name       string             `json:"name" db:"name"`
	Confidence float64            `json:"confidence" db:"confidence"`
	Status     VerificationStatus `json:"status" db:"status"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}
