package entities

import (
	"time"
)

// TextChunk is a bounded, overlapping slice of a document's extracted text.
// Chunk indices are 0-based and contiguous per document; source-chunk
// citations resolve against them, so the ordering is immutable.
type TextChunk struct {
	ID            string    `json:"id" db:"id"`
	DocumentID    string    `json:"document_id" db:"document_id"`
	Index         int       `json:"index" db:"chunk_index"`
	Text          string    `json:"text" db:"text"`
	TokenEstimate int       `json:"token_estimate" db:"token_estimate"`
	StartOffset   int       `json:"start_offset" db:"start_offset"`
	EndOffset     int       `json:"end_offset" db:"end_offset"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
