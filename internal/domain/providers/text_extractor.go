package providers

import (
	"context"
)

// ExtractionResult is the outcome of one text-extraction call. Ok=false
// carries a classified error from the adapter; callers decide between
// retry and dead-letter based on it.
type ExtractionResult struct {
	Ok        bool   `json:"ok"`
	Text      string `json:"text,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TextExtractor defines the interface for external text-extraction
// facilities (OCR sidecar, PDF parser service, etc.)
type TextExtractor interface {
	// Extract extracts text from the file at the given path. The call
	// carries a timeout; a timeout is a retryable condition.
	Extract(ctx context.Context, path string) (*ExtractionResult, error)
}
