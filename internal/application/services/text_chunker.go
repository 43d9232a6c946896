package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// ChunkerConfig tunes the windowing of extracted text
type ChunkerConfig struct {
	MaxChars     int
	MinChars     int
	OverlapChars int
}

// DefaultChunkerConfig returns the chunking defaults
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChars:     1200,
		MinChars:     200,
		OverlapChars: 150,
	}
}

var (
	spaceRunPattern   = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText collapses whitespace runs and caps consecutive blank
// lines before chunking.
func NormalizeText(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = spaceRunPattern.ReplaceAllString(normalized, " ")
	normalized = blankLinesPattern.ReplaceAllString(normalized, "\n\n")
	return strings.TrimSpace(normalized)
}

// ChunkText splits extracted text into overlapping, sentence-aware
// segments. Each chunk spans at most MaxChars; the boundary is pulled
// back to the last sentence or paragraph break found after MinChars
// inside the window, falling back to the hard cut. Consecutive chunks
// overlap by OverlapChars so a value split across a boundary is
// recoverable in at least one chunk. Empty or whitespace-only text
// yields zero chunks.
func ChunkText(documentID, text string, cfg ChunkerConfig) []*entities.TextChunk {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkerConfig()
	}

	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}

	now := time.Now()
	chunks := make([]*entities.TextChunk, 0, len(normalized)/cfg.MaxChars+1)
	start := 0

	for start < len(normalized) {
		end := start + cfg.MaxChars
		if end >= len(normalized) {
			end = len(normalized)
		} else if boundary := lastBreakAfter(normalized, start+cfg.MinChars, end); boundary > start {
			end = boundary
		} else {
			// Hard cuts must not split a multi-byte rune
			for end > start && !utf8.RuneStart(normalized[end]) {
				end--
			}
		}

		chunks = append(chunks, &entities.TextChunk{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			Index:         len(chunks),
			Text:          normalized[start:end],
			TokenEstimate: (end - start + 3) / 4,
			StartOffset:   start,
			EndOffset:     end,
			CreatedAt:     now,
		})

		if end >= len(normalized) {
			break
		}

		next := end - cfg.OverlapChars
		if next <= start {
			next = end
		}
		for next < len(normalized) && !utf8.RuneStart(normalized[next]) {
			next++
		}
		start = next
	}

	return chunks
}

// lastBreakAfter finds the position just past the last sentence or
// paragraph break in normalized[from:to], or -1 when none exists.
func lastBreakAfter(normalized string, from, to int) int {
	if from < 0 {
		from = 0
	}
	for p := to - 1; p >= from; p-- {
		c := normalized[p]
		if c == '\n' {
			return p + 1
		}
		if (c == '.' || c == '!' || c == '?') && p+2 <= to && p+1 < len(normalized) && normalized[p+1] == ' ' {
			return p + 2
		}
	}
	return -1
}
