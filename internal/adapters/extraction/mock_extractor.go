package extraction

import (
	"context"
	"sync"

	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
)

// MockExtractor is a scriptable TextExtractor for tests and dry runs.
// Each path can be scripted with a sequence of outcomes; the sequence's
// last entry repeats once exhausted. Unscripted paths succeed with
// DefaultText.
type MockExtractor struct {
	mu          sync.Mutex
	scripts     map[string][]Outcome
	calls       map[string]int
	DefaultText string
}

// Outcome is one scripted extraction result
type Outcome struct {
	Result *providers.ExtractionResult
	Err    error
}

// NewMockExtractor creates a mock with a default successful outcome
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		scripts:     make(map[string][]Outcome),
		calls:       make(map[string]int),
		DefaultText: "Sample extracted text.",
	}
}

// Script sets the outcome sequence for a path
func (m *MockExtractor) Script(path string, outcomes ...Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = outcomes
}

// Calls returns how many times the path was extracted
func (m *MockExtractor) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func (m *MockExtractor) Extract(ctx context.Context, path string) (*providers.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.calls[path]
	m.calls[path] = n + 1

	outcomes, ok := m.scripts[path]
	if !ok || len(outcomes) == 0 {
		return &providers.ExtractionResult{Ok: true, Text: m.DefaultText, PageCount: 1}, nil
	}
	if n >= len(outcomes) {
		n = len(outcomes) - 1
	}
	outcome := outcomes[n]
	return outcome.Result, outcome.Err
}
