package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/pkg/config"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

// HTTPExtractor calls an external text-extraction sidecar (OCR / PDF
// parsing) over HTTP. Failures come back classified: timeouts, dropped
// connections and 5xx responses are transient; 4xx responses and
// extractor-reported file problems are permanent.
type HTTPExtractor struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPExtractor creates an extractor client from config
func NewHTTPExtractor(cfg *config.ExtractorConfig) *HTTPExtractor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPExtractor{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type extractRequest struct {
	Path string `json:"path"`
}

// Extract sends the file path to the sidecar's /extract endpoint
func (e *HTTPExtractor) Extract(ctx context.Context, path string) (*providers.ExtractionResult, error) {
	body, err := json.Marshal(extractRequest{Path: path})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal extraction request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build extraction request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewTransientError("extraction request timed out", err)
		}
		return nil, apperrors.NewTransientError("extraction service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, apperrors.NewTransientError(fmt.Sprintf("extraction service returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("extraction rejected with %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransientError("failed to read extraction response", err)
	}

	var result providers.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperrors.NewExternalError("malformed extraction response", err)
	}
	return &result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
