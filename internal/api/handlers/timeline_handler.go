package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	queryservices "github.com/zatekoja/medtimeline/backend/internal/query/services"
)

// TimelineHandler serves the read side: events, episodes, documents and
// free-text search.
type TimelineHandler struct {
	queryService *queryservices.TimelineQueryService
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(queryService *queryservices.TimelineQueryService) *TimelineHandler {
	return &TimelineHandler{queryService: queryService}
}

// GetTimeline handles GET /api/timeline
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := parsePagination(r, 100)

	filter := repositories.EventFilter{
		Specialty: query.Get("specialty"),
		Type:      entities.EventType(query.Get("type")),
		Limit:     limit,
		Offset:    offset,
	}
	if from, ok := parseDate(query.Get("from")); ok {
		filter.From = &from
	}
	if to, ok := parseDate(query.Get("to")); ok {
		filter.To = &to
	}

	events, err := h.queryService.Timeline(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// ListEpisodes handles GET /api/episodes
func (h *TimelineHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)
	episodes, err := h.queryService.Episodes(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"episodes": episodes,
		"count":    len(episodes),
	})
}

// GetEpisode handles GET /api/episodes/{id}
func (h *TimelineHandler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queryService.Episode(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// ListDocuments handles GET /api/documents
func (h *TimelineHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := parsePagination(r, 100)

	filter := repositories.DocumentFilter{
		Specialty:    query.Get("specialty"),
		DocumentType: entities.DocumentType(query.Get("type")),
		ImportJobID:  query.Get("job"),
		Limit:        limit,
		Offset:       offset,
	}
	if year, ok := parseYear(query.Get("year")); ok {
		filter.Year = year
	}

	docs, err := h.queryService.Documents(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

// GetDocument handles GET /api/documents/{id}
func (h *TimelineHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queryService.Document(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// SearchDocuments handles GET /api/search
func (h *TimelineHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := parsePagination(r, 20)

	docs, err := h.queryService.SearchDocuments(r.Context(), q, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func parseYear(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	parsed, err := time.Parse("2006", value)
	if err != nil {
		return 0, false
	}
	return parsed.Year(), true
}
