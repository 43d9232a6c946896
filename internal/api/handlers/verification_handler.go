package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/medtimeline/backend/internal/application/services"
)

// VerificationHandler serves the manual review queue
type VerificationHandler struct {
	service *services.VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(service *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// ListPendingTasks handles GET /api/verification/tasks
func (h *VerificationHandler) ListPendingTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)
	tasks, err := h.service.PendingTasks(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

type resolveRequest struct {
	Actor string `json:"actor"`
}

// ApproveTask handles POST /api/verification/tasks/{id}/approve
func (h *VerificationHandler) ApproveTask(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

// RejectTask handles POST /api/verification/tasks/{id}/reject
func (h *VerificationHandler) RejectTask(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *VerificationHandler) resolve(w http.ResponseWriter, r *http.Request, approve bool) {
	var req resolveRequest
	if r.Body != nil {
		// Body is optional; a missing actor defaults below
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	task, err := h.service.Resolve(r.Context(), r.PathValue("id"), approve, req.Actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}
