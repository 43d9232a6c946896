package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/zatekoja/medtimeline/backend/internal/application/services"
	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	queryservices "github.com/zatekoja/medtimeline/backend/internal/query/services"
)

// ImportHandler triggers ingestion runs over a folder tree
type ImportHandler struct {
	importService  *services.ImportService
	episodeService *services.EpisodeService
	queryService   *queryservices.TimelineQueryService
	redisClient    *redislib.Client
	idempotencyTTL time.Duration
}

// NewImportHandler creates a new import handler. The redis client is
// optional and enables idempotent triggers.
func NewImportHandler(
	importService *services.ImportService,
	episodeService *services.EpisodeService,
	queryService *queryservices.TimelineQueryService,
	redisClient *redislib.Client,
	idempotencyTTL time.Duration,
) *ImportHandler {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &ImportHandler{
		importService:  importService,
		episodeService: episodeService,
		queryService:   queryService,
		redisClient:    redisClient,
		idempotencyTTL: idempotencyTTL,
	}
}

type importRequest struct {
	Root  string `json:"root"`
	Mode  string `json:"mode"`
	Actor string `json:"actor"`
}

// TriggerImport handles POST /api/imports
func (h *ImportHandler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	if h.importService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "import service not configured")
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Root) == "" {
		respondWithError(w, http.StatusBadRequest, "root is required")
		return
	}

	mode := entities.ImportModeSync
	if req.Mode == string(entities.ImportModeBackfill) {
		mode = entities.ImportModeBackfill
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	if duplicate, key := h.isDuplicate(r); duplicate {
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status":          "duplicate",
			"idempotency_key": key,
		})
		return
	}

	files, err := services.ScanTree(req.Root)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to scan folder tree: "+err.Error())
		return
	}

	job, err := h.importService.Run(r.Context(), mode, actor, files)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if h.episodeService != nil {
		if mode == entities.ImportModeBackfill {
			if _, err := h.episodeService.Regroup(r.Context()); err != nil {
				log.Printf("episode regroup after import failed: %v", err)
			}
		} else {
			if _, err := h.episodeService.Attach(r.Context()); err != nil {
				log.Printf("episode attach after import failed: %v", err)
			}
		}
	}

	respondWithJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/imports
func (h *ImportHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50)
	jobs, err := h.queryService.Jobs(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob handles GET /api/imports/{id}
func (h *ImportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.queryService.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, job)
}

func (h *ImportHandler) isDuplicate(r *http.Request) (bool, string) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))
	}
	if key == "" || h.redisClient == nil {
		return false, ""
	}

	redisKey := "import_trigger_idem:" + key
	ok, err := h.redisClient.SetNX(r.Context(), redisKey, time.Now().UTC().Format(time.RFC3339Nano), h.idempotencyTTL).Result()
	if err != nil {
		log.Printf("idempotency check failed: %v", err)
		return false, key
	}
	return !ok, key
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
