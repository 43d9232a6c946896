package routes

import (
	"net/http"

	"github.com/zatekoja/medtimeline/backend/internal/api/handlers"
	"github.com/zatekoja/medtimeline/backend/internal/api/middleware"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	importHandler       *handlers.ImportHandler
	timelineHandler     *handlers.TimelineHandler
	verificationHandler *handlers.VerificationHandler
	streamHandler       *handlers.StreamHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	importHandler *handlers.ImportHandler,
	timelineHandler *handlers.TimelineHandler,
	verificationHandler *handlers.VerificationHandler,
	streamHandler *handlers.StreamHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		importHandler:       importHandler,
		timelineHandler:     timelineHandler,
		verificationHandler: verificationHandler,
		streamHandler:       streamHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Import endpoints
	r.mux.HandleFunc("POST /api/imports", r.importHandler.TriggerImport)
	r.mux.HandleFunc("GET /api/imports", r.importHandler.ListJobs)
	r.mux.HandleFunc("GET /api/imports/{id}", r.importHandler.GetJob)

	// Timeline endpoints
	r.mux.HandleFunc("GET /api/timeline", r.timelineHandler.GetTimeline)
	r.mux.HandleFunc("GET /api/episodes", r.timelineHandler.ListEpisodes)
	r.mux.HandleFunc("GET /api/episodes/{id}", r.timelineHandler.GetEpisode)

	// Document endpoints
	r.mux.HandleFunc("GET /api/documents", r.timelineHandler.ListDocuments)
	r.mux.HandleFunc("GET /api/documents/{id}", r.timelineHandler.GetDocument)
	r.mux.HandleFunc("GET /api/search", r.timelineHandler.SearchDocuments)

	// Verification endpoints
	r.mux.HandleFunc("GET /api/verification/tasks", r.verificationHandler.ListPendingTasks)
	r.mux.HandleFunc("POST /api/verification/tasks/{id}/approve", r.verificationHandler.ApproveTask)
	r.mux.HandleFunc("POST /api/verification/tasks/{id}/reject", r.verificationHandler.RejectTask)

	// Pipeline progress streams
	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/stream/{topic}", r.streamHandler.StreamPipelineEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
