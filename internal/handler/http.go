package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/concert-badges/internal/domain"
	"github.com/concert-badges/internal/service"
	"github.com/concert-badges/internal/websocket"
	"github.com/concert-badges/internal/worker"
)

// Handler provides HTTP handlers for the badge API
type Handler struct {
	service  *service.BadgeService
	backfill *worker.Backfiller
	hub      *websocket.Hub
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.BadgeService, backfill *worker.Backfiller, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		backfill: backfill,
		hub:      hub,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Attendance log operations
		r.Route("/attendances", func(r chi.Router) {
			r.Post("/", h.LogAttendance)
			r.Put("/{attendanceID}", h.UpdateAttendance)
			r.Delete("/{attendanceID}", h.DeleteAttendance)
		})

		// Badge operations
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/badges", h.GetUserBadges)
			r.Get("/progress", h.GetProgress)
			r.Get("/points", h.GetPoints)
			r.Post("/evaluate", h.EvaluateUser)
		})

		// Catalog
		r.Get("/catalog", h.GetCatalog)

		// Backfill operations
		r.Post("/backfill", h.StartBackfill)
		r.Get("/backfill/status", h.GetBackfillStatus)

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to an HTTP response
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case domain.IsRetryable(err):
		// The caller can retry the whole evaluation safely.
		h.writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// attendanceResponse pairs a stored attendance with the evaluation it
// triggered
type attendanceResponse struct {
	Attendance *domain.Attendance       `json:"attendance,omitempty"`
	Evaluation *domain.EvaluationResult `json:"evaluation,omitempty"`
}

// LogAttendance handles logging a concert visit
func (h *Handler) LogAttendance(w http.ResponseWriter, r *http.Request) {
	var req domain.LogAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	attendance, result, err := h.service.LogAttendance(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    attendanceResponse{Attendance: attendance, Evaluation: result},
	})
}

// UpdateAttendance handles rewriting a logged visit
func (h *Handler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	attendanceID := chi.URLParam(r, "attendanceID")
	if attendanceID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req domain.LogAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	attendance, result, err := h.service.UpdateAttendance(r.Context(), attendanceID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, attendanceResponse{Attendance: attendance, Evaluation: result})
}

// DeleteAttendance handles removing a logged visit
func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	attendanceID := chi.URLParam(r, "attendanceID")
	if attendanceID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.DeleteAttendance(r.Context(), attendanceID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, attendanceResponse{Evaluation: result})
}

// GetUserBadges returns a user's earned badges
func (h *Handler) GetUserBadges(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	badges, err := h.service.GetUserBadges(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, badges)
}

// GetProgress returns a user's badge progress summary
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	summary, err := h.service.GetProgress(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, summary)
}

// GetPoints returns a user's lifetime point total
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	points, err := h.service.GetPoints(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, points)
}

// EvaluateUser triggers a badge evaluation for a user
func (h *Handler) EvaluateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.EvaluateUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, result)
}

// GetCatalog returns the active badge catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.service.Catalog()
	h.writeSuccess(w, map[string]interface{}{
		"version": cat.Version(),
		"badges":  cat.Badges(),
	})
}

// StartBackfill kicks off a catalog backfill sweep in the background
func (h *Handler) StartBackfill(w http.ResponseWriter, r *http.Request) {
	status := h.backfill.Status()
	if status.Running {
		h.writeError(w, http.StatusConflict, domain.ErrBackfillRunning)
		return
	}

	go func() {
		if _, err := h.backfill.Run(context.Background()); err != nil &&
			!errors.Is(err, domain.ErrBackfillRunning) {
			h.logger.Error("backfill run failed", "error", err)
		}
	}()

	h.writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data:    map[string]string{"status": "started"},
	})
}

// GetBackfillStatus reports backfill progress
func (h *Handler) GetBackfillStatus(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.backfill.Status())
}
