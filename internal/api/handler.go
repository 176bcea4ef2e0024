package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"scholar-score/config"
	"scholar-score/extraction"
	"scholar-score/internal/app"
	"scholar-score/observability"
	"scholar-score/services"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":              "ok",
		"extraction_provider": h.app.Provider(),
		"concurrency_limit":   h.app.ScoreSemCapacity(),
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// An open breaker means text reports fall back to pattern matching
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleScore extracts and scores one trading report
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req app.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.app.Score(r.Context(), req)
	if err != nil {
		h.scoreError(w, r, err)
		return
	}

	h.jsonResponse(w, result)
}

func (h *Handler) scoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, extraction.ErrEmptyInput):
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrBusy):
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		observability.FromContext(r.Context()).Error("Scoring failed", "error", err)
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	writeJSONError(w, message, status)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
