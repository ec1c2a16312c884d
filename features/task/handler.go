package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create accepts an ingestion request and returns the task handle
// immediately; the pipeline runs in the background.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessID string `json:"business_id"`
		SourceType string `json:"source_type"`
		SourceID   string `json:"source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.BusinessID == "" || req.SourceType == "" || req.SourceID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "business_id, source_type and source_id are required", http.StatusBadRequest)
		return
	}

	t, err := h.service.Enqueue(r.Context(), req.BusinessID, req.SourceType, req.SourceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSourceType):
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrBusinessNotFound), errors.Is(err, ErrSourceNotFound):
			h.writeError(r.Context(), w, "NOT_FOUND", err.Error(), http.StatusNotFound)
		default:
			slog.ErrorContext(r.Context(), "failed to enqueue ingestion task", "error", err)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]string{"task_id": t.ID, "status": t.Status},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// GetStatus is the polling endpoint for a task handle.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "task not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to get task status", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": status}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
