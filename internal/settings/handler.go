package settings

import (
	"context"
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

func (h *Handler) GetChunking(w http.ResponseWriter, r *http.Request) {
	businessID := r.PathValue("id")
	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "entity_type is required", http.StatusBadRequest)
		return
	}

	cs, err := h.service.Chunking(r.Context(), businessID, entityType)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve chunking settings", "error", err, "business_id", businessID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) UpdateChunking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityType   string `json:"entity_type"`
		ChunkSize    int    `json:"chunk_size"`
		ChunkOverlap int    `json:"chunk_overlap"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	cs := &ChunkingSettings{
		BusinessID:   r.PathValue("id"),
		EntityType:   req.EntityType,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	}
	if err := h.service.SaveChunking(r.Context(), cs); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "failed to save chunking settings", "error", err, "business_id", cs.BusinessID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) GetBot(w http.ResponseWriter, r *http.Request) {
	businessID := r.PathValue("id")

	bs, err := h.service.Bot(r.Context(), businessID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve bot settings", "error", err, "business_id", businessID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, bs)
}

func (h *Handler) UpdateBot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmbeddingModel string `json:"embedding_model_name"`
		EmbeddingDim   int    `json:"embedding_dim"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	bs := &BotSettings{
		BusinessID:     r.PathValue("id"),
		EmbeddingModel: req.EmbeddingModel,
		EmbeddingDim:   req.EmbeddingDim,
	}
	if err := h.service.SaveBot(r.Context(), bs); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "failed to save bot settings", "error", err, "business_id", bs.BusinessID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, bs)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": v}); err != nil {
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
