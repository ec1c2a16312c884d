package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"bizassist/internal/middleware"
)

type BusinessRepo interface {
	Count(ctx context.Context) (int, error)
}

type DocumentRepo interface {
	Count(ctx context.Context) (int, error)
}

type ProductRepo interface {
	Count(ctx context.Context) (int, error)
}

type EmbeddingRepo interface {
	Count(ctx context.Context) (int, error)
}

type TaskRepo interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type Handler struct {
	businessRepo  BusinessRepo
	documentRepo  DocumentRepo
	productRepo   ProductRepo
	embeddingRepo EmbeddingRepo
	taskRepo      TaskRepo
}

func NewHandler(b BusinessRepo, d DocumentRepo, p ProductRepo, e EmbeddingRepo, t TaskRepo) *Handler {
	return &Handler{
		businessRepo:  b,
		documentRepo:  d,
		productRepo:   p,
		embeddingRepo: e,
		taskRepo:      t,
	}
}

type StatsResponse struct {
	Businesses int            `json:"businesses"`
	Documents  int            `json:"documents"`
	Products   int            `json:"products"`
	Embeddings int            `json:"embeddings"`
	Tasks      map[string]int `json:"tasks"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	bCount, err := h.businessRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count businesses", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count businesses", http.StatusInternalServerError)
		return
	}

	dCount, err := h.documentRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count documents", http.StatusInternalServerError)
		return
	}

	pCount, err := h.productRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count products", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count products", http.StatusInternalServerError)
		return
	}

	eCount, err := h.embeddingRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count embeddings", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count embeddings", http.StatusInternalServerError)
		return
	}

	tCounts, err := h.taskRepo.CountByStatus(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count tasks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count tasks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Businesses: bCount,
		Documents:  dCount,
		Products:   pCount,
		Embeddings: eCount,
		Tasks:      tCounts,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
