package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxUploadBytes caps multipart uploads at 50 MiB.
const maxUploadBytes = 50 << 20

type Handler struct {
	service *Service
	repo    Repository
}

func NewHandler(service *Service, repo Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "failed to read file", http.StatusBadRequest)
		return
	}

	doc, err := h.service.Upload(r.Context(), r.PathValue("id"), header.Filename, data)
	if err != nil {
		var unsupported *UnsupportedTypeError
		switch {
		case errors.As(err, &unsupported):
			h.writeError(r.Context(), w, "UNSUPPORTED_TYPE", unsupported.Error(), http.StatusUnsupportedMediaType)
		case errors.Is(err, ErrDuplicateContent):
			h.writeError(r.Context(), w, "DUPLICATE_CONTENT", err.Error(), http.StatusConflict)
		default:
			slog.ErrorContext(r.Context(), "failed to upload document", "error", err)
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": doc}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.List(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list documents", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": docs}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), r.PathValue("id"), r.PathValue("docID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
			h.writeError(r.Context(), w, "NOT_FOUND", "document not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete document", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
