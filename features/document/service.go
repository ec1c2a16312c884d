package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// BlobStore persists raw document bytes outside the database.
type BlobStore interface {
	Store(ctx context.Context, data []byte, businessID, fileName string) (ref string, hash string, err error)
	Delete(ctx context.Context, ref string) (bool, error)
}

var supportedTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"txt":  true,
	"xlsx": true,
	"csv":  true,
}

// UnsupportedTypeError is returned when a document's file extension is not
// one the extraction pipeline can handle.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type: %q", e.Type)
}

type Service struct {
	repo  Repository
	blobs BlobStore
}

func NewService(repo Repository, blobs BlobStore) *Service {
	return &Service{repo: repo, blobs: blobs}
}

// Upload stores the file bytes in the blob store and records the document.
// Uploads whose content already exists for the business are rejected with
// ErrDuplicateContent; the stored blob is removed best-effort in that case.
func (s *Service) Upload(ctx context.Context, businessID, fileName string, data []byte) (*Document, error) {
	docType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if !supportedTypes[docType] {
		return nil, &UnsupportedTypeError{Type: docType}
	}

	ref, hash, err := s.blobs.Store(ctx, data, businessID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store document content: %w", err)
	}

	exists, err := s.repo.ExistsByHash(ctx, businessID, hash)
	if err != nil {
		return nil, err
	}
	if exists {
		if _, derr := s.blobs.Delete(ctx, ref); derr != nil {
			slog.WarnContext(ctx, "failed to remove duplicate blob", "error", derr, "ref", ref)
		}
		return nil, ErrDuplicateContent
	}

	doc := &Document{
		BusinessID:  businessID,
		Name:        fileName,
		Type:        docType,
		BlobRef:     ref,
		ContentHash: hash,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes the document record and its blob. Embeddings derived from
// the document are left in place; re-ingestion or an explicit purge replaces
// them.
func (s *Service) Delete(ctx context.Context, businessID, id string) error {
	doc, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, businessID, id); err != nil {
		return err
	}
	if _, err := s.blobs.Delete(ctx, doc.BlobRef); err != nil {
		slog.WarnContext(ctx, "failed to remove document blob", "error", err, "ref", doc.BlobRef)
	}
	return nil
}
