package document

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateContent is returned when a business already has a document
// with the same content hash.
var ErrDuplicateContent = errors.New("document with identical content already exists")

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

type Document struct {
	ID          string            `json:"id"`
	BusinessID  string            `json:"business_id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	BlobRef     string            `json:"blob_ref"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type Repository interface {
	Save(ctx context.Context, d *Document) error
	Get(ctx context.Context, businessID, id string) (*Document, error)
	Delete(ctx context.Context, businessID, id string) error
	ExistsByHash(ctx context.Context, businessID, hash string) (bool, error)
	List(ctx context.Context, businessID string) ([]Document, error)
	Count(ctx context.Context) (int, error)
}
