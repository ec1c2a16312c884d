package embedding

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// SourceKey identifies the content a batch of embeddings was derived from.
type SourceKey struct {
	BusinessID string
	SourceType string
	SourceID   string
}

// LockKey is the advisory-lock key serialising writers for one source.
func (k SourceKey) LockKey() string {
	return fmt.Sprintf("%s:%s:%s", k.BusinessID, k.SourceType, k.SourceID)
}

type Embedding struct {
	ID         string                 `json:"id"`
	BusinessID string                 `json:"business_id"`
	SourceType string                 `json:"source_type"`
	SourceID   string                 `json:"source_id"`
	ChunkIndex int                    `json:"chunk_index"`
	Content    string                 `json:"content"`
	Vector     pgvector.Vector        `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewRow builds an Embedding from pipeline output; the source tuple is
// filled in by ReplaceBatch.
func NewRow(chunkIndex int, content string, vector []float32, metadata map[string]interface{}) Embedding {
	return Embedding{
		ChunkIndex: chunkIndex,
		Content:    content,
		Vector:     pgvector.NewVector(vector),
		Metadata:   metadata,
	}
}

type Repository interface {
	ReplaceBatch(ctx context.Context, key SourceKey, batch []Embedding) ([]string, error)
	ListBySource(ctx context.Context, key SourceKey) ([]Embedding, error)
	CountBySource(ctx context.Context, key SourceKey) (int, error)
	Count(ctx context.Context) (int, error)
}
