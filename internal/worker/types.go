package worker

import (
	"context"
)

// DocumentInfo is the slice of a document record the pipeline needs.
type DocumentInfo struct {
	Name    string
	Type    string
	BlobRef string
}

// ProductInfo carries the synthesized product text plus the denormalized
// fields stored alongside its embeddings.
type ProductInfo struct {
	Name     string
	Category string
	Text     string
}

// ChunkingConfig is the resolved chunking configuration for one source.
type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// BotConfig is the resolved embedding configuration for one business.
type BotConfig struct {
	EmbeddingModel string
	EmbeddingDim   int
}

// EmbeddingRecord is one chunk's vector plus its metadata, ready to persist.
type EmbeddingRecord struct {
	ChunkIndex int
	Content    string
	Vector     []float32
	Metadata   map[string]interface{}
}

type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string, model string, dim int) ([][]float32, error)
}

// EmbedderSelector picks the embedding backend for a model name.
type EmbedderSelector interface {
	Select(model string) Embedder
}

type BlobFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type BusinessFinder interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type DocumentFetcher interface {
	GetDocument(ctx context.Context, businessID, id string) (*DocumentInfo, error)
}

type ProductFetcher interface {
	GetProduct(ctx context.Context, businessID, id string) (*ProductInfo, error)
}

// ConfigResolver resolves per-business settings, falling back to server
// defaults when a business has none.
type ConfigResolver interface {
	ChunkingFor(ctx context.Context, businessID, entityType string) (ChunkingConfig, error)
	BotFor(ctx context.Context, businessID string) (BotConfig, error)
}

// EmbeddingWriter replaces every stored embedding for a source with the
// given batch, atomically.
type EmbeddingWriter interface {
	ReplaceEmbeddings(ctx context.Context, businessID, sourceType, sourceID string, batch []EmbeddingRecord) ([]string, error)
}

// ProgressRecorder persists task state transitions for the status endpoint.
type ProgressRecorder interface {
	Progress(ctx context.Context, taskID, stage string, retry int, details map[string]interface{}) error
	Complete(ctx context.Context, taskID string, result map[string]interface{}) error
	Fail(ctx context.Context, taskID string, result map[string]interface{}) error
}
