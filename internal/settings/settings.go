package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidSettings marks tenant configuration that fails validation
// before persistence.
var ErrInvalidSettings = errors.New("invalid settings")

// ErrIncompleteDefaults marks a global fallback that cannot drive the
// pipeline (missing model name or non-positive dimension). Unlike a plain
// lookup miss this is not recoverable.
var ErrIncompleteDefaults = errors.New("incomplete default configuration")

// ChunkingSettings is the per-(business, entity type) chunking window.
// IsDefault is set when the row was absent and the global fallback was
// used; default-sourced values are never written back as tenant-specific.
type ChunkingSettings struct {
	BusinessID   string `json:"business_id"`
	EntityType   string `json:"entity_type"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	IsDefault    bool   `json:"is_default"`
}

// BotSettings selects the embedding model for one business.
type BotSettings struct {
	BusinessID     string `json:"business_id"`
	EmbeddingModel string `json:"embedding_model_name"`
	EmbeddingDim   int    `json:"embedding_dim"`
	IsDefault      bool   `json:"is_default"`
}

// Defaults are the process-wide fallbacks, injected at construction so
// tests can override them.
type Defaults struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
	EmbeddingDim   int
}

type Repository interface {
	GetChunking(ctx context.Context, businessID, entityType string) (*ChunkingSettings, error)
	UpsertChunking(ctx context.Context, s *ChunkingSettings) error
	GetBot(ctx context.Context, businessID string) (*BotSettings, error)
	UpsertBot(ctx context.Context, s *BotSettings) error
}

type Service struct {
	repo     Repository
	defaults Defaults
}

func NewService(repo Repository, defaults Defaults) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// Chunking resolves the chunking window for (businessID, entityType).
// A lookup miss falls back to the injected defaults, flagged IsDefault.
func (s *Service) Chunking(ctx context.Context, businessID, entityType string) (*ChunkingSettings, error) {
	cs, err := s.repo.GetChunking(ctx, businessID, entityType)
	if errors.Is(err, sql.ErrNoRows) {
		return &ChunkingSettings{
			BusinessID:   businessID,
			EntityType:   entityType,
			ChunkSize:    s.defaults.ChunkSize,
			ChunkOverlap: s.defaults.ChunkOverlap,
			IsDefault:    true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// Bot resolves the embedding model configuration for a business, falling
// back to the global default model when none is stored.
func (s *Service) Bot(ctx context.Context, businessID string) (*BotSettings, error) {
	bs, err := s.repo.GetBot(ctx, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		if s.defaults.EmbeddingModel == "" || s.defaults.EmbeddingDim <= 0 {
			return nil, ErrIncompleteDefaults
		}
		return &BotSettings{
			BusinessID:     businessID,
			EmbeddingModel: s.defaults.EmbeddingModel,
			EmbeddingDim:   s.defaults.EmbeddingDim,
			IsDefault:      true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (s *Service) SaveChunking(ctx context.Context, cs *ChunkingSettings) error {
	if cs.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be greater than 0", ErrInvalidSettings)
	}
	if cs.ChunkOverlap < 0 || cs.ChunkOverlap >= cs.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", ErrInvalidSettings)
	}
	if cs.EntityType == "" {
		return fmt.Errorf("%w: entity_type is required", ErrInvalidSettings)
	}
	cs.IsDefault = false
	return s.repo.UpsertChunking(ctx, cs)
}

func (s *Service) SaveBot(ctx context.Context, bs *BotSettings) error {
	if bs.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding_model_name is required", ErrInvalidSettings)
	}
	if bs.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding_dim must be greater than 0", ErrInvalidSettings)
	}
	bs.IsDefault = false
	return s.repo.UpsertBot(ctx, bs)
}
