package settings

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetChunking(ctx context.Context, businessID, entityType string) (*ChunkingSettings, error) {
	cs := &ChunkingSettings{}
	query := `SELECT business_id, entity_type, chunk_size, chunk_overlap FROM chunking_settings WHERE business_id = $1 AND entity_type = $2`
	err := r.db.QueryRowContext(ctx, query, businessID, entityType).
		Scan(&cs.BusinessID, &cs.EntityType, &cs.ChunkSize, &cs.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *PostgresRepo) UpsertChunking(ctx context.Context, s *ChunkingSettings) error {
	query := `
		INSERT INTO chunking_settings (business_id, entity_type, chunk_size, chunk_overlap)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (business_id, entity_type)
		DO UPDATE SET chunk_size = EXCLUDED.chunk_size, chunk_overlap = EXCLUDED.chunk_overlap, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, s.BusinessID, s.EntityType, s.ChunkSize, s.ChunkOverlap)
	return err
}

func (r *PostgresRepo) GetBot(ctx context.Context, businessID string) (*BotSettings, error) {
	bs := &BotSettings{}
	query := `SELECT business_id, embedding_model_name, embedding_dim FROM bot_settings WHERE business_id = $1`
	err := r.db.QueryRowContext(ctx, query, businessID).
		Scan(&bs.BusinessID, &bs.EmbeddingModel, &bs.EmbeddingDim)
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (r *PostgresRepo) UpsertBot(ctx context.Context, s *BotSettings) error {
	query := `
		INSERT INTO bot_settings (business_id, embedding_model_name, embedding_dim)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_id)
		DO UPDATE SET embedding_model_name = EXCLUDED.embedding_model_name, embedding_dim = EXCLUDED.embedding_dim, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, s.BusinessID, s.EmbeddingModel, s.EmbeddingDim)
	return err
}
