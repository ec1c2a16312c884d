package embedding

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// ReplaceBatch atomically replaces every embedding for the source with the
// given batch. Concurrent writers for the same source serialise on a
// transaction-scoped advisory lock, so the last committed batch wins as a
// whole and readers never observe a mix of old and new rows.
func (r *PostgresRepo) ReplaceBatch(ctx context.Context, key SourceKey, batch []Embedding) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.LockKey()); err != nil {
		return nil, fmt.Errorf("failed to acquire source lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM embeddings WHERE business_id = $1 AND source_type = $2 AND source_id = $3`,
		key.BusinessID, key.SourceType, key.SourceID,
	); err != nil {
		return nil, fmt.Errorf("failed to clear previous embeddings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (business_id, source_type, source_id, chunk_index, content, vector, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(batch))
	for _, e := range batch {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		var id string
		if err := stmt.QueryRowContext(ctx,
			key.BusinessID, key.SourceType, key.SourceID, e.ChunkIndex, e.Content, e.Vector, meta,
		).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert embedding %d: %w", e.ChunkIndex, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepo) ListBySource(ctx context.Context, key SourceKey) ([]Embedding, error) {
	query := `
		SELECT id, business_id, source_type, source_id, chunk_index, content, metadata
		FROM embeddings
		WHERE business_id = $1 AND source_type = $2 AND source_id = $3
		ORDER BY chunk_index`

	rows, err := r.db.QueryContext(ctx, query, key.BusinessID, key.SourceType, key.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var out []Embedding
	for rows.Next() {
		var e Embedding
		var meta []byte
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.SourceType, &e.SourceID, &e.ChunkIndex, &e.Content, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountBySource(ctx context.Context, key SourceKey) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings WHERE business_id = $1 AND source_type = $2 AND source_id = $3`,
		key.BusinessID, key.SourceType, key.SourceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}
