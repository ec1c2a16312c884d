package document

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

func (r *PostgresRepo) Save(ctx context.Context, d *Document) error {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO documents (business_id, name, type, blob_ref, content_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		d.BusinessID, d.Name, d.Type, d.BlobRef, d.ContentHash, meta,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, businessID, id string) (*Document, error) {
	query := `
		SELECT id, business_id, name, type, blob_ref, content_hash, metadata, created_at
		FROM documents
		WHERE business_id = $1 AND id = $2`

	var d Document
	var meta []byte
	err := r.db.QueryRowContext(ctx, query, businessID, id).Scan(
		&d.ID, &d.BusinessID, &d.Name, &d.Type, &d.BlobRef, &d.ContentHash, &meta, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &d, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, businessID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ExistsByHash(ctx context.Context, businessID, hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE business_id = $1 AND content_hash = $2)`,
		businessID, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check content hash: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepo) List(ctx context.Context, businessID string) ([]Document, error) {
	query := `
		SELECT id, business_id, name, type, blob_ref, content_hash, metadata, created_at
		FROM documents
		WHERE business_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var meta []byte
		if err := rows.Scan(&d.ID, &d.BusinessID, &d.Name, &d.Type, &d.BlobRef, &d.ContentHash, &meta, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &d.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
