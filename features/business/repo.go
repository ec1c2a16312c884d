package business

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

func (r *PostgresRepo) Save(ctx context.Context, b *Business) error {
	query := `INSERT INTO businesses (name) VALUES ($1) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, b.Name).Scan(&b.ID, &b.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Business, error) {
	b := &Business{}
	query := `SELECT id, name, created_at FROM businesses WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM businesses WHERE id = $1)`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Business, error) {
	query := `SELECT id, name, created_at FROM businesses ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []Business
	for rows.Next() {
		var b Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&count)
	return count, err
}
