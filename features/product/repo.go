package product

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

func (r *PostgresRepo) Save(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (business_id, name, description, category, price)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, 0))
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query, p.BusinessID, p.Name, p.Description, p.Category, p.Price).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, businessID, id string) (*Product, error) {
	p := &Product{}
	var description, category sql.NullString
	var price sql.NullFloat64

	query := `SELECT id, business_id, name, description, category, price, created_at FROM products WHERE id = $1 AND business_id = $2`
	err := r.db.QueryRowContext(ctx, query, id, businessID).
		Scan(&p.ID, &p.BusinessID, &p.Name, &description, &category, &price, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Category = category.String
	p.Price = price.Float64
	return p, nil
}

func (r *PostgresRepo) List(ctx context.Context, businessID string) ([]Product, error) {
	query := `SELECT id, business_id, name, description, category, price, created_at FROM products WHERE business_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var description, category sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.BusinessID, &p.Name, &description, &category, &price, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.Category = category.String
		p.Price = price.Float64
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}
