package product

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Product is a tenant's product or service item. Empty string fields and a
// zero price count as absent for text synthesis.
type Product struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       float64   `json:"price,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Text synthesizes the embeddable representation of the product: one
// labeled line per present field, absent fields omitted.
func (p *Product) Text() string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, "Name: "+p.Name)
	}
	if p.Description != "" {
		parts = append(parts, "Description: "+p.Description)
	}
	if p.Category != "" {
		parts = append(parts, "Category: "+p.Category)
	}
	if p.Price != 0 {
		parts = append(parts, "Price: "+strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	return strings.Join(parts, "\n")
}

type Repository interface {
	Save(ctx context.Context, p *Product) error
	Get(ctx context.Context, businessID, id string) (*Product, error)
	List(ctx context.Context, businessID string) ([]Product, error)
	Count(ctx context.Context) (int, error)
}
