package business

import (
	"context"
	"time"
)

type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Save(ctx context.Context, b *Business) error
	Get(ctx context.Context, id string) (*Business, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Business, error)
	Count(ctx context.Context) (int, error)
}
