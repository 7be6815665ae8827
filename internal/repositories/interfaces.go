package repositories

import (
	"context"

	"github.com/chrisdamba/brewqueue/internal/models"
)

// OrderRepository stores orders. Get returns models.ErrNotFound for unknown ids.
// List returns orders in creation order.
type OrderRepository interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	List(ctx context.Context) ([]*models.Order, error)
}

// BaristaRepository stores baristas. List returns baristas ordered by id.
type BaristaRepository interface {
	Get(ctx context.Context, id int) (*models.Barista, error)
	Save(ctx context.Context, barista *models.Barista) error
	List(ctx context.Context) ([]*models.Barista, error)
}
