// Package memory implements the repositories on mutex-guarded maps. Entities
// are copied on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chrisdamba/brewqueue/internal/models"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	order  []string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*models.Order)}
}

func (r *OrderRepository) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Save(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		r.order = append(r.order, order.ID)
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) List(_ context.Context) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Order, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.orders[id].Clone())
	}
	return out, nil
}

type BaristaRepository struct {
	mu       sync.RWMutex
	baristas map[int]*models.Barista
}

func NewBaristaRepository() *BaristaRepository {
	return &BaristaRepository{baristas: make(map[int]*models.Barista)}
}

func (r *BaristaRepository) Get(_ context.Context, id int) (*models.Barista, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.baristas[id]
	if !ok {
		return nil, fmt.Errorf("barista %d: %w", id, models.ErrNotFound)
	}
	return b.Clone(), nil
}

func (r *BaristaRepository) Save(_ context.Context, barista *models.Barista) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baristas[barista.ID] = barista.Clone()
	return nil
}

func (r *BaristaRepository) List(_ context.Context) ([]*models.Barista, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Barista, 0, len(r.baristas))
	for _, b := range r.baristas {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
