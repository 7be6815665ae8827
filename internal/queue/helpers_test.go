package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/brewqueue/internal/clock"
	"github.com/chrisdamba/brewqueue/internal/logging"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/repositories/memory"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	updates []models.QueueUpdate
}

func (r *recorder) Publish(u models.QueueUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.EventType
	}
	return out
}

type fixture struct {
	m        *Manager
	clk      *clock.Manual
	pub      *recorder
	orders   *memory.OrderRepository
	baristas *memory.BaristaRepository
}

func newFixture(t *testing.T, baristaCount int, configure ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		clk:      clock.NewManual(t0),
		pub:      &recorder{},
		orders:   memory.NewOrderRepository(),
		baristas: memory.NewBaristaRepository(),
	}
	n := 0
	opts := Options{
		Clock:        f.clk,
		Logger:       logging.Discard(),
		Publisher:    f.pub,
		BaristaCount: baristaCount,
		NewID: func() string {
			n++
			return fmt.Sprintf("o%d", n)
		},
	}
	for _, c := range configure {
		c(&opts)
	}
	m, err := NewManager(context.Background(), f.orders, f.baristas, opts)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	f.m = m
	return f
}

func withLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

func (f *fixture) create(t *testing.T, loyalty models.LoyaltyStatus, regular bool, drinks ...models.DrinkType) *models.Order {
	t.Helper()
	ids := make([]string, len(drinks))
	for i, d := range drinks {
		ids[i] = string(d)
	}
	o, err := f.m.CreateOrder(context.Background(), CreateOrderRequest{
		Drinks:        ids,
		CustomerName:  "Customer",
		IsRegular:     regular,
		LoyaltyStatus: string(loyalty),
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return o
}

func (f *fixture) order(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := f.m.GetOrder(id)
	if err != nil {
		t.Fatalf("GetOrder(%s): %v", id, err)
	}
	return o
}

// checkBaristaInvariant verifies that every busy barista holds exactly one
// PREPARING order assigned to it and every free barista holds none.
func checkBaristaInvariant(t *testing.T, f *fixture) {
	t.Helper()
	now := f.clk.Now()
	preparing := f.m.OrdersByStatus(models.OrderStatusPreparing)
	for _, b := range f.m.Baristas() {
		held := 0
		for _, o := range preparing {
			if o.IsAssignedTo(b.ID) {
				held++
			}
		}
		if b.IsBusy(now) {
			if b.CurrentOrder == nil || held != 1 {
				t.Errorf("busy barista %d: current=%v preparing=%d", b.ID, b.CurrentOrder, held)
				continue
			}
			o := f.order(t, *b.CurrentOrder)
			if o.Status != models.OrderStatusPreparing || !o.IsAssignedTo(b.ID) {
				t.Errorf("barista %d holds %s in status %s", b.ID, o.ID, o.Status)
			}
		} else if b.CurrentOrder != nil || held != 0 {
			t.Errorf("free barista %d: current=%v preparing=%d", b.ID, b.CurrentOrder, held)
		}
	}
}
