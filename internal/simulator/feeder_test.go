package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/chrisdamba/brewqueue/internal/logging"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/queue"
)

type fakeCreator struct {
	requests []queue.CreateOrderRequest
	failOn   int
	stopAt   int
	cancel   context.CancelFunc
}

func (f *fakeCreator) CreateOrder(ctx context.Context, req queue.CreateOrderRequest) (*models.Order, error) {
	f.requests = append(f.requests, req)
	if len(f.requests) == f.stopAt {
		f.cancel()
	}
	if len(f.requests) == f.failOn {
		return nil, models.ErrUnknownDrink
	}
	return &models.Order{ID: "o"}, nil
}

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestFeeder_SubmitsWalkIns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	creator := &fakeCreator{failOn: 2, stopAt: 5, cancel: cancel}

	f := NewFeeder(creator, FeederOptions{Seed: 3, Logger: logging.Discard()})
	var gaps []time.Duration
	f.after = func(d time.Duration) <-chan time.Time {
		gaps = append(gaps, d)
		if ctx.Err() != nil {
			return nil
		}
		return immediate(d)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("feeder did not stop after cancellation")
	}

	// A rejected order does not stop the feeder.
	if len(creator.requests) != 5 {
		t.Fatalf("feeder sent %d orders, want 5", len(creator.requests))
	}
	for i, req := range creator.requests {
		if len(req.Drinks) < 1 || len(req.Drinks) > 3 || req.CustomerName == "" {
			t.Errorf("request %d = %+v", i, req)
		}
		if _, err := models.ParseLoyaltyStatus(req.LoyaltyStatus); err != nil {
			t.Errorf("request %d loyalty: %v", i, err)
		}
	}
	for _, g := range gaps {
		if g < 100*time.Millisecond {
			t.Errorf("gap %v below the 100ms floor", g)
		}
	}
}

func TestFeeder_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	creator := &fakeCreator{}
	f := NewFeeder(creator, FeederOptions{Seed: 1, Logger: logging.Discard()})
	f.after = func(time.Duration) <-chan time.Time { return nil }

	if err := f.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(creator.requests) != 0 {
		t.Errorf("cancelled feeder sent %d orders", len(creator.requests))
	}
}

var _ OrderCreator = (*queue.Manager)(nil)

