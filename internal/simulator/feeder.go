package simulator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/chrisdamba/brewqueue/internal/factories"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/queue"
)

// OrderCreator accepts walk-in orders; *queue.Manager satisfies it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req queue.CreateOrderRequest) (*models.Order, error)
}

type FeederOptions struct {
	Seed          int64
	RatePerMinute float64
	RegularRatio  float64
	Logger        *slog.Logger
}

// Feeder submits walk-in customers to the live queue as a Poisson process.
type Feeder struct {
	creator      OrderCreator
	factory      *factories.OrderFactory
	rate         float64
	regularRatio float64
	logger       *slog.Logger
	// after is replaced in tests.
	after func(d time.Duration) <-chan time.Time
}

func NewFeeder(creator OrderCreator, opts FeederOptions) *Feeder {
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 1.4
	}
	if opts.RegularRatio < 0 || opts.RegularRatio > 1 {
		opts.RegularRatio = 0.6
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Feeder{
		creator:      creator,
		factory:      factories.NewOrderFactory(rand.New(rand.NewSource(opts.Seed))),
		rate:         opts.RatePerMinute,
		regularRatio: opts.RegularRatio,
		logger:       opts.Logger.With("component", "feeder"),
		after:        time.After,
	}
}

// Run submits orders until ctx is done. Rejected orders are logged and skipped.
func (f *Feeder) Run(ctx context.Context) error {
	f.logger.Info("feeder started", "rate_per_minute", f.rate, "regular_ratio", f.regularRatio)
	for {
		gap := time.Duration(f.factory.NextArrivalSeconds(f.rate) * float64(time.Second))
		select {
		case <-ctx.Done():
			f.logger.Info("feeder stopped")
			return nil
		case <-f.after(gap):
		}

		w := f.factory.WalkIn(f.regularRatio)
		order, err := f.creator.CreateOrder(ctx, queue.CreateOrderRequest{
			Drinks:        w.Drinks,
			CustomerName:  w.CustomerName,
			IsRegular:     w.IsRegular,
			LoyaltyStatus: string(w.LoyaltyStatus),
		})
		if err != nil {
			f.logger.Warn("walk-in order rejected", "customer", w.CustomerName, "error", err)
			continue
		}
		f.logger.Debug("walk-in order placed", "order_id", order.ID, "drinks", len(w.Drinks))
	}
}
