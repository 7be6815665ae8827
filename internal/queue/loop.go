package queue

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Start runs the auto-complete and rebalance ticks. It blocks until ctx is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("queue ticks started",
		"auto_complete_interval", m.autoCompleteEvery,
		"rebalance_interval", m.rebalanceEvery)
	defer close(m.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.every(ctx, m.autoCompleteEvery, func(ctx context.Context) {
			if n := m.AutoComplete(ctx); n > 0 {
				m.logger.Debug("auto-completed orders", "count", n)
			}
		})
		return nil
	})
	g.Go(func() error {
		m.every(ctx, m.rebalanceEvery, m.Rebalance)
		return nil
	})
	g.Go(func() error {
		select {
		case <-m.stopCh:
			m.logger.Info("queue ticks stopping (stop called)")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	err := g.Wait()
	m.logger.Info("queue ticks stopped")
	return err
}

// Stop ends Start and waits for the running tick to finish. It must only be
// called after Start.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
}

func (m *Manager) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
