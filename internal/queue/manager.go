// Package queue owns the live order queue. A single Manager holds every order
// and barista in memory behind one mutex, applies the scheduling policy, writes
// changes through to the repositories and publishes snapshots.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chrisdamba/brewqueue/internal/clock"
	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/repositories"
	"github.com/lucsky/cuid"
)

// Publisher receives a snapshot after every state change.
type Publisher interface {
	Publish(update models.QueueUpdate)
}

type Options struct {
	Clock        clock.Clock
	Logger       *slog.Logger
	Publisher    Publisher
	NewID        func() string
	BaristaCount int
	// AutoAbandon lets the rebalance tick abandon orders past their patience threshold.
	AutoAbandon          bool
	AutoCompleteInterval time.Duration
	RebalanceInterval    time.Duration
}

// CreateOrderRequest is the input of CreateOrder. An empty LoyaltyStatus means NONE.
type CreateOrderRequest struct {
	Drinks        []string `json:"drinks"`
	CustomerName  string   `json:"customerName"`
	IsRegular     bool     `json:"isRegular"`
	LoyaltyStatus string   `json:"loyaltyStatus"`
}

type Manager struct {
	clock       clock.Clock
	logger      *slog.Logger
	publisher   Publisher
	orderRepo   repositories.OrderRepository
	baristaRepo repositories.BaristaRepository
	newID       func() string
	autoAbandon bool

	autoCompleteEvery time.Duration
	rebalanceEvery    time.Duration
	stopCh            chan struct{}
	stopOnce          sync.Once
	doneCh            chan struct{}

	mu       sync.Mutex
	orders   map[string]*models.Order
	sequence []*models.Order // creation order
	baristas []*models.Barista
	dirtyO   []*models.Order
	dirtyB   []*models.Barista
	marked   map[interface{}]bool

	// persistMu is taken before mu is released so saves and publishes keep
	// mutation order.
	persistMu sync.Mutex
}

// NewManager restores state from the repositories. When no barista is stored
// yet, a pool of opts.BaristaCount baristas is created.
func NewManager(ctx context.Context, orders repositories.OrderRepository, baristas repositories.BaristaRepository, opts Options) (*Manager, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = cuid.New
	}
	if opts.BaristaCount <= 0 {
		opts.BaristaCount = 3
	}
	if opts.AutoCompleteInterval <= 0 {
		opts.AutoCompleteInterval = 5 * time.Second
	}
	if opts.RebalanceInterval <= 0 {
		opts.RebalanceInterval = 30 * time.Second
	}

	m := &Manager{
		clock:             opts.Clock,
		logger:            opts.Logger.With("component", "queue"),
		publisher:         opts.Publisher,
		orderRepo:         orders,
		baristaRepo:       baristas,
		newID:             opts.NewID,
		autoAbandon:       opts.AutoAbandon,
		autoCompleteEvery: opts.AutoCompleteInterval,
		rebalanceEvery:    opts.RebalanceInterval,
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
		orders:            make(map[string]*models.Order),
		marked:            make(map[interface{}]bool),
	}

	stored, err := baristas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load baristas: %w", err)
	}
	if len(stored) == 0 {
		for i := 1; i <= opts.BaristaCount; i++ {
			b := &models.Barista{ID: i, Name: fmt.Sprintf("Barista %d", i)}
			if err := baristas.Save(ctx, b); err != nil {
				return nil, fmt.Errorf("failed to create barista %d: %w", i, err)
			}
			stored = append(stored, b.Clone())
		}
		m.logger.Info("initialized barista pool", "count", opts.BaristaCount)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].ID < stored[j].ID })
	m.baristas = stored

	existing, err := orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	for _, o := range existing {
		m.orders[o.ID] = o
		m.sequence = append(m.sequence, o)
	}
	if len(existing) > 0 {
		m.logger.Info("restored orders", "count", len(existing))
	}

	return m, nil
}

// CreateOrder validates the request, records a WAITING order and dispatches it.
func (m *Manager) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Drinks) == 0 {
		return nil, fmt.Errorf("drinks list cannot be empty: %w", models.ErrEmptyInput)
	}
	if req.CustomerName == "" {
		return nil, fmt.Errorf("customer name is required: %w", models.ErrEmptyInput)
	}
	prep, err := models.TotalPrepTime(req.Drinks)
	if err != nil {
		return nil, err
	}
	loyalty, err := models.ParseLoyaltyStatus(req.LoyaltyStatus)
	if err != nil {
		return nil, fmt.Errorf("loyalty status %q: %w", req.LoyaltyStatus, err)
	}

	m.mu.Lock()
	now := m.clock.Now()
	o := &models.Order{
		ID:            m.newID(),
		Drinks:        append([]string(nil), req.Drinks...),
		TotalPrepTime: prep,
		CreatedAt:     now,
		Status:        models.OrderStatusWaiting,
		CustomerName:  req.CustomerName,
		IsRegular:     req.IsRegular,
		LoyaltyStatus: loyalty,
	}
	m.orders[o.ID] = o
	m.sequence = append(m.sequence, o)
	m.markOrder(o)

	m.dispatch(o, now)
	m.logger.Debug("order created", "order_id", o.ID, "status", o.Status, "barista", deref(o.AssignedBarista))

	out := o.Clone()
	m.commit(ctx, models.EventOrderCreated, now)
	return out, nil
}

// StartOrder moves a WAITING order to PREPARING on its assigned barista, or on
// the best free barista when the assigned one is brewing. Any other status, or
// no free barista, leaves the order unchanged.
func (m *Manager) StartOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusWaiting {
		out := o.Clone()
		m.mu.Unlock()
		return out, nil
	}

	now := m.clock.Now()
	m.reapFinished(now)
	b := m.barista(o.AssignedBarista)
	if b == nil || b.IsBusy(now) {
		b = m.selectFrom(o, m.available(now), now)
	}
	if b == nil {
		m.logger.Info("no free barista to start order", "order_id", id)
		out := o.Clone()
		m.commit(ctx, models.EventAutoComplete, now)
		return out, nil
	}
	m.promote(o, b, now)

	out := o.Clone()
	m.commit(ctx, models.EventOrderStarted, now)
	return out, nil
}

// CompleteOrder marks a PREPARING order READY, frees its barista and
// rebalances the queue. Any other status leaves the order unchanged.
func (m *Manager) CompleteOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusPreparing {
		out := o.Clone()
		m.mu.Unlock()
		return out, nil
	}

	now := m.clock.Now()
	m.finishBrew(o, now)
	m.rebalanceLocked(now)

	out := o.Clone()
	m.commit(ctx, models.EventOrderCompleted, now)
	return out, nil
}

// PickupOrder hands a READY order to the customer.
func (m *Manager) PickupOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusReady {
		out := o.Clone()
		m.mu.Unlock()
		return out, nil
	}

	now := m.clock.Now()
	o.Status = models.OrderStatusCompleted
	o.PickedUpAt = models.Ptr(now)
	m.markOrder(o)

	out := o.Clone()
	m.commit(ctx, models.EventOrderPickedUp, now)
	return out, nil
}

// AbandonOrder records that a WAITING customer left.
func (m *Manager) AbandonOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if o.Status != models.OrderStatusWaiting {
		out := o.Clone()
		m.mu.Unlock()
		return out, nil
	}

	now := m.clock.Now()
	m.abandon(o, now)

	out := o.Clone()
	m.commit(ctx, models.EventOrderAbandoned, now)
	return out, nil
}

// ResetBaristas zeroes every barista's counters. Busy baristas keep their
// current order.
func (m *Manager) ResetBaristas(ctx context.Context) {
	m.mu.Lock()
	now := m.clock.Now()
	for _, b := range m.baristas {
		b.TotalWorkMinutes = 0
		b.CompletedCount = 0
		b.WorkloadRatio = 0
		if !b.IsBusy(now) {
			b.CurrentOrder = nil
			b.BusyUntil = nil
		}
		m.markBarista(b)
	}
	m.commit(ctx, models.EventBaristasReset, now)
}

func (m *Manager) GetOrder(id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return o.Clone(), nil
}

// OrdersByStatus returns matching orders in creation order.
func (m *Manager) OrdersByStatus(status models.OrderStatus) []*models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrders(m.filter(func(o *models.Order) bool { return o.Status == status }))
}

// ActiveOrders returns WAITING and PREPARING orders in creation order.
func (m *Manager) ActiveOrders() []*models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrders(m.filter(isActive))
}

// Baristas returns the pool ordered by id.
func (m *Manager) Baristas() []*models.Barista {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneBaristas(m.baristas)
}

func (m *Manager) GetBarista(id int) (*models.Barista, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.barista(&id); b != nil {
		return b.Clone(), nil
	}
	return nil, fmt.Errorf("barista %d: %w", id, models.ErrNotFound)
}

func (m *Manager) markOrder(o *models.Order) {
	if !m.marked[o] {
		m.marked[o] = true
		m.dirtyO = append(m.dirtyO, o)
	}
}

func (m *Manager) markBarista(b *models.Barista) {
	if !m.marked[b] {
		m.marked[b] = true
		m.dirtyB = append(m.dirtyB, b)
	}
}

// commit must be called with mu held and releases it. Changed entities are
// saved and, when event is set and something changed, a snapshot is published.
func (m *Manager) commit(ctx context.Context, event string, now time.Time) {
	orders := cloneOrders(m.dirtyO)
	baristas := cloneBaristas(m.dirtyB)
	m.dirtyO, m.dirtyB = nil, nil
	clear(m.marked)

	var update *models.QueueUpdate
	if event != "" && len(orders)+len(baristas) > 0 && m.publisher != nil {
		update = &models.QueueUpdate{
			EventType: event,
			Timestamp: now,
			Orders:    cloneOrders(m.filter(isActive)),
			Baristas:  cloneBaristas(m.baristas),
		}
	}

	m.persistMu.Lock()
	m.mu.Unlock()
	defer m.persistMu.Unlock()

	for _, o := range orders {
		if err := m.orderRepo.Save(ctx, o); err != nil {
			m.logger.Error("failed to save order", "order_id", o.ID, "error", err)
		}
	}
	for _, b := range baristas {
		if err := m.baristaRepo.Save(ctx, b); err != nil {
			m.logger.Error("failed to save barista", "barista_id", b.ID, "error", err)
		}
	}
	if update != nil {
		m.publisher.Publish(*update)
	}
}

func (m *Manager) filter(keep func(*models.Order) bool) []*models.Order {
	var out []*models.Order
	for _, o := range m.sequence {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (m *Manager) barista(id *int) *models.Barista {
	if id == nil {
		return nil
	}
	for _, b := range m.baristas {
		if b.ID == *id {
			return b
		}
	}
	return nil
}

func isActive(o *models.Order) bool {
	return o.Status == models.OrderStatusWaiting || o.Status == models.OrderStatusPreparing
}

func cloneOrders(in []*models.Order) []*models.Order {
	out := make([]*models.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}

func cloneBaristas(in []*models.Barista) []*models.Barista {
	out := make([]*models.Barista, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

func deref(id *int) int {
	if id == nil {
		return 0
	}
	return *id
}
