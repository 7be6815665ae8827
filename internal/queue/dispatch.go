package queue

import (
	"context"
	"time"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/scheduling"
)

// AutoComplete moves every finished brew to READY and hands waiting orders to
// the freed baristas. It returns how many orders finished.
func (m *Manager) AutoComplete(ctx context.Context) int {
	m.mu.Lock()
	now := m.clock.Now()
	finished := m.reapFinished(now)
	if finished > 0 {
		m.dispatchWaiting(now)
	}
	m.commit(ctx, models.EventAutoComplete, now)
	return finished
}

// Rebalance runs the full reconciliation pass: finish brews, fill free
// baristas, rescore and reassign WAITING orders, rank them and raise alerts.
func (m *Manager) Rebalance(ctx context.Context) {
	m.mu.Lock()
	now := m.clock.Now()
	m.rebalanceLocked(now)
	m.commit(ctx, models.EventQueueRebalanced, now)
}

// dispatch places a freshly created order. Only o itself is considered; the
// rest of the queue is reordered by the next rebalance.
func (m *Manager) dispatch(o *models.Order, now time.Time) {
	m.reapFinished(now)
	b := m.selectFrom(o, m.baristas, now)
	if b == nil {
		m.logger.Warn("no barista found for order", "order_id", o.ID)
		return
	}
	m.assign(o, b, now)
	m.estimate(o, b, now)

	if !b.IsBusy(now) {
		m.promote(o, b, now)
		return
	}
	m.logger.Debug("barista busy, order stays waiting", "order_id", o.ID, "barista_id", b.ID)
}

// selectFrom refreshes workload ratios over the whole pool and picks from candidates.
func (m *Manager) selectFrom(o *models.Order, candidates []*models.Barista, now time.Time) *models.Barista {
	if len(candidates) == 0 {
		return nil
	}
	m.refreshRatios()
	return scheduling.SelectBarista(o, candidates, now)
}

// refreshRatios recomputes workload ratios and marks baristas whose ratio moved.
func (m *Manager) refreshRatios() {
	before := make([]float64, len(m.baristas))
	for i, b := range m.baristas {
		before[i] = b.WorkloadRatio
	}
	scheduling.UpdateWorkloadRatios(m.baristas)
	for i, b := range m.baristas {
		if b.WorkloadRatio != before[i] {
			m.markBarista(b)
		}
	}
}

func (m *Manager) assign(o *models.Order, b *models.Barista, now time.Time) {
	p := scheduling.Evaluate(o, m.served(), now)
	o.AssignedBarista = models.Ptr(b.ID)
	o.PriorityScore = models.Ptr(p.Score)
	o.PriorityReason = p.Reason
	m.markOrder(o)
}

// estimate stores the seconds until o should be ready on b: b's remaining
// brew, the WAITING orders ahead of o on b, and o's own prep.
func (m *Manager) estimate(o *models.Order, b *models.Barista, now time.Time) {
	wait := 0
	if b.IsBusy(now) {
		wait = b.EstimatedFreeTime(now)
	}
	for _, w := range m.sequence {
		if w.Status != models.OrderStatusWaiting || w == o || !w.IsAssignedTo(b.ID) {
			continue
		}
		if w.PriorityScore != nil && o.PriorityScore != nil && *w.PriorityScore > *o.PriorityScore {
			wait += w.TotalPrepTime * 60
		}
	}
	wait += o.TotalPrepTime * 60
	o.EstimatedWaitTime = models.Ptr(wait)
	m.markOrder(o)
}

// promote starts brewing o on b.
func (m *Manager) promote(o *models.Order, b *models.Barista, now time.Time) {
	o.Status = models.OrderStatusPreparing
	o.StartedAt = models.Ptr(now)
	o.AssignedBarista = models.Ptr(b.ID)
	o.DisplayPosition = nil
	o.PriorityReason = scheduling.NowBrewingReason(b.Name)

	b.CurrentOrder = models.Ptr(o.ID)
	b.BusyUntil = models.Ptr(now.Add(time.Duration(o.TotalPrepTime) * time.Minute))
	b.TotalWorkMinutes += o.TotalPrepTime

	m.markOrder(o)
	m.markBarista(b)
	m.logger.Info("order started", "order_id", o.ID, "barista", b.Name, "prep_minutes", o.TotalPrepTime)
}

// finishBrew moves a PREPARING order to READY and frees its barista.
func (m *Manager) finishBrew(o *models.Order, now time.Time) {
	o.Status = models.OrderStatusReady
	o.CompletedAt = models.Ptr(now)
	m.markOrder(o)

	if b := m.barista(o.AssignedBarista); b != nil {
		b.CurrentOrder = nil
		b.BusyUntil = nil
		b.CompletedCount++
		m.markBarista(b)
		m.logger.Info("order ready", "order_id", o.ID, "barista", b.Name)
		return
	}
	m.logger.Warn("ready order has no barista", "order_id", o.ID)
}

// reapFinished completes every PREPARING order whose barista is no longer busy.
func (m *Manager) reapFinished(now time.Time) int {
	finished := 0
	for _, o := range m.sequence {
		if o.Status != models.OrderStatusPreparing {
			continue
		}
		b := m.barista(o.AssignedBarista)
		if b == nil || b.BusyUntil == nil || now.Before(*b.BusyUntil) {
			continue
		}
		m.finishBrew(o, now)
		finished++
	}
	return finished
}

// dispatchWaiting hands WAITING orders, highest score first, to free baristas.
func (m *Manager) dispatchWaiting(now time.Time) int {
	free := m.available(now)
	if len(free) == 0 {
		return 0
	}
	waiting := m.filter(isWaiting)
	if len(waiting) == 0 {
		return 0
	}

	started := 0
	for _, o := range scheduling.RankOrders(waiting, m.served(), now) {
		if len(free) == 0 {
			break
		}
		b := m.selectFrom(o, free, now)
		if b == nil {
			continue
		}
		m.assign(o, b, now)
		m.promote(o, b, now)
		free = without(free, b)
		started++
	}
	return started
}

func (m *Manager) rebalanceLocked(now time.Time) {
	m.reapFinished(now)
	m.dispatchWaiting(now)
	m.refreshRatios()

	if m.autoAbandon {
		for _, o := range m.filter(isWaiting) {
			if scheduling.AbandonmentRisk(o, now) {
				m.fileComplaint(o, now)
				m.abandon(o, now)
			}
		}
	}

	waiting := m.filter(isWaiting)
	if len(waiting) == 0 {
		return
	}

	ranked := scheduling.RankOrders(waiting, m.served(), now)
	assigned := make(map[*models.Order]*models.Barista, len(ranked))
	for i, o := range ranked {
		b := m.selectFrom(o, m.baristas, now)
		if b == nil {
			continue
		}
		m.assign(o, b, now)
		o.DisplayPosition = models.Ptr(i + 1)
		assigned[o] = b
	}
	for _, o := range ranked {
		if b, ok := assigned[o]; ok {
			m.estimate(o, b, now)
		}
	}

	m.raiseAlerts(ranked, now)
}

func (m *Manager) raiseAlerts(waiting []*models.Order, now time.Time) {
	for _, o := range waiting {
		m.fileComplaint(o, now)

		switch {
		case scheduling.TimeoutRisk(o, now):
			m.logger.Warn("order approaching timeout", "order_id", o.ID, "wait_seconds", o.WaitSeconds(now))
		case scheduling.AbandonmentRisk(o, now):
			m.logger.Warn("order at abandonment risk", "order_id", o.ID, "wait_seconds", o.WaitSeconds(now))
		}
	}
}

// fileComplaint flags an order once it has waited ComplaintSeconds.
func (m *Manager) fileComplaint(o *models.Order, now time.Time) {
	if o.ComplaintFiled || o.WaitSeconds(now) < scheduling.ComplaintSeconds {
		return
	}
	o.ComplaintFiled = true
	m.markOrder(o)
	m.logger.Warn("complaint filed", "order_id", o.ID, "customer", o.CustomerName, "wait_seconds", o.WaitSeconds(now))
}

func (m *Manager) abandon(o *models.Order, now time.Time) {
	o.Status = models.OrderStatusAbandoned
	o.DisplayPosition = nil
	m.markOrder(o)
	m.logger.Info("order abandoned", "order_id", o.ID, "wait_seconds", o.WaitSeconds(now))
}

// served returns orders that finished brewing, for the fairness rule.
func (m *Manager) served() []*models.Order {
	return m.filter(func(o *models.Order) bool { return o.IsServed() })
}

func (m *Manager) available(now time.Time) []*models.Barista {
	var out []*models.Barista
	for _, b := range m.baristas {
		if !b.IsBusy(now) {
			out = append(out, b)
		}
	}
	return out
}

func isWaiting(o *models.Order) bool {
	return o.Status == models.OrderStatusWaiting
}

func without(pool []*models.Barista, b *models.Barista) []*models.Barista {
	out := pool[:0:0]
	for _, x := range pool {
		if x != b {
			out = append(out, x)
		}
	}
	return out
}
