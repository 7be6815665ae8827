package queue

import (
	"math"
	"time"

	"github.com/chrisdamba/brewqueue/internal/models"
	"github.com/chrisdamba/brewqueue/internal/scheduling"
)

// Stats summarizes the live queue.
func (m *Manager) Stats() models.SystemStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	stats := models.SystemStats{TotalOrders: len(m.sequence)}

	var waitSum int64
	served := 0
	timeouts := 0
	for _, o := range m.sequence {
		switch o.Status {
		case models.OrderStatusWaiting:
			stats.WaitingOrders++
		case models.OrderStatusPreparing:
			stats.PreparingOrders++
		case models.OrderStatusReady:
			stats.ReadyOrders++
			stats.CompletedOrders++
		case models.OrderStatusCompleted:
			stats.CompletedOrders++
		}
		if o.IsServed() {
			waitSum += int64(o.CompletedAt.Sub(o.CreatedAt) / time.Second)
			served++
		}
		if timedOut(o, now) {
			timeouts++
		}
		if o.ComplaintFiled {
			stats.ComplaintCount++
		}
	}

	if served > 0 {
		stats.AvgWaitTimeSeconds = int(waitSum / int64(served))
	}
	stats.TimeoutCount = timeouts
	if stats.TotalOrders > 0 {
		stats.TimeoutRate = float64(timeouts) * 100 / float64(stats.TotalOrders)
	}
	stats.WorkloadBalance = workloadBalance(m.baristas)
	return stats
}

// timedOut reports whether o was abandoned or waited MaxWaitSeconds before
// brewing started. Orders still waiting are measured against now.
func timedOut(o *models.Order, now time.Time) bool {
	if o.Status == models.OrderStatusAbandoned {
		return true
	}
	end := now
	if o.StartedAt != nil {
		end = *o.StartedAt
	}
	return end.Sub(o.CreatedAt) >= scheduling.MaxWaitSeconds*time.Second
}

// workloadBalance is 100 minus the coefficient of variation of work minutes.
// A pool with no work yet scores 100.
func workloadBalance(baristas []*models.Barista) float64 {
	if len(baristas) == 0 {
		return 100
	}
	var sum float64
	for _, b := range baristas {
		sum += float64(b.TotalWorkMinutes)
	}
	mean := sum / float64(len(baristas))

	var variance float64
	for _, b := range baristas {
		d := float64(b.TotalWorkMinutes) - mean
		variance += d * d
	}
	variance /= float64(len(baristas))

	denom := mean
	if denom <= 0 {
		denom = 1
	}
	return 100 - math.Sqrt(variance)/denom
}
