package models

import "time"

type Barista struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	CurrentOrder     *string    `json:"current_order,omitempty"`
	BusyUntil        *time.Time `json:"busy_until,omitempty"`
	TotalWorkMinutes int        `json:"total_work_minutes"`
	CompletedCount   int        `json:"completed_count"`
	WorkloadRatio    float64    `json:"workload_ratio"`
}

// IsBusy reports whether the barista is brewing at now.
func (b *Barista) IsBusy(now time.Time) bool {
	return b.BusyUntil != nil && b.BusyUntil.After(now)
}

// EstimatedFreeTime returns whole seconds until the barista is free, never negative.
func (b *Barista) EstimatedFreeTime(now time.Time) int {
	if b.BusyUntil == nil {
		return 0
	}
	remaining := int(b.BusyUntil.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *Barista) Clone() *Barista {
	c := *b
	if b.CurrentOrder != nil {
		id := *b.CurrentOrder
		c.CurrentOrder = &id
	}
	c.BusyUntil = cloneTime(b.BusyUntil)
	return &c
}
