package models

import "time"

type Order struct {
	ID                string        `json:"id"`
	Drinks            []string      `json:"drinks"`
	TotalPrepTime     int           `json:"total_prep_time"` // minutes
	CreatedAt         time.Time     `json:"created_at"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
	PickedUpAt        *time.Time    `json:"picked_up_at,omitempty"`
	Status            OrderStatus   `json:"status"`
	CustomerName      string        `json:"customer_name"`
	IsRegular         bool          `json:"is_regular"`
	LoyaltyStatus     LoyaltyStatus `json:"loyalty_status"`
	AssignedBarista   *int          `json:"assigned_barista,omitempty"`
	EstimatedWaitTime *int          `json:"estimated_wait_time,omitempty"` // seconds
	PriorityScore     *int          `json:"priority_score,omitempty"`
	PriorityReason    string        `json:"priority_reason,omitempty"`
	DisplayPosition   *int          `json:"display_position,omitempty"`
	ComplaintFiled    bool          `json:"complaint_filed"`
}

// WaitSeconds returns whole seconds elapsed between creation and now.
func (o *Order) WaitSeconds(now time.Time) int64 {
	return int64(now.Sub(o.CreatedAt) / time.Second)
}

// Score returns the stored priority score, or 0 when none was computed yet.
func (o *Order) Score() int {
	if o.PriorityScore == nil {
		return 0
	}
	return *o.PriorityScore
}

// IsAssignedTo reports whether the order is assigned to the given barista.
func (o *Order) IsAssignedTo(baristaID int) bool {
	return o.AssignedBarista != nil && *o.AssignedBarista == baristaID
}

// IsServed reports whether the order finished brewing.
func (o *Order) IsServed() bool {
	return o.CompletedAt != nil && (o.Status == OrderStatusReady || o.Status == OrderStatusCompleted)
}

func (o *Order) Clone() *Order {
	c := *o
	c.Drinks = append([]string(nil), o.Drinks...)
	c.StartedAt = cloneTime(o.StartedAt)
	c.CompletedAt = cloneTime(o.CompletedAt)
	c.PickedUpAt = cloneTime(o.PickedUpAt)
	c.AssignedBarista = cloneInt(o.AssignedBarista)
	c.EstimatedWaitTime = cloneInt(o.EstimatedWaitTime)
	c.PriorityScore = cloneInt(o.PriorityScore)
	c.DisplayPosition = cloneInt(o.DisplayPosition)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
