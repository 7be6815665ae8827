package models

import "time"

type SystemStats struct {
	TotalOrders        int     `json:"totalOrders"`
	CompletedOrders    int     `json:"completedOrders"`
	WaitingOrders      int     `json:"waitingOrders"`
	PreparingOrders    int     `json:"preparingOrders"`
	ReadyOrders        int     `json:"readyOrders"`
	AvgWaitTimeSeconds int     `json:"avgWaitTimeSeconds"`
	TimeoutCount       int     `json:"timeoutCount"`
	TimeoutRate        float64 `json:"timeoutRate"`
	WorkloadBalance    float64 `json:"workloadBalance"`
	ComplaintCount     int     `json:"complaintCount"`
}

// QueueUpdate is the snapshot broadcast after every state change.
type QueueUpdate struct {
	Sequence  uint64     `json:"sequence"`
	EventType string     `json:"eventType"`
	Timestamp time.Time  `json:"timestamp"`
	Orders    []*Order   `json:"waitingOrders"` // WAITING and PREPARING
	Baristas  []*Barista `json:"baristas"`
}
