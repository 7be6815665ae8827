package models

type OrderStatus string

const (
	OrderStatusWaiting   OrderStatus = "WAITING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusAbandoned OrderStatus = "ABANDONED"
)

type LoyaltyStatus string

const (
	LoyaltyNone   LoyaltyStatus = "NONE"
	LoyaltyBronze LoyaltyStatus = "BRONZE"
	LoyaltySilver LoyaltyStatus = "SILVER"
	LoyaltyGold   LoyaltyStatus = "GOLD"
)

// LoyaltyStatuses is the draw order used by the simulator.
var LoyaltyStatuses = []LoyaltyStatus{LoyaltyNone, LoyaltyBronze, LoyaltySilver, LoyaltyGold}

// simulated order outcomes
const (
	SimStatusCompleted = "COMPLETED"
	SimStatusAbandoned = "ABANDONED"
	SimStatusComplaint = "COMPLAINT"
)

// broadcast and output topics
const (
	TopicQueueUpdates        = "queue_updates"
	TopicSimulationOrders    = "simulation_orders"
	TopicSimulationTestCases = "simulation_test_cases"
	TopicSimulationSummary   = "simulation_summary"
)

const (
	EventOrderCreated    = "OrderCreated"
	EventOrderStarted    = "OrderStarted"
	EventOrderCompleted  = "OrderCompleted"
	EventOrderPickedUp   = "OrderPickedUp"
	EventOrderAbandoned  = "OrderAbandoned"
	EventAutoComplete    = "AutoComplete"
	EventQueueRebalanced = "QueueRebalanced"
	EventBaristasReset   = "BaristasReset"
)

// IsTerminal reports whether an order can no longer be scheduled.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusReady || s == OrderStatusCompleted || s == OrderStatusAbandoned
}

// ParseLoyaltyStatus maps the wire string to a LoyaltyStatus; empty means NONE.
func ParseLoyaltyStatus(s string) (LoyaltyStatus, error) {
	switch LoyaltyStatus(s) {
	case "":
		return LoyaltyNone, nil
	case LoyaltyNone, LoyaltyBronze, LoyaltySilver, LoyaltyGold:
		return LoyaltyStatus(s), nil
	}
	return "", ErrUnknownLoyalty
}
