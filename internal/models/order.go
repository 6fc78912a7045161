package models

import "time"

// OrderStatus represents the lifecycle state of a lab order.
type OrderStatus string

// Possible order statuses. The stored canonical form of a finished-but-not-yet
// approved order is "completed"; "ready" is accepted as an inbound alias.
const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusSampleCollected OrderStatus = "sample_collected"
	OrderStatusInProgress      OrderStatus = "in_progress"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// ParseOrderStatus normalises a client-supplied status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusSampleCollected, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusApproved, OrderStatusCancelled:
		return OrderStatus(raw), true
	}
	if raw == "ready" {
		return OrderStatusCompleted, true
	}
	return "", false
}

// orderTransitions is the static adjacency table of the order state machine.
// Cancellation is reachable from every non-terminal state; completion happens
// only through the result submission transaction.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusSampleCollected, OrderStatusCancelled},
	OrderStatusSampleCollected: {OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusInProgress:      {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:       {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:        {},
	OrderStatusCancelled:       {},
}

// CanTransition reports whether the state machine allows moving from one
// status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowsSubmission reports whether results may be submitted for an order in
// the given status.
func (s OrderStatus) AllowsSubmission() bool {
	return s == OrderStatusSampleCollected || s == OrderStatusInProgress
}

// OrderPriority ranks order urgency.
type OrderPriority string

const (
	PriorityNormal OrderPriority = "normal"
	PriorityUrgent OrderPriority = "urgent"
	PriorityStat   OrderPriority = "stat"
)

// LabOrder represents a laboratory test order.
type LabOrder struct {
	ID                string        `db:"id" json:"id"`
	OrderNumber       string        `db:"order_number" json:"order_number"`
	PatientID         string        `db:"patient_id" json:"patient_id"`
	DoctorID          *string       `db:"doctor_id" json:"doctor_id,omitempty"`
	TestName          string        `db:"test_name" json:"test_name"`
	Status            OrderStatus   `db:"status" json:"status"`
	Priority          OrderPriority `db:"priority" json:"priority"`
	ResultID          *string       `db:"result_id" json:"result_id,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	SampleCollectedAt *time.Time    `db:"sample_collected_at" json:"sample_collected_at,omitempty"`
	ApprovedAt        *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
}

// OrderFilter provides filters for listing lab orders.
type OrderFilter struct {
	PatientID string
	Status    OrderStatus
	Priority  OrderPriority
	Page      int
	PageSize  int
}
