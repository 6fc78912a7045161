package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusSampleCollected},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusSampleCollected, OrderStatusInProgress},
		{OrderStatusSampleCollected, OrderStatusCompleted},
		{OrderStatusSampleCollected, OrderStatusCancelled},
		{OrderStatusInProgress, OrderStatusCompleted},
		{OrderStatusInProgress, OrderStatusCancelled},
		{OrderStatusCompleted, OrderStatusApproved},
		{OrderStatusCompleted, OrderStatusCancelled},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusInProgress},
		{OrderStatusPending, OrderStatusCompleted},
		{OrderStatusPending, OrderStatusApproved},
		{OrderStatusSampleCollected, OrderStatusApproved},
		{OrderStatusInProgress, OrderStatusApproved},
		{OrderStatusCompleted, OrderStatusPending},
		{OrderStatusApproved, OrderStatusCancelled},
		{OrderStatusApproved, OrderStatusCompleted},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusSampleCollected},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range []OrderStatus{OrderStatusApproved, OrderStatusCancelled} {
		for _, to := range []OrderStatus{OrderStatusPending, OrderStatusSampleCollected, OrderStatusInProgress, OrderStatusCompleted, OrderStatusApproved, OrderStatusCancelled} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus("in_progress")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusInProgress, status)

	// "ready" is the legacy alias of completed.
	status, ok = ParseOrderStatus("ready")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCompleted, status)

	_, ok = ParseOrderStatus("finished")
	assert.False(t, ok)
	_, ok = ParseOrderStatus("")
	assert.False(t, ok)
}

func TestAllowsSubmission(t *testing.T) {
	assert.True(t, OrderStatusSampleCollected.AllowsSubmission())
	assert.True(t, OrderStatusInProgress.AllowsSubmission())
	assert.False(t, OrderStatusPending.AllowsSubmission())
	assert.False(t, OrderStatusCompleted.AllowsSubmission())
	assert.False(t, OrderStatusApproved.AllowsSubmission())
	assert.False(t, OrderStatusCancelled.AllowsSubmission())
}
