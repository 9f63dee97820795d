package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"haat/internal/apperr"
	"haat/internal/models"
)

var allStatuses = []models.OrderStatus{
	models.OrderCreated, models.OrderConfirmed, models.OrderShipped, models.OrderOutForDelivery,
	models.OrderDelivered, models.OrderCancelled, models.OrderReturned, models.OrderRefunded,
}

func TestTransitionGraph(t *testing.T) {
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderCreated, models.OrderConfirmed}:        true,
		{models.OrderCreated, models.OrderCancelled}:        true,
		{models.OrderConfirmed, models.OrderShipped}:        true,
		{models.OrderConfirmed, models.OrderCancelled}:      true,
		{models.OrderShipped, models.OrderOutForDelivery}:   true,
		{models.OrderShipped, models.OrderCancelled}:        true,
		{models.OrderOutForDelivery, models.OrderDelivered}: true,
		{models.OrderDelivered, models.OrderReturned}:       true,
		{models.OrderDelivered, models.OrderRefunded}:       true,
		{models.OrderReturned, models.OrderRefunded}:        true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]models.OrderStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
			err := checkTransition(from, to, false)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminal(models.OrderCancelled))
	assert.True(t, IsTerminal(models.OrderRefunded))
	assert.False(t, IsTerminal(models.OrderDelivered))
	assert.False(t, IsTerminal(models.OrderReturned))

	for _, to := range allStatuses {
		assert.ErrorIs(t, checkTransition(models.OrderCancelled, to, true), apperr.ErrInvalidTransition)
		assert.ErrorIs(t, checkTransition(models.OrderRefunded, to, true), apperr.ErrInvalidTransition)
	}
}

func TestOverrideSkipsIntermediateStates(t *testing.T) {
	assert.ErrorIs(t, checkTransition(models.OrderCreated, models.OrderDelivered, false), apperr.ErrInvalidTransition)
	assert.NoError(t, checkTransition(models.OrderCreated, models.OrderDelivered, true))
	assert.ErrorIs(t, checkTransition(models.OrderCreated, models.OrderCreated, true), apperr.ErrInvalidTransition)
	assert.ErrorIs(t, checkTransition(models.OrderCreated, "teleported", true), apperr.ErrValidation)
	assert.NoError(t, checkTransition(models.OrderShipped, models.OrderRefunded, true))
}

func TestOverrideNeverMovesBackwards(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
	}{
		{models.OrderDelivered, models.OrderCreated},
		{models.OrderDelivered, models.OrderCancelled},
		{models.OrderDelivered, models.OrderShipped},
		{models.OrderOutForDelivery, models.OrderCancelled},
		{models.OrderOutForDelivery, models.OrderConfirmed},
		{models.OrderShipped, models.OrderCreated},
		{models.OrderReturned, models.OrderDelivered},
		{models.OrderConfirmed, models.OrderCreated},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.False(t, Reachable(tt.from, tt.to))
			assert.ErrorIs(t, checkTransition(tt.from, tt.to, true), apperr.ErrInvalidTransition)
		})
	}
}

func TestReachableMatchesGraph(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				assert.True(t, Reachable(from, to), "%s -> %s", from, to)
			}
		}
		assert.False(t, Reachable(from, from), "%s loops", from)
	}
	assert.True(t, Reachable(models.OrderCreated, models.OrderRefunded))
	assert.True(t, Reachable(models.OrderConfirmed, models.OrderReturned))
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	next := NextStatuses(models.OrderCreated)
	assert.Equal(t, []models.OrderStatus{models.OrderConfirmed, models.OrderCancelled}, next)
	next[0] = models.OrderRefunded
	assert.True(t, CanTransition(models.OrderCreated, models.OrderConfirmed))
	assert.Empty(t, NextStatuses(models.OrderRefunded))
}

func TestPaymentGraph(t *testing.T) {
	tests := []struct {
		from, to models.PaymentStatus
		want     bool
	}{
		{models.PaymentPending, models.PaymentPaid, true},
		{models.PaymentPending, models.PaymentFailed, true},
		{models.PaymentPaid, models.PaymentRefunded, true},
		{models.PaymentPending, models.PaymentRefunded, false},
		{models.PaymentFailed, models.PaymentPaid, false},
		{models.PaymentRefunded, models.PaymentPaid, false},
		{models.PaymentPaid, models.PaymentPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionPayment(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
