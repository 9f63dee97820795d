package orders

import (
	"haat/internal/apperr"
	"haat/internal/models"
)

// transitions is the order status graph. Statuses absent as keys or mapped
// to nothing are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderCreated:        {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:      {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:        {models.OrderOutForDelivery, models.OrderCancelled},
	models.OrderOutForDelivery: {models.OrderDelivered},
	models.OrderDelivered:      {models.OrderReturned, models.OrderRefunded},
	models.OrderReturned:       {models.OrderRefunded},
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentPaid:    {models.PaymentRefunded},
}

// notifyOn maps statuses whose arrival the customer hears about.
var notifyOn = map[models.OrderStatus]models.NotificationKind{
	models.OrderConfirmed:      models.NotifyConfirmed,
	models.OrderShipped:        models.NotifyShipped,
	models.OrderOutForDelivery: models.NotifyOutForDelivery,
	models.OrderDelivered:      models.NotifyDelivered,
	models.OrderCancelled:      models.NotifyCancelled,
	models.OrderRefunded:       models.NotifyRefunded,
}

func ValidStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderCreated, models.OrderConfirmed, models.OrderShipped, models.OrderOutForDelivery,
		models.OrderDelivered, models.OrderCancelled, models.OrderReturned, models.OrderRefunded:
		return true
	}
	return false
}

func ValidPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
		return true
	}
	return false
}

// NextStatuses returns the direct successors of from.
func NextStatuses(from models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), transitions[from]...)
}

func IsTerminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reachable reports whether to can be reached from from by following one or
// more edges of the graph.
func Reachable(from, to models.OrderStatus) bool {
	seen := map[models.OrderStatus]bool{from: true}
	queue := []models.OrderStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range transitions[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// checkTransition validates from → to. With override set the order may skip
// intermediate states but still only moves forward along the graph.
func checkTransition(from, to models.OrderStatus, override bool) error {
	if !ValidStatus(to) {
		return apperr.Validation("unknown order status %q", to)
	}
	if from == to {
		return apperr.New(apperr.KindInvalidTransition, "order is already %s", to)
	}
	if IsTerminal(from) {
		return apperr.New(apperr.KindInvalidTransition, "order is %s and cannot change", from)
	}
	if CanTransition(from, to) || (override && Reachable(from, to)) {
		return nil
	}
	return apperr.New(apperr.KindInvalidTransition, "cannot move order from %s to %s", from, to)
}
