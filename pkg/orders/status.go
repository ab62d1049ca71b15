// Package orders implements the order lifecycle: the status state machine,
// the timed auto-advance scheduler, and order placement.
package orders

import (
	"fmt"

	"github.com/biteme/order-platform/pkg/model"
)

// transitions lists every legal status change. Anything absent here is an
// invalid transition; DELIVERED and CANCELLED have no outgoing edges.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPending:    {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed:  {model.StatusPreparing},
	model.StatusPreparing:  {model.StatusReady},
	model.StatusReady:      {model.StatusInDelivery},
	model.StatusInDelivery: {model.StatusDelivered},
}

// autoNext maps a status to the one the scheduler advances it to after the
// configured delay. Confirmed orders start preparing on their own; ready
// orders leave for delivery on their own.
var autoNext = map[model.OrderStatus]model.OrderStatus{
	model.StatusConfirmed: model.StatusPreparing,
	model.StatusReady:     model.StatusInDelivery,
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to model.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an out-of-order status change. The order
// is left unchanged.
type InvalidTransitionError struct {
	OrderID int64
	From    model.OrderStatus
	To      model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("orders - invalid transition %s -> %s for order %d", e.From, e.To, e.OrderID)
}
