package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/notify"
	"github.com/biteme/order-platform/pkg/protocol"
)

const machineLogPrefix = "orders:machine"

// ErrOrderNotFound is returned when a transition targets an unknown order.
var ErrOrderNotFound = errors.New("orders: order not found")

// DefaultAutoAdvanceDelay is how long a confirmed order sits before it
// auto-advances to PREPARING, and a ready order before IN_DELIVERY.
const DefaultAutoAdvanceDelay = 10 * time.Minute

// transitionTimeout bounds a scheduler-driven transition's store access.
const transitionTimeout = 15 * time.Second

// Store is the persistence contract for the state machine. UpdateStatus
// must be conditional on the current status and report whether the row
// actually changed; that single conditional write is what serializes
// racing operators.
type Store interface {
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	CreateOrder(ctx context.Context, order *model.Order) (int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to model.OrderStatus, arrival *time.Time) (bool, error)
	OrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
	OrdersByRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error)
	GetMenuItem(ctx context.Context, itemID int64) (*model.MenuItem, error)
}

// Machine validates and applies order status transitions and publishes a
// notification for every change. Timed transitions run on the machine's
// own timers, independent of any client connection.
type Machine struct {
	store     Store
	publisher notify.Publisher
	delay     time.Duration

	mu     sync.Mutex
	timers map[int64]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewMachine creates a state machine. A nil publisher drops notifications;
// a non-positive delay falls back to DefaultAutoAdvanceDelay.
func NewMachine(store Store, publisher notify.Publisher, delay time.Duration) *Machine {
	if publisher == nil {
		publisher = notify.NoOpPublisher{}
	}
	if delay <= 0 {
		delay = DefaultAutoAdvanceDelay
	}
	return &Machine{
		store:     store,
		publisher: publisher,
		delay:     delay,
		timers:    make(map[int64]*time.Timer),
	}
}

// Transition moves the order to the given status. Illegal changes return
// *InvalidTransitionError and leave the order untouched; losing a race
// against a concurrent transition reports the same way since the
// conditional write did not apply. Entering DELIVERED stamps the actual
// arrival time. Entering CONFIRMED or READY arms the auto-advance timer.
func (m *Machine) Transition(ctx context.Context, orderID int64, to model.OrderStatus) (*model.Order, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load order %d: %w", machineLogPrefix, orderID, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	from := order.Status
	if !CanTransition(from, to) {
		return nil, &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}

	var arrival *time.Time
	if to == model.StatusDelivered {
		now := time.Now().UTC()
		arrival = &now
	}

	applied, err := m.store.UpdateOrderStatus(ctx, orderID, from, to, arrival)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to update order %d: %w", machineLogPrefix, orderID, err)
	}
	if !applied {
		// Someone else moved the order first; the caller's view is stale.
		return nil, &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}

	order.Status = to
	order.ActualArrivalTime = arrival
	slog.Info(fmt.Sprintf("%s - order %d: %s -> %s", machineLogPrefix, orderID, from, to))

	m.publisher.Publish(notify.Event{
		Tag:       eventTag(to),
		OrderID:   orderID,
		Status:    string(to),
		Recipient: order.CustomerID,
		Timestamp: time.Now().UTC(),
	})

	if _, ok := autoNext[to]; ok {
		m.scheduleAuto(orderID, to)
	}
	return order, nil
}

// eventTag picks the notification tag for a newly entered status.
func eventTag(status model.OrderStatus) string {
	switch status {
	case model.StatusConfirmed:
		return protocol.TagOrderAccepted
	case model.StatusCancelled:
		return protocol.TagOrderRejected
	case model.StatusReady:
		return protocol.TagOrderReady
	default:
		return protocol.TagOrderStatusChanged
	}
}

// scheduleAuto arms a timer that advances the order after the configured
// delay. The transition must complete even if the triggering client has
// disconnected, so it runs against a fresh background context.
func (m *Machine) scheduleAuto(orderID int64, entered model.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if prev, ok := m.timers[orderID]; ok && prev.Stop() {
		m.wg.Done()
	}

	next := autoNext[entered]
	m.wg.Add(1)
	m.timers[orderID] = time.AfterFunc(m.delay, func() {
		defer m.wg.Done()
		m.mu.Lock()
		delete(m.timers, orderID)
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
		defer cancel()
		if _, err := m.Transition(ctx, orderID, next); err != nil {
			// An operator may have moved the order first; that is fine.
			var invalid *InvalidTransitionError
			if errors.As(err, &invalid) {
				slog.Debug(fmt.Sprintf("%s - auto-advance skipped: %v", machineLogPrefix, err))
				return
			}
			slog.Error(fmt.Sprintf("%s - auto-advance of order %d to %s failed: %v", machineLogPrefix, orderID, next, err))
		}
	})
}

// Close stops pending timers and waits for in-flight timed transitions.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	for id, timer := range m.timers {
		if timer.Stop() {
			m.wg.Done()
		}
		delete(m.timers, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}
