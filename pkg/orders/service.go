package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/biteme/order-platform/pkg/model"
)

const serviceLogPrefix = "orders:service"

// Placement failures.
var (
	ErrEmptyOrder      = errors.New("orders: order has no items")
	ErrUnknownMenuItem = errors.New("orders: order references an unknown menu item")
)

// Service wraps order placement and queries around the state machine.
type Service struct {
	store   Store
	machine *Machine
}

// NewService creates the order service.
func NewService(store Store, machine *Machine) *Service {
	return &Service{store: store, machine: machine}
}

// Machine exposes the underlying state machine.
func (s *Service) Machine() *Machine {
	return s.machine
}

// Place validates a new order, prices it from the menu, and stores it with
// status PENDING. The total is always computed server-side; a client
// supplied total is ignored.
func (s *Service) Place(ctx context.Context, order *model.Order) (*model.Order, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := 0.0
	for _, line := range order.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%s - item %d has non-positive quantity", serviceLogPrefix, line.MenuItemID)
		}
		item, err := s.store.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to price item %d: %w", serviceLogPrefix, line.MenuItemID, err)
		}
		if item == nil || item.RestaurantID != order.RestaurantID {
			return nil, ErrUnknownMenuItem
		}
		total += item.Price * float64(line.Quantity)
	}

	order.TotalPrice = total
	order.Status = model.StatusPending
	if order.OrderTime.IsZero() {
		order.OrderTime = time.Now().UTC()
	}
	order.ActualArrivalTime = nil

	id, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create order: %w", serviceLogPrefix, err)
	}
	order.ID = id
	slog.Info(fmt.Sprintf("%s - order %d placed by %s, total %.2f", serviceLogPrefix, id, order.CustomerID, total))
	return order, nil
}

// UpdateStatus parses the status name and applies the transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, statusName string) (*model.Order, error) {
	status, err := model.ParseOrderStatus(statusName)
	if err != nil {
		return nil, err
	}
	return s.machine.Transition(ctx, orderID, status)
}

// CustomerOrders lists a customer's orders.
func (s *Service) CustomerOrders(ctx context.Context, customerID string) ([]model.Order, error) {
	return s.store.OrdersByCustomer(ctx, customerID)
}

// RestaurantOrders lists a restaurant's orders.
func (s *Service) RestaurantOrders(ctx context.Context, restaurantID string) ([]model.Order, error) {
	return s.store.OrdersByRestaurant(ctx, restaurantID)
}
