package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/biteme/order-platform/pkg/model"
)

const serviceTestPrefix = "orders:service_test"

func newTestService(store *stubStore) *Service {
	machine := NewMachine(store, nil, time.Hour)
	return NewService(store, machine)
}

func seedMenu(store *stubStore) {
	store.items[1] = &model.MenuItem{ID: 1, RestaurantID: "pizza-north", Name: "Margherita", Price: 45}
	store.items[2] = &model.MenuItem{ID: 2, RestaurantID: "pizza-north", Name: "Garlic Bread", Price: 18}
	store.items[3] = &model.MenuItem{ID: 3, RestaurantID: "sushi-center", Name: "Salmon Roll", Price: 38}
}

func TestPlace_PricesServerSide(t *testing.T) {
	store := newStubStore()
	seedMenu(store)
	svc := newTestService(store)
	defer svc.Machine().Close()

	order := &model.Order{
		CustomerID:   "alice",
		RestaurantID: "pizza-north",
		TotalPrice:   1, // client-supplied total must be ignored
		Items: []model.OrderItem{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 1},
		},
	}
	placed, err := svc.Place(context.Background(), order)
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", serviceTestPrefix, err)
	}

	if placed.TotalPrice != 2*45+18 {
		t.Errorf("%s - total = %.2f, want %.2f", serviceTestPrefix, placed.TotalPrice, float64(2*45+18))
	}
	if placed.Status != model.StatusPending {
		t.Errorf("%s - status = %s, want PENDING", serviceTestPrefix, placed.Status)
	}
	if placed.ID == 0 {
		t.Error(serviceTestPrefix + " - order id not assigned")
	}
	if placed.ActualArrivalTime != nil {
		t.Error(serviceTestPrefix + " - new order must not carry an arrival time")
	}
	if placed.OrderTime.IsZero() {
		t.Error(serviceTestPrefix + " - order time not set")
	}
}

func TestPlace_EmptyOrder(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	defer svc.Machine().Close()

	_, err := svc.Place(context.Background(), &model.Order{CustomerID: "alice", RestaurantID: "pizza-north"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("%s - expected ErrEmptyOrder, got %v", serviceTestPrefix, err)
	}
}

func TestPlace_UnknownItem(t *testing.T) {
	store := newStubStore()
	seedMenu(store)
	svc := newTestService(store)
	defer svc.Machine().Close()

	_, err := svc.Place(context.Background(), &model.Order{
		CustomerID:   "alice",
		RestaurantID: "pizza-north",
		Items:        []model.OrderItem{{MenuItemID: 99, Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownMenuItem) {
		t.Fatalf("%s - expected ErrUnknownMenuItem, got %v", serviceTestPrefix, err)
	}
}

// An item id belonging to another restaurant's menu is treated the same
// as an unknown item.
func TestPlace_ItemFromOtherRestaurant(t *testing.T) {
	store := newStubStore()
	seedMenu(store)
	svc := newTestService(store)
	defer svc.Machine().Close()

	_, err := svc.Place(context.Background(), &model.Order{
		CustomerID:   "alice",
		RestaurantID: "pizza-north",
		Items:        []model.OrderItem{{MenuItemID: 3, Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownMenuItem) {
		t.Fatalf("%s - expected ErrUnknownMenuItem, got %v", serviceTestPrefix, err)
	}
}

func TestPlace_NonPositiveQuantity(t *testing.T) {
	store := newStubStore()
	seedMenu(store)
	svc := newTestService(store)
	defer svc.Machine().Close()

	_, err := svc.Place(context.Background(), &model.Order{
		CustomerID:   "alice",
		RestaurantID: "pizza-north",
		Items:        []model.OrderItem{{MenuItemID: 1, Quantity: 0}},
	})
	if err == nil {
		t.Fatal(serviceTestPrefix + " - expected error for zero quantity")
	}
}

func TestUpdateStatus_UnknownName(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	defer svc.Machine().Close()

	id := store.addOrder(model.StatusPending)
	if _, err := svc.UpdateStatus(context.Background(), id, "SHIPPED"); err == nil {
		t.Fatal(serviceTestPrefix + " - expected error for unknown status name")
	}
}

func TestUpdateStatus_AppliesTransition(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store)
	defer svc.Machine().Close()

	id := store.addOrder(model.StatusPending)
	order, err := svc.UpdateStatus(context.Background(), id, "CANCELLED")
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", serviceTestPrefix, err)
	}
	if order.Status != model.StatusCancelled {
		t.Errorf("%s - status = %s", serviceTestPrefix, order.Status)
	}
}
