// Package model defines the domain entities shared by the client, the
// dispatcher, and the store: users, restaurants, menu items, and orders.
package model

import (
	"fmt"
	"time"
)

// Role is a user's role in the platform.
type Role string

// Known roles.
const (
	RoleCustomer          Role = "customer"
	RoleRestaurantManager Role = "restaurant_manager"
	RoleBranchManager     Role = "branch_manager"
	RoleCEO               Role = "ceo"
)

// User is a platform account. Password comparison strength is the
// credential store's concern, not this layer's.
type User struct {
	ID        string `json:"id"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role"`
	Branch    string `json:"branch,omitempty"`
	Connected bool   `json:"connected,omitempty"`
}

// Restaurant is a participating restaurant.
type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Branch  string `json:"branch,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// MenuItem is a single orderable item on a restaurant's menu.
type MenuItem struct {
	ID           int64   `json:"id"`
	RestaurantID string  `json:"restaurantId"`
	Name         string  `json:"name"`
	Category     string  `json:"category,omitempty"`
	Description  string  `json:"description,omitempty"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order lifecycle states. DELIVERED and CANCELLED are terminal.
const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusPreparing  OrderStatus = "PREPARING"
	StatusReady      OrderStatus = "READY"
	StatusInDelivery OrderStatus = "IN_DELIVERY"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a status name from the wire.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusInDelivery, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("model - unknown order status %q", s)
}

// Terminal reports whether no transition leaves this status.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryType distinguishes how an order reaches the customer.
type DeliveryType string

// Known delivery types.
const (
	DeliveryRegular DeliveryType = "regular"
	DeliveryEarly   DeliveryType = "early"
	DeliveryPickup  DeliveryType = "pickup"
)

// OrderItem is one line of an order.
type OrderItem struct {
	MenuItemID   int64  `json:"menuItemId"`
	Quantity     int    `json:"quantity"`
	Instructions string `json:"instructions,omitempty"`
}

// Order is a customer's order. Orders are never deleted; they only reach a
// terminal status. ActualArrivalTime is set when the order is DELIVERED.
type Order struct {
	ID                int64        `json:"id"`
	CustomerID        string       `json:"customerId"`
	RestaurantID      string       `json:"restaurantId"`
	Items             []OrderItem  `json:"items"`
	TotalPrice        float64      `json:"totalPrice"`
	Status            OrderStatus  `json:"status"`
	DeliveryType      DeliveryType `json:"deliveryType"`
	DeliveryAddress   string       `json:"deliveryAddress,omitempty"`
	RecipientName     string       `json:"recipientName,omitempty"`
	RecipientPhone    string       `json:"recipientPhone,omitempty"`
	OrderTime         time.Time    `json:"orderTime"`
	RequiredTime      time.Time    `json:"requiredTime"`
	ActualArrivalTime *time.Time   `json:"actualArrivalTime,omitempty"`
}
