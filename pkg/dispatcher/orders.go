package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/orders"
	"github.com/biteme/order-platform/pkg/protocol"
)

const ordersLogPrefix = "dispatcher:orders"

func (d *Dispatcher) handlePlaceOrder(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var order model.Order
	if err := env.Bind(&order); err != nil {
		return replyMessage(protocol.TagOrderPlacementFailed, "malformed order payload")
	}
	if order.CustomerID == "" || order.RestaurantID == "" {
		return replyMessage(protocol.TagOrderPlacementFailed, "customer and restaurant are required")
	}

	placed, err := d.orders.Place(ctx, &order)
	switch {
	case err == nil:
		return reply(protocol.TagOrderPlacedSuccessfully, placed)
	case errors.Is(err, orders.ErrEmptyOrder):
		return replyMessage(protocol.TagOrderPlacementFailed, "order has no items")
	case errors.Is(err, orders.ErrUnknownMenuItem):
		return replyMessage(protocol.TagOrderPlacementFailed, "order references an item not on the restaurant's menu")
	default:
		slog.Error(fmt.Sprintf("%s - place order for %s failed: %v", ordersLogPrefix, order.CustomerID, err))
		return replyMessage(protocol.TagOrderPlacementFailed, "order placement failed, try again later")
	}
}

func (d *Dispatcher) handleCustomerOrders(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var ident model.Identity
	if err := env.Bind(&ident); err != nil || ident.ID == "" {
		return reply(protocol.TagGetCustomerOrdersResponse, []model.Order{})
	}

	list, err := d.orders.CustomerOrders(ctx, ident.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - customer orders for %s failed: %v", ordersLogPrefix, ident.ID, err))
		list = nil
	}
	if list == nil {
		list = []model.Order{}
	}
	return reply(protocol.TagGetCustomerOrdersResponse, list)
}

func (d *Dispatcher) handleRestaurantOrders(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var ident model.Identity
	if err := env.Bind(&ident); err != nil || ident.ID == "" {
		return reply(protocol.TagRestaurantOrdersResponse, []model.Order{})
	}

	list, err := d.orders.RestaurantOrders(ctx, ident.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - restaurant orders for %s failed: %v", ordersLogPrefix, ident.ID, err))
		list = nil
	}
	if list == nil {
		list = []model.Order{}
	}
	return reply(protocol.TagRestaurantOrdersResponse, list)
}

func (d *Dispatcher) handleUpdateOrderStatus(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var update model.OrderStatusUpdate
	if err := env.Bind(&update); err != nil {
		return replyMessage(protocol.TagUpdateOrderStatusResponse, "malformed status update payload")
	}

	order, err := d.orders.UpdateStatus(ctx, update.OrderID, update.Status)
	if err == nil {
		return reply(protocol.TagUpdateOrderStatusResponse, order)
	}

	var invalid *orders.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		return replyMessage(protocol.TagUpdateOrderStatusResponse,
			"order %d cannot move from %s to %s", invalid.OrderID, invalid.From, invalid.To)
	case errors.Is(err, orders.ErrOrderNotFound):
		return replyMessage(protocol.TagUpdateOrderStatusResponse, "order %d not found", update.OrderID)
	default:
		slog.Error(fmt.Sprintf("%s - status update for order %d failed: %v", ordersLogPrefix, update.OrderID, err))
		return replyMessage(protocol.TagUpdateOrderStatusResponse, "status update failed, try again later")
	}
}
