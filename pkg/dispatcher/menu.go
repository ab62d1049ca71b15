package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/protocol"
)

const menuLogPrefix = "dispatcher:menu"

func (d *Dispatcher) handleGetRestaurants(ctx context.Context) *protocol.Envelope {
	list, err := d.store.Restaurants(ctx)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - restaurants query failed: %v", menuLogPrefix, err))
		list = nil
	}
	if list == nil {
		list = []model.Restaurant{}
	}
	return reply(protocol.TagGetRestaurantsResponse, list)
}

func (d *Dispatcher) handleGetMenuItems(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var ident model.Identity
	if err := env.Bind(&ident); err != nil || ident.ID == "" {
		return reply(protocol.TagGetMenuItemsResponse, []model.MenuItem{})
	}

	list, err := d.store.MenuItems(ctx, ident.ID)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - menu query for %s failed: %v", menuLogPrefix, ident.ID, err))
		list = nil
	}
	if list == nil {
		list = []model.MenuItem{}
	}
	return reply(protocol.TagGetMenuItemsResponse, list)
}

func (d *Dispatcher) handleUpdateMenuItem(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var update model.MenuItemUpdate
	if err := env.Bind(&update); err != nil {
		return replyMessage(protocol.TagUpdateFailed, "malformed menu item update payload")
	}
	if update.Price < 0 || update.Quantity < 0 {
		return replyMessage(protocol.TagUpdateFailed, "price and quantity must be non-negative")
	}

	applied, err := d.store.UpdateMenuItem(ctx, update)
	switch {
	case err != nil:
		slog.Error(fmt.Sprintf("%s - update of item %d failed: %v", menuLogPrefix, update.ItemID, err))
		return replyMessage(protocol.TagUpdateFailed, "menu item update failed, try again later")
	case !applied:
		return replyMessage(protocol.TagItemNotFound, "item %d not found for restaurant %s", update.ItemID, update.RestaurantID)
	default:
		return replyMessage(protocol.TagItemUpdated, "item %d updated", update.ItemID)
	}
}
