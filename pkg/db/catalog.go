package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/biteme/order-platform/pkg/model"
)

const catalogLogPrefix = "db:catalog"

// Restaurants lists all restaurants.
func (r *Repository) Restaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, branch, address, phone
		 FROM restaurants
		 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s - Restaurants failed: %w", catalogLogPrefix, err)
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Branch, &rest.Address, &rest.Phone); err != nil {
			return nil, fmt.Errorf("%s - Restaurants scan failed: %w", catalogLogPrefix, err)
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// MenuItems lists a restaurant's menu.
func (r *Repository) MenuItems(ctx context.Context, restaurantID string) ([]model.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, restaurant_id, name, category, description, price, quantity
		 FROM menu_items
		 WHERE restaurant_id = $1
		 ORDER BY category, name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%s - MenuItems failed: %w", catalogLogPrefix, err)
	}
	defer rows.Close()

	var out []model.MenuItem
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Category,
			&item.Description, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("%s - MenuItems scan failed: %w", catalogLogPrefix, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetMenuItem finds a menu item by id. Returns nil without error when absent.
func (r *Repository) GetMenuItem(ctx context.Context, itemID int64) (*model.MenuItem, error) {
	var item model.MenuItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, restaurant_id, name, category, description, price, quantity
		 FROM menu_items
		 WHERE id = $1
		 LIMIT 1`, itemID,
	).Scan(&item.ID, &item.RestaurantID, &item.Name, &item.Category,
		&item.Description, &item.Price, &item.Quantity)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetMenuItem failed: %w", catalogLogPrefix, err)
	}
	return &item, nil
}

// CreateRestaurant inserts a restaurant, updating it in place when the id
// already exists.
func (r *Repository) CreateRestaurant(ctx context.Context, rest *model.Restaurant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO restaurants (id, name, branch, address, phone)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, branch = EXCLUDED.branch,
		   address = EXCLUDED.address, phone = EXCLUDED.phone`,
		rest.ID, rest.Name, rest.Branch, rest.Address, rest.Phone)
	if err != nil {
		return fmt.Errorf("%s - CreateRestaurant failed: %w", catalogLogPrefix, err)
	}
	return nil
}

// CreateMenuItem inserts a menu item and returns its id.
func (r *Repository) CreateMenuItem(ctx context.Context, item *model.MenuItem) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO menu_items (restaurant_id, name, category, description, price, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (restaurant_id, name) DO UPDATE SET
		   category = EXCLUDED.category, description = EXCLUDED.description,
		   price = EXCLUDED.price, quantity = EXCLUDED.quantity
		 RETURNING id`,
		item.RestaurantID, item.Name, item.Category, item.Description, item.Price, item.Quantity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s - CreateMenuItem failed: %w", catalogLogPrefix, err)
	}
	item.ID = id
	return id, nil
}

// UpdateMenuItem sets a menu item's price and quantity. Reports whether the
// item existed for that restaurant.
func (r *Repository) UpdateMenuItem(ctx context.Context, update model.MenuItemUpdate) (bool, error) {
	slog.Info(fmt.Sprintf("%s - UpdateMenuItem item=%d restaurant=%s", catalogLogPrefix, update.ItemID, update.RestaurantID))

	tag, err := r.pool.Exec(ctx,
		`UPDATE menu_items SET price = $3, quantity = $4
		 WHERE id = $1 AND restaurant_id = $2`,
		update.ItemID, update.RestaurantID, update.Price, update.Quantity)
	if err != nil {
		return false, fmt.Errorf("%s - UpdateMenuItem failed: %w", catalogLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}
