package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/biteme/order-platform/pkg/model"
)

const ordersLogPrefix = "db:orders"

const orderColumns = `id, customer_id, restaurant_id, total_price, status, delivery_type,
		delivery_address, recipient_name, recipient_phone, order_time, required_time, actual_arrival_time`

// CreateOrder inserts the order and its items in one transaction and
// returns the new order id.
func (r *Repository) CreateOrder(ctx context.Context, order *model.Order) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s - begin tx: %w", ordersLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, restaurant_id, total_price, status, delivery_type,
		                     delivery_address, recipient_name, recipient_phone, order_time, required_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		order.CustomerID, order.RestaurantID, order.TotalPrice, order.Status, order.DeliveryType,
		order.DeliveryAddress, order.RecipientName, order.RecipientPhone, order.OrderTime, order.RequiredTime,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s - insert order: %w", ordersLogPrefix, err)
	}

	for _, item := range order.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, menu_item_id, quantity, instructions)
			 VALUES ($1, $2, $3, $4)`,
			id, item.MenuItemID, item.Quantity, item.Instructions); err != nil {
			return 0, fmt.Errorf("%s - insert order item: %w", ordersLogPrefix, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s - commit: %w", ordersLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Created order %d for %s", ordersLogPrefix, id, order.CustomerID))
	return id, nil
}

// GetOrder loads an order with its items. Returns nil without error when absent.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 LIMIT 1`, id)

	order, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetOrder failed: %w", ordersLogPrefix, err)
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves the order from one status to another in a single
// conditional update. Reports false when the row no longer holds the
// expected current status, which is how concurrent transitions lose.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, from, to model.OrderStatus, arrival *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, actual_arrival_time = COALESCE($4, actual_arrival_time)
		 WHERE id = $1 AND status = $2`,
		id, from, to, arrival)
	if err != nil {
		return false, fmt.Errorf("%s - UpdateOrderStatus failed: %w", ordersLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// OrdersByCustomer lists a customer's orders, newest first.
func (r *Repository) OrdersByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY order_time DESC`,
		customerID)
}

// OrdersByRestaurant lists a restaurant's orders, newest first.
func (r *Repository) OrdersByRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error) {
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE restaurant_id = $1 ORDER BY order_time DESC`,
		restaurantID)
}

func (r *Repository) listOrders(ctx context.Context, query string, arg interface{}) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s - list query failed: %w", ordersLogPrefix, err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s - list scan failed: %w", ordersLogPrefix, err)
		}
		out = append(out, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) loadItems(ctx context.Context, order *model.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT menu_item_id, quantity, instructions
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id ASC`, order.ID)
	if err != nil {
		return fmt.Errorf("%s - loadItems failed: %w", ordersLogPrefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Quantity, &item.Instructions); err != nil {
			return fmt.Errorf("%s - loadItems scan failed: %w", ordersLogPrefix, err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// scanOrder scans one order row; rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &o.TotalPrice, &o.Status, &o.DeliveryType,
		&o.DeliveryAddress, &o.RecipientName, &o.RecipientPhone, &o.OrderTime, &o.RequiredTime, &o.ActualArrivalTime)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
