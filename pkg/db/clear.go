package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearPlatform truncates all platform tables (order_items, orders,
// menu_items, restaurants, users) in dependency order. Schema is preserved;
// only data is removed. RESTART IDENTITY resets sequences.
func ClearPlatform(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing platform tables", clearLogPrefix))

	// Truncate in dependency order: children first. CASCADE handles any
	// other tables that reference these.
	_, err := pool.Exec(ctx, `TRUNCATE TABLE
		order_items,
		orders,
		menu_items,
		restaurants,
		users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Platform cleared", clearLogPrefix))
	return nil
}
