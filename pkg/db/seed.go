package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biteme/order-platform/pkg/bootstrap"
)

const seedLogPrefix = "db:seed"

// Seed loads the seed data set from the given path and populates the
// database with restaurants, menu items, and user accounts. Idempotent:
// uses ON CONFLICT DO NOTHING / DO UPDATE where appropriate, so running
// it against an already seeded database is safe.
func Seed(ctx context.Context, pool *pgxpool.Pool, seedFilePath string) error {
	slog.Info(fmt.Sprintf("%s - seeding from %s", seedLogPrefix, seedFilePath))

	cfg, err := bootstrap.LoadSeedConfig(seedFilePath)
	if err != nil {
		return fmt.Errorf("%s - load seed config: %w", seedLogPrefix, err)
	}
	if cfg == nil || (len(cfg.Restaurants) == 0 && len(cfg.Users) == 0) {
		slog.Info(fmt.Sprintf("%s - nothing to seed", seedLogPrefix))
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for _, u := range cfg.Users {
		if u.ID == "" {
			slog.Warn(fmt.Sprintf("%s - skip user with empty id", seedLogPrefix))
			continue
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, password, first_name, last_name, email, phone, role, branch, connected)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
			 ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Password, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.Branch)
		if err != nil {
			return fmt.Errorf("%s - insert user %s: %w", seedLogPrefix, u.ID, err)
		}
	}

	for _, r := range cfg.Restaurants {
		if r.ID == "" {
			slog.Warn(fmt.Sprintf("%s - skip restaurant with empty id", seedLogPrefix))
			continue
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO restaurants (id, name, branch, address, phone)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   branch = EXCLUDED.branch,
			   address = EXCLUDED.address,
			   phone = EXCLUDED.phone`,
			r.ID, r.Name, r.Branch, r.Address, r.Phone)
		if err != nil {
			return fmt.Errorf("%s - insert restaurant %s: %w", seedLogPrefix, r.ID, err)
		}

		// Menu items have no natural key beyond (restaurant, name); keep
		// prices and stock in sync with the seed file on re-runs.
		for _, item := range r.Menu {
			_, err := tx.Exec(ctx,
				`INSERT INTO menu_items (restaurant_id, name, category, description, price, quantity)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (restaurant_id, name) DO UPDATE SET
				   category = EXCLUDED.category,
				   description = EXCLUDED.description,
				   price = EXCLUDED.price,
				   quantity = EXCLUDED.quantity`,
				r.ID, item.Name, item.Category, item.Description, item.Price, item.Quantity)
			if err != nil {
				return fmt.Errorf("%s - insert menu item %s/%s: %w", seedLogPrefix, r.ID, item.Name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - seeded %d users, %d restaurants", seedLogPrefix, len(cfg.Users), len(cfg.Restaurants)))
	return nil
}
