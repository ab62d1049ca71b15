package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database access for sessions, the catalog, orders,
// and reports. It implements session.Store and orders.Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
