package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/biteme/order-platform/pkg/model"
)

const usersLogPrefix = "db:users"

// ErrUserExists is returned when a registration collides with an existing id.
var ErrUserExists = errors.New("db: user already exists")

// GetUser finds a user by id. Returns nil without error when absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, password, first_name, last_name, email, phone, role, branch, connected
		 FROM users
		 WHERE id = $1
		 LIMIT 1`, id,
	).Scan(&u.ID, &u.Password, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Role, &u.Branch, &u.Connected)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetUser failed: %w", usersLogPrefix, err)
	}
	return &u, nil
}

// CreateUser registers a new user. Returns ErrUserExists on id collision.
func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	slog.Info(fmt.Sprintf("%s - CreateUser id=%s role=%s", usersLogPrefix, u.ID, u.Role))

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, password, first_name, last_name, email, phone, role, branch, connected)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		 ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Password, u.FirstName, u.LastName, u.Email, u.Phone, u.Role, u.Branch)
	if err != nil {
		return fmt.Errorf("%s - CreateUser failed: %w", usersLogPrefix, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserExists
	}
	return nil
}

// SetConnected flips the user's connected flag. The update is conditional
// on the current value, so it reports true only when this caller performed
// the flip — the write that serializes racing logins.
func (r *Repository) SetConnected(ctx context.Context, id string, connected bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET connected = $2 WHERE id = $1 AND connected = NOT $2`,
		id, connected)
	if err != nil {
		return false, fmt.Errorf("%s - SetConnected failed: %w", usersLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearConnected resets every connected flag. Run at server start to drop
// sessions orphaned by an unclean shutdown.
func (r *Repository) ClearConnected(ctx context.Context) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET connected = false WHERE connected = true`)
	if err != nil {
		return fmt.Errorf("%s - ClearConnected failed: %w", usersLogPrefix, err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info(fmt.Sprintf("%s - Cleared %d stale connected flags", usersLogPrefix, n))
	}
	return nil
}
