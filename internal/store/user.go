package store

import (
	"context"
	"database/sql"

	"github.com/mkessler/worklog-api/internal/domain"
)

// UserStore defines the interface for user persistence. Users arrive via
// GitHub OAuth, so there is no create/update split: every login upserts
// the latest profile snapshot.
type UserStore interface {
	// Upsert inserts the user or refreshes their profile fields if the ID
	// already exists.
	Upsert(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their GitHub numeric ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// WithTx returns a UserStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
