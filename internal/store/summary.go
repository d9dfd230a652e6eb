package store

import (
	"context"
	"database/sql"

	"github.com/mkessler/worklog-api/internal/domain"
)

// SummaryStore persists the latest summary per user, repository, and time
// range. Saving overwrites any previous summary for the same key: the
// store keeps the freshest result, not a history.
type SummaryStore interface {
	// Save stores or overwrites the summary for the record's repository and
	// range under userID.
	Save(ctx context.Context, userID int64, record *domain.SummaryRecord) error

	// Get retrieves the saved summary for the user, repository, and range.
	// Returns ErrSummaryNotFound if nothing is saved for that key.
	Get(ctx context.Context, userID int64, repo string, rangeKind domain.RangeKind) (*domain.SummaryRecord, error)

	// WithTx returns a SummaryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) SummaryStore
}
