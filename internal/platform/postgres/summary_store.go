package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mkessler/worklog-api/internal/domain"
	"github.com/mkessler/worklog-api/internal/platform/logger"
	"github.com/mkessler/worklog-api/internal/store"
)

// PostgreSQL error codes
const pgForeignKeyViolationCode = "23503"

// PostgresSummaryStore implements the store.SummaryStore interface using a
// PostgreSQL database as the storage backend. Task lists and activity
// records are stored as JSONB.
type PostgresSummaryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSummaryStore creates a new PostgreSQL implementation of the
// SummaryStore interface. If logger is nil, a default logger will be used.
func NewPostgresSummaryStore(db store.DBTX, logger *slog.Logger) *PostgresSummaryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSummaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "summary_store")),
	}
}

// Ensure PostgresSummaryStore implements store.SummaryStore interface
var _ store.SummaryStore = (*PostgresSummaryStore)(nil)

// Save implements store.SummaryStore.Save. The (user, repo, range) key is
// the primary key, so a repeated save overwrites the previous summary.
// Returns store.ErrInvalidEntity if the user ID doesn't exist.
func (s *PostgresSummaryStore) Save(ctx context.Context, userID int64, record *domain.SummaryRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if record == nil || record.Repo == "" {
		return store.ErrInvalidEntity
	}
	if err := record.Range.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tasksJSON, err := json.Marshal(record.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	activityJSON, err := json.Marshal(record.Activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	query := `
		INSERT INTO saved_summaries
			(user_id, repo, range_kind, since, until, summary, tasks, activity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, repo, range_kind) DO UPDATE
		SET since = EXCLUDED.since,
		    until = EXCLUDED.until,
		    summary = EXCLUDED.summary,
		    tasks = EXCLUDED.tasks,
		    activity = EXCLUDED.activity,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		userID,
		record.Repo,
		string(record.Range),
		record.Since,
		record.Until,
		record.Summary,
		tasksJSON,
		activityJSON,
		time.Now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during summary save",
				slog.Int64("user_id", userID),
				slog.String("repo", record.Repo))
			return fmt.Errorf("%w: user with ID %d not found", store.ErrInvalidEntity, userID)
		}

		log.Error("failed to save summary",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.String("repo", record.Repo),
			slog.String("range", string(record.Range)))
		return err
	}

	log.Info("summary saved",
		slog.Int64("user_id", userID),
		slog.String("repo", record.Repo),
		slog.String("range", string(record.Range)))
	return nil
}

// Get implements store.SummaryStore.Get.
// Returns store.ErrSummaryNotFound if nothing is saved for the key.
func (s *PostgresSummaryStore) Get(ctx context.Context, userID int64, repo string, rangeKind domain.RangeKind) (*domain.SummaryRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT since, until, summary, tasks, activity
		FROM saved_summaries
		WHERE user_id = $1 AND repo = $2 AND range_kind = $3
	`

	record := domain.SummaryRecord{
		Repo:  repo,
		Range: rangeKind,
	}
	var tasksJSON, activityJSON []byte

	err := s.db.QueryRowContext(ctx, query, userID, repo, string(rangeKind)).Scan(
		&record.Since,
		&record.Until,
		&record.Summary,
		&tasksJSON,
		&activityJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSummaryNotFound
		}
		log.Error("failed to get saved summary",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.String("repo", repo))
		return nil, err
	}

	if len(tasksJSON) > 0 {
		if err := json.Unmarshal(tasksJSON, &record.Tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
		}
	}
	if len(activityJSON) > 0 {
		if err := json.Unmarshal(activityJSON, &record.Activity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity: %w", err)
		}
	}

	return &record, nil
}

// WithTx implements store.SummaryStore.WithTx.
func (s *PostgresSummaryStore) WithTx(tx *sql.Tx) store.SummaryStore {
	return &PostgresSummaryStore{
		db:     tx,
		logger: s.logger,
	}
}
