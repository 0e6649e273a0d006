package database

import (
	"context"
	"fmt"

	"github.com/tgaskin/cardvault/internal/models"
)

// MarkStarted upserts the status row for kind, sets in-progress and clears
// the last error.
func (db *Database) MarkStarted(ctx context.Context, kind string) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_status (kind, in_progress, last_error, last_run_at, updated_at)
		VALUES ($1, true, '', NOW(), NOW())
		ON CONFLICT (kind)
		DO UPDATE SET in_progress = true, last_error = '', last_run_at = NOW(), updated_at = NOW()`,
		kind)
	if err != nil {
		return fmt.Errorf("error marking sync started: %w", err)
	}
	return nil
}

// MarkProgress updates the running counters without toggling in-progress.
func (db *Database) MarkProgress(ctx context.Context, kind string, counts models.SyncCounts) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_status (kind, in_progress, card_count, expansion_count, price_count, last_page_processed, updated_at)
		VALUES ($1, true, $2, $3, $4, $5, NOW())
		ON CONFLICT (kind)
		DO UPDATE SET card_count = $2, expansion_count = $3, price_count = $4,
			last_page_processed = $5, updated_at = NOW()`,
		kind, counts.Cards, counts.Expansions, counts.Prices, counts.LastPage)
	if err != nil {
		return fmt.Errorf("error marking sync progress: %w", err)
	}
	return nil
}

// MarkCompleted clears in-progress and records the final counts.
func (db *Database) MarkCompleted(ctx context.Context, kind string, counts models.SyncCounts) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_status (kind, in_progress, card_count, expansion_count, price_count, last_page_processed, last_run_at, updated_at)
		VALUES ($1, false, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (kind)
		DO UPDATE SET in_progress = false, card_count = $2, expansion_count = $3,
			price_count = $4, last_page_processed = $5, last_run_at = NOW(), updated_at = NOW()`,
		kind, counts.Cards, counts.Expansions, counts.Prices, counts.LastPage)
	if err != nil {
		return fmt.Errorf("error marking sync completed: %w", err)
	}
	return nil
}

// MarkFailed clears in-progress and records the error message for operator
// visibility.
func (db *Database) MarkFailed(ctx context.Context, kind string, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_status (kind, in_progress, last_error, updated_at)
		VALUES ($1, false, $2, NOW())
		ON CONFLICT (kind)
		DO UPDATE SET in_progress = false, last_error = $2, updated_at = NOW()`,
		kind, msg)
	if err != nil {
		return fmt.Errorf("error marking sync failed: %w", err)
	}
	return nil
}

// GetSyncStatus returns the status row for kind, or nil if the kind has
// never run.
func (db *Database) GetSyncStatus(ctx context.Context, kind string) (*models.SyncStatus, error) {
	statuses, err := db.listSyncStatuses(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, nil
	}
	return &statuses[0], nil
}

// ListSyncStatuses returns every recorded status row.
func (db *Database) ListSyncStatuses(ctx context.Context) ([]models.SyncStatus, error) {
	return db.listSyncStatuses(ctx, "")
}

func (db *Database) listSyncStatuses(ctx context.Context, kind string) ([]models.SyncStatus, error) {
	query := `
		SELECT kind, in_progress, card_count, expansion_count, price_count,
		       last_page_processed, last_error, COALESCE(last_run_at, 'epoch'::timestamp), updated_at
		FROM sync_status`
	var args []any
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY kind`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying sync status: %w", err)
	}
	defer rows.Close()

	var statuses []models.SyncStatus
	for rows.Next() {
		var s models.SyncStatus
		if err := rows.Scan(
			&s.Kind, &s.InProgress, &s.CardCount, &s.ExpansionCount, &s.PriceCount,
			&s.LastPageProcessed, &s.LastError, &s.LastRunAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning sync status row: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync status: %w", err)
	}
	return statuses, nil
}
