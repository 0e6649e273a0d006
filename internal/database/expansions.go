package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tgaskin/cardvault/internal/models"
)

const upsertExpansionSQL = `
	INSERT INTO expansions (
		id, name, series, code, total, printed_total,
		release_date, language, logo_url, symbol_url
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id)
	DO UPDATE SET
		name = $2,
		series = $3,
		code = $4,
		total = $5,
		printed_total = $6,
		release_date = $7,
		language = $8,
		logo_url = $9,
		symbol_url = $10,
		updated_at = NOW()`

// UpsertExpansions writes expansions in chunks keyed on the expansion id.
func (db *Database) UpsertExpansions(ctx context.Context, expansions []models.Expansion, batchSize int) BatchResult {
	return runChunks(ctx, len(expansions), batchSize, func(start, end int) error {
		batch := &pgx.Batch{}
		for _, e := range expansions[start:end] {
			batch.Queue(upsertExpansionSQL,
				e.ID, e.Name, e.Series, e.Code, e.Total, e.PrintedTotal,
				e.ReleaseDate, e.Language, e.LogoURL, e.SymbolURL,
			)
		}
		return db.sendBatch(ctx, batch)
	})
}

// CountExpansions returns the number of stored expansions.
func (db *Database) CountExpansions(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expansions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting expansions: %w", err)
	}
	return count, nil
}

// ListExpansions returns all stored expansions ordered by release date.
func (db *Database) ListExpansions(ctx context.Context) ([]models.Expansion, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, name, series, code, total, printed_total,
		       release_date, language, logo_url, symbol_url, created_at, updated_at
		FROM expansions
		ORDER BY release_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying expansions: %w", err)
	}
	defer rows.Close()

	var expansions []models.Expansion
	for rows.Next() {
		var e models.Expansion
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Series, &e.Code, &e.Total, &e.PrintedTotal,
			&e.ReleaseDate, &e.Language, &e.LogoURL, &e.SymbolURL, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning expansion row: %w", err)
		}
		expansions = append(expansions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expansions: %w", err)
	}
	return expansions, nil
}
