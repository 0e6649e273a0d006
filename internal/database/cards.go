package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tgaskin/cardvault/internal/models"
)

const upsertCardSQL = `
	INSERT INTO cards (
		id, name, supertype, types, subtypes, rarity, number,
		expansion_id, image_small, image_large, abilities, attacks
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id)
	DO UPDATE SET
		name = $2,
		supertype = $3,
		types = $4,
		subtypes = $5,
		rarity = $6,
		number = $7,
		expansion_id = $8,
		image_small = $9,
		image_large = $10,
		abilities = $11,
		attacks = $12,
		updated_at = NOW()`

// UpsertCards writes cards in fixed-size chunks, insert-or-update keyed on
// the card id. Chunk failures are isolated; see BatchResult.
func (db *Database) UpsertCards(ctx context.Context, cards []models.Card, batchSize int) BatchResult {
	return runChunks(ctx, len(cards), batchSize, func(start, end int) error {
		batch := &pgx.Batch{}
		for _, c := range cards[start:end] {
			batch.Queue(upsertCardSQL,
				c.ID, c.Name, c.Supertype, c.Types, c.Subtypes, c.Rarity, c.Number,
				c.ExpansionID, c.ImageSmall, c.ImageLarge, c.Abilities, c.Attacks,
			)
		}
		return db.sendBatch(ctx, batch)
	})
}

// ExistingCardIDs returns which of the candidate ids are already stored.
func (db *Database) ExistingCardIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := db.pool.Query(ctx, `SELECT id FROM cards WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("error querying existing card ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning card id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card ids: %w", err)
	}
	return existing, nil
}

// CountCards returns the number of stored cards. Used by the resume
// estimator and the status API.
func (db *Database) CountCards(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting cards: %w", err)
	}
	return count, nil
}

// ListCards returns one page of stored cards, optionally filtered by
// expansion, ordered by id for stable pagination.
func (db *Database) ListCards(ctx context.Context, expansionID string, page, pageSize int) ([]models.Card, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 250 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := `
		SELECT id, name, supertype, types, subtypes, rarity, number,
		       expansion_id, image_small, image_large, created_at, updated_at
		FROM cards`
	args := []any{pageSize, offset}
	if expansionID != "" {
		query += ` WHERE expansion_id = $3`
		args = append(args, expansionID)
	}
	query += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Supertype, &c.Types, &c.Subtypes, &c.Rarity, &c.Number,
			&c.ExpansionID, &c.ImageSmall, &c.ImageLarge, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

// sendBatch executes a queued batch on one pooled connection. Any statement
// error fails the whole batch.
func (db *Database) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := db.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("error executing batch statement %d: %w", i, err)
		}
	}
	return nil
}
