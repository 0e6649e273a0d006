package database

import (
	"context"
	"fmt"

	"github.com/tgaskin/cardvault/internal/models"
)

// AddToCollection upserts one owned card. Adding an already-owned card
// accumulates quantity and refreshes the condition.
func (db *Database) AddToCollection(ctx context.Context, item models.CollectionItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	_, err := db.pool.Exec(ctx, `
		INSERT INTO collection_items (user_id, card_id, quantity, condition)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, card_id)
		DO UPDATE SET quantity = collection_items.quantity + $3, condition = $4, updated_at = NOW()`,
		item.UserID, item.CardID, item.Quantity, item.Condition)
	if err != nil {
		return fmt.Errorf("error adding to collection: %w", err)
	}
	return nil
}

// RemoveFromCollection deletes one owned card entirely.
func (db *Database) RemoveFromCollection(ctx context.Context, userID, cardID string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM collection_items WHERE user_id = $1 AND card_id = $2`,
		userID, cardID)
	if err != nil {
		return fmt.Errorf("error removing from collection: %w", err)
	}
	return nil
}

// ListCollection returns a user's owned cards, newest first.
func (db *Database) ListCollection(ctx context.Context, userID string) ([]models.CollectionItem, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT user_id, card_id, quantity, condition, created_at, updated_at
		FROM collection_items
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying collection: %w", err)
	}
	defer rows.Close()

	var items []models.CollectionItem
	for rows.Next() {
		var item models.CollectionItem
		if err := rows.Scan(
			&item.UserID, &item.CardID, &item.Quantity, &item.Condition,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning collection row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}
	return items, nil
}
