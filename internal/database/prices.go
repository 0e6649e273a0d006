package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tgaskin/cardvault/internal/models"
)

const upsertPriceSQL = `
	INSERT INTO card_prices (
		card_id, kind, sub_key, company, condition, grade,
		currency, market, low, mid, high, trend
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (card_id, kind, sub_key, company)
	DO UPDATE SET
		condition = $5,
		grade = $6,
		currency = $7,
		market = $8,
		low = $9,
		mid = $10,
		high = $11,
		trend = $12,
		updated_at = NOW()`

// UpsertPrices writes selected prices in chunks keyed on the composite
// (card id, kind, condition-or-grade, company) key, so a re-sync overwrites
// instead of duplicating.
func (db *Database) UpsertPrices(ctx context.Context, prices []models.SelectedPrice, batchSize int) BatchResult {
	return runChunks(ctx, len(prices), batchSize, func(start, end int) error {
		batch := &pgx.Batch{}
		for _, p := range prices[start:end] {
			batch.Queue(upsertPriceSQL,
				p.CardID, string(p.Kind), p.SubKey(), p.Company, p.Condition, p.Grade,
				p.Currency, p.Market, p.Low, p.Mid, p.High, p.Trend,
			)
		}
		return db.sendBatch(ctx, batch)
	})
}

// CountPrices returns the number of stored price rows.
func (db *Database) CountPrices(ctx context.Context) (int, error) {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM card_prices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting prices: %w", err)
	}
	return count, nil
}

// PricesForCard returns all stored price rows for one card.
func (db *Database) PricesForCard(ctx context.Context, cardID string) ([]models.SelectedPrice, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT card_id, kind, company, condition, grade,
		       currency, market, low, mid, high, trend, updated_at
		FROM card_prices
		WHERE card_id = $1
		ORDER BY kind, company`, cardID)
	if err != nil {
		return nil, fmt.Errorf("error querying prices: %w", err)
	}
	defer rows.Close()

	var prices []models.SelectedPrice
	for rows.Next() {
		var p models.SelectedPrice
		var kind string
		if err := rows.Scan(
			&p.CardID, &kind, &p.Company, &p.Condition, &p.Grade,
			&p.Currency, &p.Market, &p.Low, &p.Mid, &p.High, &p.Trend, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning price row: %w", err)
		}
		p.Kind = models.PriceKind(kind)
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}
	return prices, nil
}
