package models

import (
	"time"
)

// CollectionItem is one owned card in a user's collection, keyed by
// (user id, card id). Quantity accumulates across adds.
type CollectionItem struct {
	UserID    string    `json:"user_id" db:"user_id"`
	CardID    string    `json:"card_id" db:"card_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Condition string    `json:"condition" db:"condition"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
