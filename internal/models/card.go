package models

import (
	"encoding/json"
	"time"
)

// Card represents one catalog entry as stored locally. Cards are created and
// updated only by sync runs; the pipeline never deletes them.
type Card struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Supertype   string          `json:"supertype" db:"supertype"`
	Types       []string        `json:"types" db:"types"`
	Subtypes    []string        `json:"subtypes" db:"subtypes"`
	Rarity      string          `json:"rarity" db:"rarity"`
	Number      string          `json:"number" db:"number"`
	ExpansionID string          `json:"expansion_id" db:"expansion_id"`
	ImageSmall  string          `json:"image_small" db:"image_small"`
	ImageLarge  string          `json:"image_large" db:"image_large"`
	// Abilities and attacks arrive as free-form nested JSON from the
	// upstream API and are stored verbatim.
	Abilities json.RawMessage `json:"abilities,omitempty" db:"abilities"`
	Attacks   json.RawMessage `json:"attacks,omitempty" db:"attacks"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
