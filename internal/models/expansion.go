package models

import (
	"time"
)

// Expansion represents a named release grouping cards.
type Expansion struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Series       string    `json:"series" db:"series"`
	Code         string    `json:"code" db:"code"`
	Total        int       `json:"total" db:"total"`
	PrintedTotal int       `json:"printed_total" db:"printed_total"`
	ReleaseDate  string    `json:"release_date" db:"release_date"`
	Language     string    `json:"language" db:"language"`
	LogoURL      string    `json:"logo_url" db:"logo_url"`
	SymbolURL    string    `json:"symbol_url" db:"symbol_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
