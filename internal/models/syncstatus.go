package models

import (
	"time"
)

// SyncStatus is the single status row kept per sync kind. Mutated at run
// start (in-progress set), periodically (counters), and at completion or
// failure (in-progress cleared, error recorded).
type SyncStatus struct {
	Kind              string    `json:"kind" db:"kind"`
	InProgress        bool      `json:"in_progress" db:"in_progress"`
	CardCount         int       `json:"card_count" db:"card_count"`
	ExpansionCount    int       `json:"expansion_count" db:"expansion_count"`
	PriceCount        int       `json:"price_count" db:"price_count"`
	LastPageProcessed int       `json:"last_page_processed" db:"last_page_processed"`
	LastError         string    `json:"last_error" db:"last_error"`
	LastRunAt         time.Time `json:"last_run_at" db:"last_run_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// SyncCounts carries running totals through a pipeline run.
type SyncCounts struct {
	Cards      int `json:"cards"`
	Expansions int `json:"expansions"`
	Prices     int `json:"prices"`
	LastPage   int `json:"last_page"`
}
