package models

import (
	"time"
)

// PriceKind discriminates the two shapes a price entry can take.
type PriceKind string

const (
	PriceKindRaw    PriceKind = "raw"
	PriceKindGraded PriceKind = "graded"
)

// PriceEntry is one quoted price for a card variant. Exactly one kind tag per
// entry: raw entries carry Condition, graded entries carry Company and Grade.
// Fields that the upstream payload omits stay at their zero value; the
// extractor decides eligibility, the parser never rejects.
type PriceEntry struct {
	Kind      PriceKind `json:"kind"`
	Condition string    `json:"condition,omitempty"` // raw only: NM, LP, MP, DM
	Company   string    `json:"company,omitempty"`   // graded only: PSA, BGS, CGC, ...
	Grade     string    `json:"grade,omitempty"`     // graded only: "10", "9.5", ...
	Currency  string    `json:"currency"`
	Market    float64   `json:"market"`
	Low       float64   `json:"low,omitempty"`
	Mid       float64   `json:"mid,omitempty"`
	High      float64   `json:"high,omitempty"`
	Trend     float64   `json:"trend,omitempty"`
}

// HasMarket reports whether the entry carries a usable market price.
func (p PriceEntry) HasMarket() bool {
	return p.Market > 0
}

// ConditionRank orders raw conditions best-first. Unknown conditions sort
// after every known one.
func ConditionRank(condition string) int {
	switch condition {
	case "NM":
		return 1
	case "LP":
		return 2
	case "MP":
		return 3
	case "DM":
		return 4
	default:
		return 5
	}
}

// SelectedPrice is the persisted best price for a card, at most one row per
// (card id, kind, condition-or-grade, company).
type SelectedPrice struct {
	CardID    string    `json:"card_id" db:"card_id"`
	Kind      PriceKind `json:"kind" db:"kind"`
	Condition string    `json:"condition" db:"condition"`
	Company   string    `json:"company" db:"company"`
	Grade     string    `json:"grade" db:"grade"`
	Currency  string    `json:"currency" db:"currency"`
	Market    float64   `json:"market" db:"market"`
	Low       float64   `json:"low" db:"low"`
	Mid       float64   `json:"mid" db:"mid"`
	High      float64   `json:"high" db:"high"`
	Trend     float64   `json:"trend" db:"trend"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubKey returns the condition-or-grade part of the composite price key.
func (s SelectedPrice) SubKey() string {
	if s.Kind == PriceKindGraded {
		return s.Grade
	}
	return s.Condition
}

// NewSelectedPrice builds the persisted row for a card from a chosen entry.
func NewSelectedPrice(cardID string, entry PriceEntry) SelectedPrice {
	return SelectedPrice{
		CardID:    cardID,
		Kind:      entry.Kind,
		Condition: entry.Condition,
		Company:   entry.Company,
		Grade:     entry.Grade,
		Currency:  entry.Currency,
		Market:    entry.Market,
		Low:       entry.Low,
		Mid:       entry.Mid,
		High:      entry.High,
		Trend:     entry.Trend,
	}
}
