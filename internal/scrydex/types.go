package scrydex

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tgaskin/cardvault/internal/models"
)

// envelope is the common response shape: either {"data": [...]} with optional
// paging metadata, or a bare array (in which case Data stays nil and the raw
// body is used as-is).
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
}

// Card is the upstream card payload. Only the fields the pipeline stores are
// declared; everything else is dropped on unmarshal.
type Card struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Supertype string          `json:"supertype"`
	Types     []string        `json:"types"`
	Subtypes  []string        `json:"subtypes"`
	Rarity    string          `json:"rarity"`
	Number    string          `json:"number"`
	Expansion struct {
		ID string `json:"id"`
	} `json:"expansion"`
	Images []struct {
		Type  string `json:"type"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	Abilities json.RawMessage `json:"abilities"`
	Attacks   json.RawMessage `json:"attacks"`
	Variants  []Variant       `json:"variants"`
}

// Variant is one printing of a card with its own price list. Variants are
// consumed transiently during extraction and never persisted.
type Variant struct {
	Name   string         `json:"name"`
	Prices []VariantPrice `json:"prices"`
}

// VariantPrice is the loosely-typed upstream price record. Grade arrives as
// either a JSON string or a bare number depending on API version.
type VariantPrice struct {
	Type      string      `json:"type"` // "raw" | "graded"
	Condition string      `json:"condition"`
	Company   string      `json:"company"`
	Grade     FlexString  `json:"grade"`
	Currency  string      `json:"currency"`
	Market    float64     `json:"market"`
	Low       float64     `json:"low"`
	Mid       float64     `json:"mid"`
	High      float64     `json:"high"`
	Trend     float64     `json:"trend"`
	Trends    TrendFields `json:"trends"`
}

// TrendFields keeps only the short-window trend if the API nests trend data.
type TrendFields struct {
	Days7 struct {
		PercentChange float64 `json:"percent_change"`
	} `json:"days_7"`
}

// FlexString unmarshals from either a JSON string or a number. Unknown shapes
// map to the empty string rather than failing the record.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = ""
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// Expansion is the upstream expansion payload.
type Expansion struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Series       string `json:"series"`
	Code         string `json:"code"`
	Total        int    `json:"total"`
	PrintedTotal int    `json:"printed_total"`
	ReleaseDate  string `json:"release_date"`
	Language     string `json:"language"`
	Logo         string `json:"logo"`
	Symbol       string `json:"symbol"`
}

// PriceEntries flattens every variant price on the card into the local tagged
// representation. Entries with an unknown kind tag are skipped; missing
// fields pass through as zero values for the extractor to judge.
func (c Card) PriceEntries() []models.PriceEntry {
	var entries []models.PriceEntry
	for _, v := range c.Variants {
		for _, p := range v.Prices {
			entry := models.PriceEntry{
				Condition: strings.ToUpper(strings.TrimSpace(p.Condition)),
				Company:   strings.ToUpper(strings.TrimSpace(p.Company)),
				Grade:     string(p.Grade),
				Currency:  strings.ToUpper(strings.TrimSpace(p.Currency)),
				Market:    p.Market,
				Low:       p.Low,
				Mid:       p.Mid,
				High:      p.High,
				Trend:     p.Trend,
			}
			if entry.Trend == 0 {
				entry.Trend = p.Trends.Days7.PercentChange
			}
			switch strings.ToLower(p.Type) {
			case "raw":
				entry.Kind = models.PriceKindRaw
			case "graded":
				entry.Kind = models.PriceKindGraded
			default:
				continue
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// ToModel converts the upstream card to its stored form.
func (c Card) ToModel() models.Card {
	card := models.Card{
		ID:          c.ID,
		Name:        c.Name,
		Supertype:   c.Supertype,
		Types:       c.Types,
		Subtypes:    c.Subtypes,
		Rarity:      c.Rarity,
		Number:      c.Number,
		ExpansionID: c.Expansion.ID,
		Abilities:   c.Abilities,
		Attacks:     c.Attacks,
	}
	for _, img := range c.Images {
		if img.Type != "" && img.Type != "front" {
			continue
		}
		card.ImageSmall = img.Small
		card.ImageLarge = img.Large
		break
	}
	return card
}

// ToModel converts the upstream expansion to its stored form.
func (e Expansion) ToModel() models.Expansion {
	return models.Expansion{
		ID:           e.ID,
		Name:         e.Name,
		Series:       e.Series,
		Code:         e.Code,
		Total:        e.Total,
		PrintedTotal: e.PrintedTotal,
		ReleaseDate:  e.ReleaseDate,
		Language:     e.Language,
		LogoURL:      e.Logo,
		SymbolURL:    e.Symbol,
	}
}
