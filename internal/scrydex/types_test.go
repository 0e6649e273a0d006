package scrydex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgaskin/cardvault/internal/models"
)

func TestPriceEntriesFlattensVariants(t *testing.T) {
	card := Card{
		ID: "c1",
		Variants: []Variant{
			{Name: "normal", Prices: []VariantPrice{
				{Type: "raw", Condition: "lp", Currency: "usd", Market: 2},
			}},
			{Name: "holofoil", Prices: []VariantPrice{
				{Type: "raw", Condition: "NM", Currency: "USD", Market: 5},
				{Type: "graded", Company: "psa", Grade: "10", Currency: "USD", Market: 50},
			}},
		},
	}

	entries := card.PriceEntries()
	require.Len(t, entries, 3)
	// Casing normalizes so the extractor's comparisons hold.
	assert.Equal(t, "LP", entries[0].Condition)
	assert.Equal(t, "USD", entries[0].Currency)
	assert.Equal(t, "PSA", entries[2].Company)
	assert.Equal(t, models.PriceKindGraded, entries[2].Kind)
}

func TestPriceEntriesSkipsUnknownKind(t *testing.T) {
	card := Card{Variants: []Variant{{Prices: []VariantPrice{
		{Type: "auction", Market: 10},
		{Type: "raw", Condition: "NM", Market: 3},
	}}}}

	entries := card.PriceEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.PriceKindRaw, entries[0].Kind)
}

func TestPriceEntriesNestedTrendFallback(t *testing.T) {
	var p VariantPrice
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "raw", "condition": "NM", "market": 4,
		"trends": {"days_7": {"percent_change": -2.5}}
	}`), &p))

	card := Card{Variants: []Variant{{Prices: []VariantPrice{p}}}}
	entries := card.PriceEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, -2.5, entries[0].Trend)
}

func TestFlexStringShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `"9.5"`, "9.5"},
		{"integer", `10`, "10"},
		{"float", `9.5`, "9.5"},
		{"null", `null`, ""},
		{"object maps to empty", `{"v": 1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, string(f))
		})
	}
}

func TestCardToModelPicksFrontImage(t *testing.T) {
	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "c2", "name": "Pikachu",
		"types": ["Lightning"],
		"images": [
			{"type": "back", "small": "b-s.png", "large": "b-l.png"},
			{"type": "front", "small": "f-s.png", "large": "f-l.png"}
		]
	}`), &c))

	m := c.ToModel()
	assert.Equal(t, "f-s.png", m.ImageSmall)
	assert.Equal(t, "f-l.png", m.ImageLarge)
	assert.Equal(t, []string{"Lightning"}, m.Types)
}

func TestExpansionToModel(t *testing.T) {
	e := Expansion{ID: "base1", Name: "Base Set", Logo: "logo.png", Symbol: "sym.png", Total: 102}
	m := e.ToModel()
	assert.Equal(t, "base1", m.ID)
	assert.Equal(t, "logo.png", m.LogoURL)
	assert.Equal(t, "sym.png", m.SymbolURL)
	assert.Equal(t, 102, m.Total)
}
