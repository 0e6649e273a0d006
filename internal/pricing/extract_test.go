package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgaskin/cardvault/internal/models"
)

func raw(condition string, market float64) models.PriceEntry {
	return models.PriceEntry{Kind: models.PriceKindRaw, Condition: condition, Currency: "USD", Market: market}
}

func graded(company, grade string, market float64) models.PriceEntry {
	return models.PriceEntry{Kind: models.PriceKindGraded, Company: company, Grade: grade, Currency: "USD", Market: market}
}

func TestExtractBestRawConditionRankBeforePrice(t *testing.T) {
	best := ExtractBest([]models.PriceEntry{
		raw("MP", 5),
		raw("NM", 4),
		raw("NM", 6),
	})

	require.NotNil(t, best.Raw)
	assert.Equal(t, "NM", best.Raw.Condition)
	assert.Equal(t, 4.0, best.Raw.Market)
}

func TestExtractBestGradedPSA10Unconditional(t *testing.T) {
	best := ExtractBest([]models.PriceEntry{
		graded("PSA", "9", 100),
		graded("PSA", "10", 90),
		graded("BGS", "10", 95),
	})

	require.NotNil(t, best.Graded)
	assert.Equal(t, "PSA", best.Graded.Company)
	assert.Equal(t, "10", best.Graded.Grade)
	assert.Equal(t, 90.0, best.Graded.Market)
}

func TestExtractBestGradedFallsBackToHighestMarket(t *testing.T) {
	best := ExtractBest([]models.PriceEntry{
		graded("CGC", "9.5", 40),
		graded("BGS", "9", 80),
		graded("PSA", "9", 60),
	})

	require.NotNil(t, best.Graded)
	assert.Equal(t, "BGS", best.Graded.Company)
}

func TestExtractBestGradedTieIsDeterministic(t *testing.T) {
	// Same market, neither PSA-10: company name breaks the tie, so the
	// result does not depend on input order.
	forward := ExtractBest([]models.PriceEntry{
		graded("CGC", "10", 50),
		graded("BGS", "10", 50),
	})
	reversed := ExtractBest([]models.PriceEntry{
		graded("BGS", "10", 50),
		graded("CGC", "10", 50),
	})

	require.NotNil(t, forward.Graded)
	require.NotNil(t, reversed.Graded)
	assert.Equal(t, "BGS", forward.Graded.Company)
	assert.Equal(t, forward.Graded, reversed.Graded)
}

func TestExtractBestDiscardsIneligibleEntries(t *testing.T) {
	eur := raw("NM", 3)
	eur.Currency = "EUR"

	best := ExtractBest([]models.PriceEntry{
		eur,
		raw("NM", 0), // no market price
		raw("LP", 7),
	})

	require.NotNil(t, best.Raw)
	assert.Equal(t, "LP", best.Raw.Condition)
	assert.Nil(t, best.Graded)
}

func TestExtractBestEmptyCurrencyIsEligible(t *testing.T) {
	entry := raw("NM", 2)
	entry.Currency = ""

	best := ExtractBest([]models.PriceEntry{entry})
	require.NotNil(t, best.Raw)
	assert.Equal(t, 2.0, best.Raw.Market)
}

func TestExtractBestNoCandidates(t *testing.T) {
	best := ExtractBest(nil)
	assert.Nil(t, best.Raw)
	assert.Nil(t, best.Graded)
}

func TestExtractBestUnknownConditionRanksLast(t *testing.T) {
	best := ExtractBest([]models.PriceEntry{
		raw("SP", 1), // not a known condition code
		raw("DM", 9),
	})

	require.NotNil(t, best.Raw)
	assert.Equal(t, "DM", best.Raw.Condition)
}
