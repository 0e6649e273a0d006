// Package pricing selects the single best raw and graded price per card.
package pricing

import (
	"sort"

	"github.com/tgaskin/cardvault/internal/models"
)

// RequiredCurrency filters out quotes in any other currency. Entries with no
// currency tag are assumed to already be in it.
const RequiredCurrency = "USD"

// BestPrices is the extraction result: either side may be nil when no
// eligible candidate exists.
type BestPrices struct {
	Raw    *models.PriceEntry
	Graded *models.PriceEntry
}

// ExtractBest partitions a card's flattened price entries into raw and graded
// candidates and picks one winner per side. Pure function; ordering is total
// so repeated runs select the same entries.
//
// Raw: best condition rank first (NM < LP < MP < DM < unknown), then lowest
// market price, then condition string for stability.
// Graded: a PSA 10 wins unconditionally; otherwise highest market price,
// then company name, then grade.
func ExtractBest(entries []models.PriceEntry) BestPrices {
	var raw, graded []models.PriceEntry
	for _, e := range entries {
		if !eligible(e) {
			continue
		}
		switch e.Kind {
		case models.PriceKindRaw:
			raw = append(raw, e)
		case models.PriceKindGraded:
			graded = append(graded, e)
		}
	}

	var best BestPrices
	if len(raw) > 0 {
		sort.SliceStable(raw, func(i, j int) bool {
			return rawLess(raw[i], raw[j])
		})
		best.Raw = &raw[0]
	}
	if len(graded) > 0 {
		sort.SliceStable(graded, func(i, j int) bool {
			return gradedLess(graded[i], graded[j])
		})
		best.Graded = &graded[0]
	}
	return best
}

// eligible drops entries with no market price or in a non-USD currency.
func eligible(e models.PriceEntry) bool {
	if !e.HasMarket() {
		return false
	}
	if e.Currency != "" && e.Currency != RequiredCurrency {
		return false
	}
	return true
}

func rawLess(a, b models.PriceEntry) bool {
	ra, rb := models.ConditionRank(a.Condition), models.ConditionRank(b.Condition)
	if ra != rb {
		return ra < rb
	}
	if a.Market != b.Market {
		return a.Market < b.Market
	}
	return a.Condition < b.Condition
}

func gradedLess(a, b models.PriceEntry) bool {
	pa, pb := isPSA10(a), isPSA10(b)
	if pa != pb {
		return pa
	}
	if a.Market != b.Market {
		return a.Market > b.Market
	}
	if a.Company != b.Company {
		return a.Company < b.Company
	}
	return a.Grade < b.Grade
}

func isPSA10(e models.PriceEntry) bool {
	return e.Company == "PSA" && e.Grade == "10"
}
