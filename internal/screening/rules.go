package screening

import (
	"fmt"

	"github.com/dokyun/folio/internal/contracts"
)

// SortField selects the ranking key of a screen.
type SortField string

const (
	SortByVolume        SortField = "volume"
	SortByChangeRate    SortField = "change_rate"
	SortByMarketCap     SortField = "market_cap"
	SortByPER           SortField = "per"
	SortByDividendYield SortField = "dividend_yield"
	SortByScore         SortField = "score"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Request is one screening call.
type Request struct {
	Market    contracts.Market
	AssetType *contracts.AssetType
	Category  string

	MinMarketCap     *float64
	MaxPER           *float64
	MinDividendYield *float64 // raw user input; normalized by the engine
	MaxRSI           *float64

	SortBy    SortField
	SortOrder SortOrder
	Limit     int

	// ForceEnrich requests enrichment even without advanced filters.
	// Used by the recommender, which scores on enriched fields.
	ForceEnrich bool
}

// effectiveFilters is the per-market-legal subset of the requested
// filters, with dividend yield already normalized.
type effectiveFilters struct {
	minMarketCap     *float64
	maxPER           *float64
	minDividendYield *float64
	maxRSI           *float64
}

func (f *effectiveFilters) advanced() bool {
	// min_market_cap is never advanced: it is satisfiable from base data.
	return f.maxPER != nil || f.minDividendYield != nil || f.maxRSI != nil
}

func (f *effectiveFilters) applied() []string {
	applied := make([]string, 0, 4)
	if f.minMarketCap != nil {
		applied = append(applied, "min_market_cap")
	}
	if f.maxPER != nil {
		applied = append(applied, "max_per")
	}
	if f.minDividendYield != nil {
		applied = append(applied, "min_dividend_yield")
	}
	if f.maxRSI != nil {
		applied = append(applied, "max_rsi")
	}
	return applied
}

// NormalizeDividendYield interprets user input uniformly across markets:
// values >= 1 are percentages (3.0 → 0.03), values < 1 are already
// decimal fractions.
func NormalizeDividendYield(v float64) float64 {
	if v >= 1 {
		return v / 100
	}
	return v
}

// applyMarketRules enforces the market-specific rule table. Unsupported
// filters are dropped with a warning; the explicitly disallowed
// combinations fail hard with UnsupportedFilterError.
func applyMarketRules(req Request) (effectiveFilters, []string, error) {
	var eff effectiveFilters
	var warnings []string

	switch req.Market {
	case contracts.MarketKR:
		// KR: market_cap, per, dividend_yield, rsi 모두 지원. ETN만 불가.
		if req.AssetType != nil && *req.AssetType == contracts.AssetETN {
			return eff, nil, &contracts.UnsupportedFilterError{Market: req.Market, Filter: "asset_type=etn"}
		}
		eff.minMarketCap = req.MinMarketCap
		eff.maxPER = req.MaxPER
		eff.minDividendYield = normalizePtr(req.MinDividendYield)
		eff.maxRSI = req.MaxRSI

	case contracts.MarketUS:
		eff.minMarketCap = req.MinMarketCap
		eff.maxPER = req.MaxPER
		eff.minDividendYield = normalizePtr(req.MinDividendYield)
		if req.MaxRSI != nil {
			warnings = append(warnings, "max_rsi not supported for us")
		}

	case contracts.MarketCrypto:
		// 크립토는 24시간 거래대금 기준만 지원
		if req.MaxPER != nil {
			return eff, nil, &contracts.UnsupportedFilterError{Market: req.Market, Filter: "max_per"}
		}
		if req.MinDividendYield != nil {
			return eff, nil, &contracts.UnsupportedFilterError{Market: req.Market, Filter: "min_dividend_yield"}
		}
		if req.SortBy == SortByDividendYield {
			return eff, nil, &contracts.UnsupportedFilterError{Market: req.Market, Filter: "sort_by=dividend_yield"}
		}
		if req.MinMarketCap != nil {
			warnings = append(warnings, "min_market_cap not supported for crypto")
		}
		if req.MaxRSI != nil {
			warnings = append(warnings, "max_rsi not supported for crypto")
		}

	default:
		return eff, nil, &contracts.InvalidMarketError{Value: string(req.Market)}
	}

	return eff, warnings, nil
}

func normalizePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := NormalizeDividendYield(*v)
	return &n
}

// enrichmentSubsetSize bounds how many candidates get per-symbol
// enrichment fetches.
func enrichmentSubsetSize(market contracts.Market, candidateCount, limit int) int {
	switch market {
	case contracts.MarketCrypto:
		n := limit * 3
		if n < 30 {
			n = 30
		}
		if n > 60 {
			n = 60
		}
		if n > candidateCount {
			n = candidateCount
		}
		return n
	default:
		n := candidateCount
		if limit*3 < n {
			n = limit * 3
		}
		if n > 150 {
			n = 150
		}
		return n
	}
}

// sortKey extracts the comparable value for one sort field. Candidates
// missing the field sort to the bottom regardless of order.
func sortKey(c *contracts.ScreenCandidate, field SortField) (float64, bool) {
	switch field {
	case SortByVolume:
		return c.Volume, true
	case SortByChangeRate:
		return c.ChangeRate, true
	case SortByMarketCap:
		if c.MarketCap == nil {
			return 0, false
		}
		return *c.MarketCap, true
	case SortByPER:
		if c.PER == nil {
			return 0, false
		}
		return *c.PER, true
	case SortByDividendYield:
		if c.DividendYield == nil {
			return 0, false
		}
		return *c.DividendYield, true
	case SortByScore:
		return c.Score, true
	default:
		return 0, false
	}
}

func describeSort(field SortField, order SortOrder) string {
	return fmt.Sprintf("%s_%s", field, order)
}
