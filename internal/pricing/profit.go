package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
)

// CalculateExpectedProfit computes the profit outcome of selling at
// sellPrice, measured against every usable reference basis: each
// per-broker average plus the combined average. Bases with a missing or
// non-positive reference price are omitted from the result map, never
// represented as zero.
func (r *Resolver) CalculateExpectedProfit(
	quantity decimal.Decimal,
	sellPrice decimal.Decimal,
	ref contracts.ReferencePrices,
) map[string]contracts.ExpectedProfit {
	result := make(map[string]contracts.ExpectedProfit, len(ref.Brokers)+1)

	for _, b := range ref.Brokers {
		if b.AvgPrice.LessThanOrEqual(decimal.Zero) {
			continue
		}
		key := fmt.Sprintf("based_on_%s_avg", b.Broker)
		result[key] = r.expectedProfit(quantity, sellPrice, b.AvgPrice)
	}

	if ref.HasCombined && ref.CombinedAvg.GreaterThan(decimal.Zero) {
		result["based_on_combined_avg"] = r.expectedProfit(quantity, sellPrice, ref.CombinedAvg)
	}

	return result
}

func (r *Resolver) expectedProfit(quantity, sellPrice, refPrice decimal.Decimal) contracts.ExpectedProfit {
	diff := sellPrice.Sub(refPrice)
	return contracts.ExpectedProfit{
		Amount:  diff.Mul(quantity).Round(r.precision),
		Percent: diff.Div(refPrice).Mul(oneHundred).Round(r.precision),
	}
}
