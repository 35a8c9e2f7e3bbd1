package position

import (
	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
)

// Aggregate merges per-broker holdings of one instrument into a single
// quantity-weighted average cost. Pure function; all arithmetic is exact
// decimal so a single holding passes through without rounding drift.
// ⭐ SSOT: 통합 평단가 계산은 여기서만
//
// An instrument with zero aggregate quantity is a valid result: both the
// average and the quantity come back zero, never an error.
func Aggregate(holdings []contracts.HoldingInfo) (combinedAvg, totalQty decimal.Decimal) {
	totalQty = decimal.Zero
	totalCost := decimal.Zero

	for _, h := range holdings {
		totalQty = totalQty.Add(h.Quantity)
		totalCost = totalCost.Add(h.Quantity.Mul(h.AvgPrice))
	}

	if totalQty.IsZero() {
		return decimal.Zero, decimal.Zero
	}

	return totalCost.Div(totalQty), totalQty
}

// BuildReferencePrices builds the full price-basis snapshot from broker
// holdings: each named broker's own average and quantity alongside the
// combined figure. Brokers with zero quantity carry no usable average
// and are left out of the per-broker list.
func BuildReferencePrices(holdings []contracts.HoldingInfo) contracts.ReferencePrices {
	ref := contracts.ReferencePrices{
		Brokers: make([]contracts.BrokerReference, 0, len(holdings)),
	}

	for _, h := range holdings {
		if h.Quantity.IsZero() {
			continue
		}
		ref.Brokers = append(ref.Brokers, contracts.BrokerReference{
			Broker:   h.Broker,
			AvgPrice: h.AvgPrice,
			Quantity: h.Quantity,
		})
	}

	combined, total := Aggregate(holdings)
	ref.TotalQuantity = total
	if !total.IsZero() {
		ref.CombinedAvg = combined
		ref.HasCombined = true
	}

	return ref
}
