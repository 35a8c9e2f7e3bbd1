package contracts

import "github.com/shopspring/decimal"

// BrokerReference is one named broker's own average price and quantity.
// A broker with no recorded holdings simply does not appear in
// ReferencePrices.Brokers; absence is the "null" representation.
type BrokerReference struct {
	Broker   string          `json:"broker"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReferencePrices is the snapshot of all usable price bases for one
// instrument. Derived, never persisted; recomputed on every request.
type ReferencePrices struct {
	Brokers       []BrokerReference `json:"brokers"`
	CombinedAvg   decimal.Decimal   `json:"combined_avg"`
	HasCombined   bool              `json:"has_combined"`
	TotalQuantity decimal.Decimal   `json:"total_quantity"`
}

// Lookup returns the reference for a named broker.
func (r *ReferencePrices) Lookup(broker string) (BrokerReference, bool) {
	for _, b := range r.Brokers {
		if b.Broker == broker {
			return b, true
		}
	}
	return BrokerReference{}, false
}

// LowestAvg returns the minimum over all per-broker averages.
// The combined average is deliberately not a candidate.
func (r *ReferencePrices) LowestAvg() (decimal.Decimal, bool) {
	var lowest decimal.Decimal
	found := false
	for _, b := range r.Brokers {
		if !found || b.AvgPrice.LessThan(lowest) {
			lowest = b.AvgPrice
			found = true
		}
	}
	return lowest, found
}

// PriceCalculationResult is the output of the price strategy resolver.
// Never persisted.
type PriceCalculationResult struct {
	Price           decimal.Decimal `json:"price"`
	PriceSource     string          `json:"price_source"`
	ReferencePrices ReferencePrices `json:"reference_prices"`
}

// ExpectedProfit is the profit outcome of selling at a given price,
// measured against one reference basis.
type ExpectedProfit struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}
