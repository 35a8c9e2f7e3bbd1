package recommend

import "github.com/shopspring/decimal"

// allocation is one candidate's budget assignment.
type allocation struct {
	index    int // position in the ranked pick list
	quantity int64
	amount   decimal.Decimal
}

var one = decimal.NewFromInt(1)

// allocate distributes the budget over ranked prices: each pick draws
// whole units from an even share of the budget (capped by what is still
// unspent), then a single top-up pass gives any leftover to the
// top-ranked pick if it affords whole units. Decimal arithmetic keeps
// Σamount ≤ budget exact.
// ⭐ SSOT: 예산 배분 계산은 여기서만
func allocate(budget decimal.Decimal, prices []decimal.Decimal) []allocation {
	if len(prices) == 0 {
		return nil
	}

	remaining := budget
	share := budget.Div(decimal.NewFromInt(int64(len(prices))))
	allocations := make([]allocation, 0, len(prices))

	for i, price := range prices {
		if price.LessThanOrEqual(decimal.Zero) {
			continue
		}
		ceiling := share
		if remaining.LessThan(ceiling) {
			ceiling = remaining
		}
		quantity := wholeUnits(ceiling, price)
		if quantity.LessThanOrEqual(decimal.Zero) {
			continue
		}
		amount := price.Mul(quantity)
		remaining = remaining.Sub(amount)
		allocations = append(allocations, allocation{
			index:    i,
			quantity: quantity.IntPart(),
			amount:   amount,
		})
	}

	// 남은 예산은 1순위 종목에 한 번만 추가 배분
	if len(allocations) > 0 && remaining.GreaterThan(decimal.Zero) {
		top := &allocations[0]
		price := prices[top.index]
		extra := wholeUnits(remaining, price)
		if extra.GreaterThanOrEqual(one) {
			amount := price.Mul(extra)
			top.quantity += extra.IntPart()
			top.amount = top.amount.Add(amount)
			remaining = remaining.Sub(amount)
		}
	}

	return allocations
}

// wholeUnits is floor(ceiling / price) guarded against the division
// rounding up in its last kept digit.
func wholeUnits(ceiling, price decimal.Decimal) decimal.Decimal {
	quantity := ceiling.Div(price).Floor()
	for quantity.GreaterThan(decimal.Zero) && price.Mul(quantity).GreaterThan(ceiling) {
		quantity = quantity.Sub(one)
	}
	return quantity
}
