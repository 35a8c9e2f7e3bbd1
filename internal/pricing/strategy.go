package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
)

// BuyStrategyKind enumerates the closed set of buy-side pricing strategies.
type BuyStrategyKind string

const (
	BuyCurrent            BuyStrategyKind = "current"
	BuyBrokerAvg          BuyStrategyKind = "broker_avg"
	BuyCombinedAvg        BuyStrategyKind = "combined_avg"
	BuyLowestAvg          BuyStrategyKind = "lowest_avg"
	BuyLowestMinusPercent BuyStrategyKind = "lowest_minus_percent"
	BuyManual             BuyStrategyKind = "manual"
)

// BuyStrategy is a buy-side strategy selector. Broker is set only for
// the broker_avg kind.
type BuyStrategy struct {
	Kind   BuyStrategyKind
	Broker string
}

// ParseBuyStrategy converts a selector string ("current", "kis_avg",
// "combined_avg", "lowest_avg", "lowest_minus_percent", "manual") into a
// BuyStrategy. Unknown selectors fail with InvalidStrategyError.
func ParseBuyStrategy(s string) (BuyStrategy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "current":
		return BuyStrategy{Kind: BuyCurrent}, nil
	case "combined_avg":
		return BuyStrategy{Kind: BuyCombinedAvg}, nil
	case "lowest_avg":
		return BuyStrategy{Kind: BuyLowestAvg}, nil
	case "lowest_minus_percent":
		return BuyStrategy{Kind: BuyLowestMinusPercent}, nil
	case "manual":
		return BuyStrategy{Kind: BuyManual}, nil
	}

	// "<broker>_avg" 형태
	if broker, ok := strings.CutSuffix(v, "_avg"); ok && broker != "" {
		return BuyStrategy{Kind: BuyBrokerAvg, Broker: broker}, nil
	}

	return BuyStrategy{}, &contracts.InvalidStrategyError{Value: s}
}

// SellStrategyKind enumerates the closed set of sell-side pricing strategies.
type SellStrategyKind string

const (
	SellCurrent         SellStrategyKind = "current"
	SellBrokerAvgPlus   SellStrategyKind = "broker_avg_plus"
	SellCombinedAvgPlus SellStrategyKind = "combined_avg_plus"
	SellManual          SellStrategyKind = "manual"
)

// SellStrategy is a sell-side strategy selector.
type SellStrategy struct {
	Kind   SellStrategyKind
	Broker string
}

// ParseSellStrategy converts a selector string ("current", "kis_avg_plus",
// "combined_avg_plus", "manual") into a SellStrategy.
func ParseSellStrategy(s string) (SellStrategy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "current":
		return SellStrategy{Kind: SellCurrent}, nil
	case "combined_avg_plus":
		return SellStrategy{Kind: SellCombinedAvgPlus}, nil
	case "manual":
		return SellStrategy{Kind: SellManual}, nil
	}

	if broker, ok := strings.CutSuffix(v, "_avg_plus"); ok && broker != "" {
		return SellStrategy{Kind: SellBrokerAvgPlus, Broker: broker}, nil
	}

	return SellStrategy{}, &contracts.InvalidStrategyError{Value: s}
}

// Resolver converts a pricing strategy plus live reference prices into a
// concrete order price. ⭐ SSOT: 주문 가격 결정 로직은 여기서만
//
// Rounding policy: all computed prices round to Precision decimal places
// with round-half-up (decimal.Round, half away from zero, identical for
// positive prices). This policy is fixed because it feeds order placement.
type Resolver struct {
	precision int32
}

// DefaultPrecision is the order-price precision in decimal places.
const DefaultPrecision = 2

// DefaultSellProfitPercent is the markup applied by the *_plus sell
// strategies when the caller does not pick one. Callers that carry an
// optional profit field fall back to this, not to 0.
const DefaultSellProfitPercent = 5.0

// NewResolver creates a resolver with the given price precision.
func NewResolver(precision int32) *Resolver {
	return &Resolver{precision: precision}
}

// NewDefaultResolver creates a resolver at the default 2-decimal precision.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultPrecision)
}

var oneHundred = decimal.NewFromInt(100)

// CalculateBuyPrice resolves a buy order price. A missing named reference
// fails with MissingReferenceError; the caller must never substitute
// another basis silently.
func (r *Resolver) CalculateBuyPrice(
	ref contracts.ReferencePrices,
	currentPrice decimal.Decimal,
	strategy BuyStrategy,
	discountPercent decimal.Decimal,
	manualPrice *decimal.Decimal,
) (*contracts.PriceCalculationResult, error) {
	var price decimal.Decimal
	var source string

	switch strategy.Kind {
	case BuyCurrent:
		price = currentPrice
		source = "current price"

	case BuyBrokerAvg:
		b, ok := ref.Lookup(strategy.Broker)
		if !ok {
			return nil, &contracts.MissingReferenceError{Basis: strategy.Broker + "_avg"}
		}
		price = b.AvgPrice
		source = fmt.Sprintf("%s average", strategy.Broker)

	case BuyCombinedAvg:
		if !ref.HasCombined {
			return nil, &contracts.MissingReferenceError{Basis: "combined_avg"}
		}
		price = ref.CombinedAvg
		source = "combined average"

	case BuyLowestAvg:
		lowest, ok := ref.LowestAvg()
		if !ok {
			return nil, &contracts.MissingReferenceError{Basis: "lowest_avg"}
		}
		price = lowest
		source = "lowest average"

	case BuyLowestMinusPercent:
		lowest, ok := ref.LowestAvg()
		if !ok {
			return nil, &contracts.MissingReferenceError{Basis: "lowest_avg"}
		}
		factor := decimal.NewFromInt(1).Sub(discountPercent.Div(oneHundred))
		price = lowest.Mul(factor)
		source = fmt.Sprintf("lowest average -%s%%", discountPercent)

	case BuyManual:
		p, err := requireManualPrice(manualPrice)
		if err != nil {
			return nil, err
		}
		price = p
		source = "manual"

	default:
		return nil, &contracts.InvalidStrategyError{Value: string(strategy.Kind)}
	}

	return &contracts.PriceCalculationResult{
		Price:           price.Round(r.precision),
		PriceSource:     source,
		ReferencePrices: ref,
	}, nil
}

// CalculateSellPrice resolves a sell order price. The *_plus strategies
// mark the reference up by profitPercent.
func (r *Resolver) CalculateSellPrice(
	ref contracts.ReferencePrices,
	currentPrice decimal.Decimal,
	strategy SellStrategy,
	profitPercent decimal.Decimal,
	manualPrice *decimal.Decimal,
) (*contracts.PriceCalculationResult, error) {
	var price decimal.Decimal
	var source string

	markup := decimal.NewFromInt(1).Add(profitPercent.Div(oneHundred))

	switch strategy.Kind {
	case SellCurrent:
		price = currentPrice
		source = "current price"

	case SellBrokerAvgPlus:
		b, ok := ref.Lookup(strategy.Broker)
		if !ok {
			return nil, &contracts.MissingReferenceError{Basis: strategy.Broker + "_avg"}
		}
		price = b.AvgPrice.Mul(markup)
		source = fmt.Sprintf("%s average +%s%%", strategy.Broker, profitPercent)

	case SellCombinedAvgPlus:
		if !ref.HasCombined {
			return nil, &contracts.MissingReferenceError{Basis: "combined_avg"}
		}
		price = ref.CombinedAvg.Mul(markup)
		source = fmt.Sprintf("combined average +%s%%", profitPercent)

	case SellManual:
		p, err := requireManualPrice(manualPrice)
		if err != nil {
			return nil, err
		}
		price = p
		source = "manual"

	default:
		return nil, &contracts.InvalidStrategyError{Value: string(strategy.Kind)}
	}

	return &contracts.PriceCalculationResult{
		Price:           price.Round(r.precision),
		PriceSource:     source,
		ReferencePrices: ref,
	}, nil
}

func requireManualPrice(manualPrice *decimal.Decimal) (decimal.Decimal, error) {
	if manualPrice == nil {
		return decimal.Zero, &contracts.InvalidManualPriceError{Reason: "price is required"}
	}
	if manualPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, &contracts.InvalidManualPriceError{Reason: "price must be positive"}
	}
	return *manualPrice, nil
}
