package contracts

import "fmt"

// Domain error taxonomy.
// 설정/선택 오류는 호출자에게 즉시 전파, 절대 기본값으로 대체하지 않음.

// MissingReferenceError reports that a named price basis was requested
// but no value is available for it (e.g. no holdings at that broker).
type MissingReferenceError struct {
	Basis string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("reference price not available for basis %q", e.Basis)
}

// InvalidManualPriceError reports a manual price that is absent or non-positive.
type InvalidManualPriceError struct {
	Reason string
}

func (e *InvalidManualPriceError) Error() string {
	return fmt.Sprintf("invalid manual price: %s", e.Reason)
}

// SellQuantityErrorKind distinguishes the two sell-quantity failure modes.
type SellQuantityErrorKind string

const (
	SellQuantityNone        SellQuantityErrorKind = "no_quantity"
	SellQuantityExceeded    SellQuantityErrorKind = "exceeds_available"
	SellQuantityNonPositive SellQuantityErrorKind = "non_positive"
)

// SellQuantityError reports a sell request that cannot be executed against
// the executable broker's own quantity, regardless of the combined quantity
// across all brokers.
type SellQuantityError struct {
	Kind      SellQuantityErrorKind
	Available int64
	Requested int64
}

func (e *SellQuantityError) Error() string {
	switch e.Kind {
	case SellQuantityNone:
		return fmt.Sprintf("no quantity available to sell (requested %d)", e.Requested)
	case SellQuantityNonPositive:
		return fmt.Sprintf("sell quantity must be positive (requested %d)", e.Requested)
	default:
		return fmt.Sprintf("requested quantity %d exceeds available quantity %d", e.Requested, e.Available)
	}
}

// UnsupportedFilterError reports a market+filter combination that is a hard
// error rather than an ignorable one (e.g. crypto + PER).
type UnsupportedFilterError struct {
	Market Market
	Filter string
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("filter %q is not supported for market %s", e.Filter, e.Market)
}

// InvalidMarketError reports an unknown market string.
type InvalidMarketError struct {
	Value string
}

func (e *InvalidMarketError) Error() string {
	return fmt.Sprintf("invalid market: %q", e.Value)
}

// InvalidStrategyError reports an unknown pricing or recommendation strategy.
type InvalidStrategyError struct {
	Value string
}

func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid strategy: %q", e.Value)
}

// SymbolError pairs one candidate symbol with the error that excluded it
// from a batch. Batch operations collect these instead of aborting.
type SymbolError struct {
	Symbol string `json:"symbol"`
	Err    string `json:"error"`
}
