package contracts

// Recommendation is one budget-allocated pick.
type Recommendation struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Amount   float64 `json:"amount"`
	Score    float64 `json:"score"` // 0..100
	Reason   string  `json:"reason"`

	PER           *float64 `json:"per,omitempty"`
	PBR           *float64 `json:"pbr,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	RSI           *float64 `json:"rsi,omitempty"`
}

// RecommendDiagnostics is the run-level metadata returned next to the
// recommendation list. Batch operations always return best-effort
// results plus diagnostics, never a hard abort on per-symbol failure.
type RecommendDiagnostics struct {
	FallbackApplied bool          `json:"fallback_applied"`
	FallbackAdded   int           `json:"fallback_added"`
	StrictCount     int           `json:"strict_count"`
	MissingPER      int           `json:"missing_per"`
	MissingPBR      int           `json:"missing_pbr"`
	MissingDividend int           `json:"missing_dividend"`
	Errors          []SymbolError `json:"errors,omitempty"`
	Warnings        []string      `json:"warnings,omitempty"`
}
