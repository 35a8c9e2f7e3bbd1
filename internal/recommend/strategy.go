package recommend

import (
	"strings"

	"github.com/dokyun/folio/internal/contracts"
)

// Strategy selects the factor weighting of a recommendation run.
type Strategy string

const (
	StrategyBalanced Strategy = "balanced"
	StrategyGrowth   Strategy = "growth"
	StrategyValue    Strategy = "value"
	StrategyDividend Strategy = "dividend"
	StrategyMomentum Strategy = "momentum"
)

// ParseStrategy maps a raw strategy string onto the closed enum.
func ParseStrategy(s string) (Strategy, error) {
	strategy := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategy.Valid() {
		return "", &contracts.InvalidStrategyError{Value: s}
	}
	return strategy, nil
}

// Valid reports whether the strategy is one of the known five.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyBalanced, StrategyGrowth, StrategyValue, StrategyDividend, StrategyMomentum:
		return true
	}
	return false
}

// factorWeights sum to 1.0 per strategy.
type factorWeights struct {
	rsi       float64
	valuation float64
	momentum  float64
	volume    float64
	dividend  float64
}

// ⭐ SSOT: 전략별 팩터 가중치는 여기서만 정의
var strategyWeights = map[Strategy]factorWeights{
	StrategyBalanced: {rsi: 0.20, valuation: 0.25, momentum: 0.20, volume: 0.15, dividend: 0.20},
	StrategyGrowth:   {rsi: 0.20, valuation: 0.10, momentum: 0.40, volume: 0.25, dividend: 0.05},
	StrategyValue:    {rsi: 0.15, valuation: 0.45, momentum: 0.10, volume: 0.10, dividend: 0.20},
	StrategyDividend: {rsi: 0.10, valuation: 0.20, momentum: 0.10, volume: 0.15, dividend: 0.45},
	StrategyMomentum: {rsi: 0.15, valuation: 0.10, momentum: 0.45, volume: 0.25, dividend: 0.05},
}

// Score penalties for value-strategy candidates missing valuation data.
// 결측 데이터는 제외하지 않고 감점 처리
const (
	missingPERPenalty = 12.0
	missingPBRPenalty = 8.0
)

// thresholds is one screening stage's cut-off set. Nil fields are
// unconstrained. maxPBR is enforced by the recommender itself since the
// screener has no PBR filter.
type thresholds struct {
	maxPER           *float64
	maxPBR           *float64
	minMarketCap     *float64
	minDividendYield *float64 // percent, normalized downstream
}

var (
	valueStrict     = thresholds{maxPER: f(20), maxPBR: f(1.5), minMarketCap: f(300)}
	valueRelaxed    = thresholds{maxPER: f(25), maxPBR: f(2.0), minMarketCap: f(200)}
	dividendStrict  = thresholds{minDividendYield: f(1.5), minMarketCap: f(300)}
	dividendRelaxed = thresholds{minDividendYield: f(1.0), minMarketCap: f(200)}
)

// stageThresholds returns the strict and relaxed cut-offs for strategies
// that use two-stage relaxation; other strategies screen unconstrained.
func stageThresholds(s Strategy) (strict, relaxed thresholds, twoStage bool) {
	switch s {
	case StrategyValue:
		return valueStrict, valueRelaxed, true
	case StrategyDividend:
		return dividendStrict, dividendRelaxed, true
	default:
		return thresholds{}, thresholds{}, false
	}
}

func f(v float64) *float64 { return &v }
