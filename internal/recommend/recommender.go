package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/screening"
	"github.com/dokyun/folio/pkg/logger"
)

// Request is one recommendation call.
type Request struct {
	Budget         float64
	Market         contracts.Market
	Strategy       Strategy
	ExcludeSymbols []string
	Sectors        []string
	MaxPositions   int
}

// Result is the ranked, budget-allocated pick list plus run diagnostics.
type Result struct {
	Recommendations []contracts.Recommendation     `json:"recommendations"`
	Diagnostics     contracts.RecommendDiagnostics `json:"diagnostics"`
}

// Config bounds the candidate universe pulled per screening stage.
type Config struct {
	UniverseLimit int
	MaxPositions  int // default when the request leaves it unset
}

// DefaultConfig returns the standard recommendation bounds.
func DefaultConfig() Config {
	return Config{
		UniverseLimit: 30,
		MaxPositions:  5,
	}
}

// Recommender turns a screened universe into budget-allocated picks.
// ⭐ SSOT: 추천 로직은 여기서만
type Recommender struct {
	screener *screening.Screener
	config   Config
	logger   *logger.Logger
}

// NewRecommender creates a recommender over a screener.
func NewRecommender(screener *screening.Screener, config Config, log *logger.Logger) *Recommender {
	return &Recommender{screener: screener, config: config, logger: log}
}

// candidate carries a pool entry through scoring and allocation.
type candidate struct {
	contracts.ScreenCandidate
	score  float64
	reason string
}

// Recommend runs the strict stage, the relaxed fallback stage for
// value/dividend when the strict pool is short, then scores, ranks and
// allocates the budget.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Result, error) {
	if !req.Market.Valid() {
		return nil, &contracts.InvalidMarketError{Value: string(req.Market)}
	}
	if !req.Strategy.Valid() {
		return nil, &contracts.InvalidStrategyError{Value: string(req.Strategy)}
	}
	if req.Budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %v", req.Budget)
	}
	if req.MaxPositions <= 0 {
		req.MaxPositions = r.config.MaxPositions
	}

	strict, relaxed, twoStage := stageThresholds(req.Strategy)
	result := &Result{}

	pool, err := r.screenStage(ctx, req, strict, result)
	if err != nil {
		return nil, err
	}
	result.Diagnostics.StrictCount = len(pool)
	candidates := r.scorePool(req, pool, false)

	// 2단계 완화: strict 후보가 max_positions 미만일 때만
	if twoStage && len(pool) < req.MaxPositions {
		result.Diagnostics.FallbackApplied = true
		added, err := r.fallbackStage(ctx, req, relaxed, pool, result)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, added...)
		result.Diagnostics.FallbackAdded = len(added)
	}

	countMissing(candidates, &result.Diagnostics)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > req.MaxPositions {
		candidates = candidates[:req.MaxPositions]
	}

	result.Recommendations = r.allocateBudget(req.Budget, candidates)

	r.logger.WithFields(map[string]interface{}{
		"market":           req.Market,
		"strategy":         req.Strategy,
		"budget":           req.Budget,
		"strict_count":     result.Diagnostics.StrictCount,
		"fallback_applied": result.Diagnostics.FallbackApplied,
		"fallback_added":   result.Diagnostics.FallbackAdded,
		"recommended":      len(result.Recommendations),
	}).Info("Recommendation completed")

	return result, nil
}

// screenStage runs one screening pass with the stage's thresholds and
// applies the request-level exclusions plus the PER/PBR policy the
// screener cannot express (missing values stay in, over-threshold
// values drop out).
func (r *Recommender) screenStage(
	ctx context.Context,
	req Request,
	th thresholds,
	result *Result,
) ([]contracts.ScreenCandidate, error) {
	screenResult, err := r.screener.Screen(ctx, screening.Request{
		Market:           req.Market,
		MinMarketCap:     th.minMarketCap,
		MinDividendYield: th.minDividendYield,
		SortBy:           screening.SortByVolume,
		SortOrder:        screening.SortDesc,
		Limit:            r.config.UniverseLimit,
		ForceEnrich:      true,
	})
	if err != nil {
		return nil, err
	}

	result.Diagnostics.Errors = append(result.Diagnostics.Errors, screenResult.Errors...)
	result.Diagnostics.Warnings = append(result.Diagnostics.Warnings, screenResult.Warnings...)

	excluded := toSet(req.ExcludeSymbols)
	sectors := toSet(req.Sectors)

	pool := make([]contracts.ScreenCandidate, 0, len(screenResult.Results))
	for _, c := range screenResult.Results {
		if excluded[strings.ToUpper(c.Code)] {
			continue
		}
		if len(sectors) > 0 && !sectors[strings.ToUpper(c.Sector)] {
			continue
		}
		// 결측 PER/PBR은 통과(감점은 스코어링에서), 초과·적자는 탈락
		if th.maxPER != nil && c.PER != nil && (*c.PER <= 0 || *c.PER > *th.maxPER) {
			continue
		}
		if th.maxPBR != nil && c.PBR != nil && (*c.PBR <= 0 || *c.PBR > *th.maxPBR) {
			continue
		}
		pool = append(pool, c)
	}
	return pool, nil
}

// fallbackStage screens with relaxed thresholds and returns only enough
// new symbols to fill the remaining slots, ranked by score.
func (r *Recommender) fallbackStage(
	ctx context.Context,
	req Request,
	th thresholds,
	strictPool []contracts.ScreenCandidate,
	result *Result,
) ([]candidate, error) {
	relaxedPool, err := r.screenStage(ctx, req, th, result)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(strictPool))
	for _, c := range strictPool {
		seen[c.Code] = true
	}

	fresh := make([]contracts.ScreenCandidate, 0, len(relaxedPool))
	for _, c := range relaxedPool {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		fresh = append(fresh, c)
	}

	// 빈 자리만큼만, 점수순으로 채움
	scored := r.scorePool(req, fresh, true)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	slots := req.MaxPositions - len(strictPool)
	if slots > len(scored) {
		slots = len(scored)
	}
	return scored[:slots], nil
}

// scorePool computes composite scores for a pool. Crypto candidates
// keep the screener's composite score; other markets use the
// strategy's weighted factors.
func (r *Recommender) scorePool(req Request, pool []contracts.ScreenCandidate, fallback bool) []candidate {
	var maxVolume float64
	for _, c := range pool {
		if c.Volume > maxVolume {
			maxVolume = c.Volume
		}
	}

	candidates := make([]candidate, 0, len(pool))
	for _, c := range pool {
		entry := candidate{ScreenCandidate: c}
		if req.Market == contracts.MarketCrypto {
			entry.score = c.Score
			entry.reason = fmt.Sprintf("%s strategy: crypto composite score %.1f", req.Strategy, c.Score)
		} else {
			score, parts := scoreCandidate(&c, req.Strategy, maxVolume)
			entry.score = score
			entry.reason = reason(req.Strategy, parts, fallback)
		}
		candidates = append(candidates, entry)
	}
	return candidates
}

// allocateBudget converts ranked candidates into integer-quantity
// recommendations whose amounts never exceed the budget.
func (r *Recommender) allocateBudget(budget float64, candidates []candidate) []contracts.Recommendation {
	prices := make([]decimal.Decimal, len(candidates))
	for i, c := range candidates {
		prices[i] = decimal.NewFromFloat(c.Close)
	}

	allocations := allocate(decimal.NewFromFloat(budget), prices)
	recommendations := make([]contracts.Recommendation, 0, len(allocations))
	for _, a := range allocations {
		c := candidates[a.index]
		recommendations = append(recommendations, contracts.Recommendation{
			Symbol:        c.Code,
			Name:          c.Name,
			Price:         c.Close,
			Quantity:      a.quantity,
			Amount:        a.amount.InexactFloat64(),
			Score:         c.score,
			Reason:        c.reason,
			PER:           c.PER,
			PBR:           c.PBR,
			DividendYield: c.DividendYield,
			RSI:           c.RSI,
		})
	}
	return recommendations
}

func countMissing(candidates []candidate, diag *contracts.RecommendDiagnostics) {
	for _, c := range candidates {
		if c.PER == nil {
			diag.MissingPER++
		}
		if c.PBR == nil {
			diag.MissingPBR++
		}
		if c.DividendYield == nil {
			diag.MissingDividend++
		}
	}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = true
	}
	return set
}
