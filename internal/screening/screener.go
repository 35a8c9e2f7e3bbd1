package screening

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/fanout"
	"github.com/dokyun/folio/pkg/logger"
)

// Result is one screening outcome: best-effort results plus diagnostics.
type Result struct {
	Results        []contracts.ScreenCandidate `json:"results"`
	TotalCount     int                         `json:"total_count"`
	ReturnedCount  int                         `json:"returned_count"`
	FiltersApplied []string                    `json:"filters_applied"`
	Warnings       []string                    `json:"warnings,omitempty"`
	Errors         []contracts.SymbolError     `json:"errors,omitempty"`
}

// Config bounds the enrichment fan-out.
type Config struct {
	EnrichConcurrency int64         // max in-flight enrichment fetches
	EnrichTimeout     time.Duration // whole-batch deadline
	DefaultLimit      int
}

// DefaultConfig returns the standard fan-out bounds.
func DefaultConfig() Config {
	return Config{
		EnrichConcurrency: 10,
		EnrichTimeout:     30 * time.Second,
		DefaultLimit:      20,
	}
}

// Screener filters and ranks a market universe.
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	data   contracts.MarketDataPort
	config Config
	logger *logger.Logger
}

// NewScreener creates a screener over a market data port.
func NewScreener(data contracts.MarketDataPort, config Config, log *logger.Logger) *Screener {
	return &Screener{data: data, config: config, logger: log}
}

// Screen runs one screening call. Per-candidate enrichment failures are
// recovered locally and surfaced in Result.Errors; only transport
// failures on the base universe fetch abort the call.
func (s *Screener) Screen(ctx context.Context, req Request) (*Result, error) {
	if !req.Market.Valid() {
		return nil, &contracts.InvalidMarketError{Value: string(req.Market)}
	}
	if req.Limit <= 0 {
		req.Limit = s.config.DefaultLimit
	}
	if req.SortBy == "" {
		req.SortBy = SortByVolume
	}
	if req.SortOrder == "" {
		req.SortOrder = SortDesc
	}

	eff, warnings, err := applyMarketRules(req)
	if err != nil {
		return nil, err
	}

	candidates, err := s.data.FetchCandidates(ctx, req.Market, contracts.CandidateFilter{
		AssetType: req.AssetType,
		Category:  req.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates for %s: %w", req.Market, err)
	}

	result := &Result{
		FiltersApplied: eff.applied(),
		Warnings:       warnings,
	}

	// 기본 데이터만으로 처리 가능한 필터 먼저
	if eff.minMarketCap != nil {
		candidates = filterCandidates(candidates, func(c *contracts.ScreenCandidate) bool {
			return c.MarketCap != nil && *c.MarketCap >= *eff.minMarketCap
		})
	}

	needsEnrichment := eff.advanced() || req.Market == contracts.MarketCrypto || req.ForceEnrich
	if needsEnrichment && len(candidates) > 0 {
		candidates = s.enrich(ctx, req.Market, candidates, req.Limit, result)
	}

	if eff.maxPER != nil {
		candidates = filterCandidates(candidates, func(c *contracts.ScreenCandidate) bool {
			return c.PER != nil && *c.PER > 0 && *c.PER <= *eff.maxPER
		})
	}
	if eff.minDividendYield != nil {
		candidates = filterCandidates(candidates, func(c *contracts.ScreenCandidate) bool {
			return c.DividendYield != nil && *c.DividendYield >= *eff.minDividendYield
		})
	}
	if eff.maxRSI != nil {
		candidates = filterCandidates(candidates, func(c *contracts.ScreenCandidate) bool {
			return c.RSI != nil && *c.RSI <= *eff.maxRSI
		})
	}

	sortCandidates(candidates, req.SortBy, req.SortOrder)

	result.TotalCount = len(candidates)
	if len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}
	result.Results = candidates
	result.ReturnedCount = len(candidates)

	s.logger.WithFields(map[string]interface{}{
		"market":   req.Market,
		"total":    result.TotalCount,
		"returned": result.ReturnedCount,
		"sort":     describeSort(req.SortBy, req.SortOrder),
		"warnings": len(result.Warnings),
		"errors":   len(result.Errors),
	}).Info("Screening completed")

	return result, nil
}

// enrich fetches advanced fields for a bounded candidate subset with
// bounded concurrency. Failed candidates are dropped from the enriched
// set and recorded per symbol; the batch itself never aborts.
func (s *Screener) enrich(
	ctx context.Context,
	market contracts.Market,
	candidates []contracts.ScreenCandidate,
	limit int,
	result *Result,
) []contracts.ScreenCandidate {
	subset := enrichmentSubsetSize(market, len(candidates), limit)
	candidates = candidates[:subset]

	codes := make([]string, subset)
	byCode := make(map[string]int, subset)
	for i := range candidates {
		codes[i] = candidates[i].Code
		byCode[candidates[i].Code] = i
	}

	batch := fanout.Map(ctx, codes, s.config.EnrichConcurrency, s.config.EnrichTimeout,
		func(ctx context.Context, code string) (*contracts.Enrichment, error) {
			return s.data.FetchEnrichment(ctx, code, market)
		})

	for _, failed := range batch.Failed {
		result.Errors = append(result.Errors, contracts.SymbolError{
			Symbol: failed.Key,
			Err:    failed.Err.Error(),
		})
	}

	enriched := make([]contracts.ScreenCandidate, 0, len(batch.OK))
	for _, code := range codes {
		e, ok := batch.OK[code]
		if !ok {
			continue
		}
		c := candidates[byCode[code]]
		mergeEnrichment(&c, e)
		if market == contracts.MarketCrypto {
			c.Score, _ = CryptoScore(e)
		}
		enriched = append(enriched, c)
	}

	if len(batch.Failed) > 0 {
		s.logger.WithFields(map[string]interface{}{
			"market":  market,
			"subset":  subset,
			"failed":  len(batch.Failed),
			"enriched": len(enriched),
		}).Warn("Enrichment batch finished with partial failures")
	}

	return enriched
}

func mergeEnrichment(c *contracts.ScreenCandidate, e *contracts.Enrichment) {
	if e == nil {
		return
	}
	if c.PER == nil {
		c.PER = e.PER
	}
	if c.PBR == nil {
		c.PBR = e.PBR
	}
	if c.DividendYield == nil {
		c.DividendYield = e.DividendYield
	}
	if c.RSI == nil {
		c.RSI = e.RSI
	}
}

func filterCandidates(
	candidates []contracts.ScreenCandidate,
	keep func(*contracts.ScreenCandidate) bool,
) []contracts.ScreenCandidate {
	out := candidates[:0]
	for i := range candidates {
		if keep(&candidates[i]) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// sortCandidates orders by the sort field with the original candidate
// order as tie-break; candidates missing the field go last.
func sortCandidates(candidates []contracts.ScreenCandidate, field SortField, order SortOrder) {
	sort.SliceStable(candidates, func(i, j int) bool {
		vi, oki := sortKey(&candidates[i], field)
		vj, okj := sortKey(&candidates[j], field)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if order == SortAsc {
			return vi < vj
		}
		return vi > vj
	})
}
