// Package external wires the market data adapters (KIS, Upbit, Naver)
// behind the engine's port interfaces, with read-through caching.
package external

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/external/kis"
	"github.com/dokyun/folio/internal/external/naver"
	"github.com/dokyun/folio/internal/external/upbit"
	"github.com/dokyun/folio/internal/indicator"
	"github.com/dokyun/folio/pkg/cache"
	"github.com/dokyun/folio/pkg/config"
	"github.com/dokyun/folio/pkg/logger"
)

// maxUniverseFetch is the per-market universe size fetched and cached;
// callers narrow with CandidateFilter.Count after the cache.
const maxUniverseFetch = 100

// Provider routes market data calls to the adapter that serves each
// market: KIS for KR/US quotes, Naver for the KR universe and
// fundamentals, Upbit for crypto.
// ⭐ SSOT: 시장별 데이터 라우팅은 여기서만
type Provider struct {
	kis   *kis.Client
	upbit *upbit.Client
	naver *naver.Client

	cache  *cache.ReadThrough
	logger *logger.Logger

	quoteTTL      time.Duration
	candidateTTL  time.Duration
	enrichmentTTL time.Duration
}

// NewProvider wires the three adapters with the engine cache policy.
func NewProvider(
	kisClient *kis.Client,
	upbitClient *upbit.Client,
	naverClient *naver.Client,
	store *cache.ReadThrough,
	engine config.EngineConfig,
	log *logger.Logger,
) *Provider {
	quoteTTL := engine.QuoteCacheTTL
	if quoteTTL <= 0 {
		quoteTTL = cache.TTLShort
	}
	candidateTTL := engine.CandidateCacheTTL
	if candidateTTL <= 0 {
		candidateTTL = cache.TTLMedium
	}

	return &Provider{
		kis:           kisClient,
		upbit:         upbitClient,
		naver:         naverClient,
		cache:         store,
		logger:        log,
		quoteTTL:      quoteTTL,
		candidateTTL:  candidateTTL,
		enrichmentTTL: candidateTTL,
	}
}

var _ contracts.MarketDataPort = (*Provider)(nil)

// FetchQuote returns the current price of one instrument, serving
// repeat lookups from the quote cache.
func (p *Provider) FetchQuote(ctx context.Context, ticker string, market contracts.Market) (decimal.Decimal, error) {
	key := cache.QuoteKey(string(market), ticker)

	var price decimal.Decimal
	err := p.cache.GetOrFetch(ctx, key, &price, p.quoteTTL, func(ctx context.Context) (interface{}, error) {
		switch market {
		case contracts.MarketKR:
			return p.kis.GetQuote(ctx, ticker)
		case contracts.MarketUS:
			return p.kis.GetOverseasQuote(ctx, ticker)
		case contracts.MarketCrypto:
			return p.upbit.GetQuote(ctx, ticker)
		default:
			return nil, fmt.Errorf("unsupported market %s", market)
		}
	})
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// FetchCandidates returns the base screening universe for a market.
// The full universe is cached per market and category; Count narrows
// the result after the cache so different limits share one fetch.
func (p *Provider) FetchCandidates(ctx context.Context, market contracts.Market, filter contracts.CandidateFilter) ([]contracts.ScreenCandidate, error) {
	key := cache.CandidatesKey(string(market), filter.Category)

	var candidates []contracts.ScreenCandidate
	err := p.cache.GetOrFetch(ctx, key, &candidates, p.candidateTTL, func(ctx context.Context) (interface{}, error) {
		switch market {
		case contracts.MarketKR:
			return p.fetchKRCandidates(ctx, filter.Category)
		case contracts.MarketUS:
			return p.kis.GetUSCandidates(ctx, maxUniverseFetch)
		case contracts.MarketCrypto:
			return p.upbit.GetCandidates(ctx)
		default:
			return nil, fmt.Errorf("unsupported market %s", market)
		}
	})
	if err != nil {
		return nil, err
	}

	if filter.Count > 0 && len(candidates) > filter.Count {
		candidates = candidates[:filter.Count]
	}
	return candidates, nil
}

// fetchKRCandidates merges the KOSPI and KOSDAQ universes unless a
// single exchange is requested as the category.
func (p *Provider) fetchKRCandidates(ctx context.Context, category string) ([]contracts.ScreenCandidate, error) {
	exchanges := []string{naver.ExchangeKOSPI, naver.ExchangeKOSDAQ}
	if category != "" {
		exchanges = []string{strings.ToUpper(category)}
	}

	var merged []contracts.ScreenCandidate
	for _, exchange := range exchanges {
		batch, err := p.naver.GetCandidates(ctx, exchange, 0)
		if err != nil {
			return nil, fmt.Errorf("kr candidates %s: %w", exchange, err)
		}
		merged = append(merged, batch...)
	}
	return merged, nil
}

// FetchEnrichment returns the per-candidate advanced fields.
//
// KR combines Naver fundamentals with KIS daily candles; US combines
// KIS fundamentals with its own candle history; crypto has technical
// fields only. A failed KR fundamentals scrape degrades to technicals
// so one flaky page does not drop the candidate.
func (p *Provider) FetchEnrichment(ctx context.Context, ticker string, market contracts.Market) (*contracts.Enrichment, error) {
	key := cache.EnrichmentKey(string(market), ticker)

	var enrichment contracts.Enrichment
	err := p.cache.GetOrFetch(ctx, key, &enrichment, p.enrichmentTTL, func(ctx context.Context) (interface{}, error) {
		switch market {
		case contracts.MarketKR:
			return p.fetchKREnrichment(ctx, ticker)
		case contracts.MarketUS:
			return p.fetchUSEnrichment(ctx, ticker)
		case contracts.MarketCrypto:
			return p.upbit.GetEnrichment(ctx, ticker)
		default:
			return nil, fmt.Errorf("unsupported market %s", market)
		}
	})
	if err != nil {
		return nil, err
	}
	return &enrichment, nil
}

func (p *Provider) fetchKREnrichment(ctx context.Context, ticker string) (*contracts.Enrichment, error) {
	candles, err := p.kis.GetDailyCandles(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("kr candles for %s: %w", ticker, err)
	}

	enrichment := indicator.FromCandles(candles)

	fundamentals, err := p.naver.GetFundamentals(ctx, ticker)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("KR fundamentals unavailable, serving technicals only")
	} else {
		enrichment.PER = fundamentals.PER
		enrichment.PBR = fundamentals.PBR
		enrichment.DividendYield = fundamentals.DividendYield
	}
	return &enrichment, nil
}

func (p *Provider) fetchUSEnrichment(ctx context.Context, ticker string) (*contracts.Enrichment, error) {
	fundamentals, candles, err := p.kis.GetUSEnrichment(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("us enrichment for %s: %w", ticker, err)
	}

	enrichment := indicator.FromCandles(candles)
	enrichment.PER = fundamentals.PER
	enrichment.PBR = fundamentals.PBR
	return &enrichment, nil
}
