package jobs

import (
	"context"
	"fmt"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/pkg/logger"
)

// CacheWarmupJob pre-fetches each market's candidate universe so the
// first screen of the day hits a warm cache instead of the upstream APIs
// ⭐ SSOT: 유니버스 캐시 예열은 이 Job에서만
type CacheWarmupJob struct {
	data    contracts.MarketDataPort
	markets []contracts.Market
	logger  *logger.Logger
}

// NewCacheWarmupJob creates a warm-up job over the given markets.
func NewCacheWarmupJob(data contracts.MarketDataPort, markets []contracts.Market, log *logger.Logger) *CacheWarmupJob {
	if len(markets) == 0 {
		markets = []contracts.Market{contracts.MarketKR, contracts.MarketUS, contracts.MarketCrypto}
	}
	return &CacheWarmupJob{data: data, markets: markets, logger: log}
}

// Name returns the job name
func (j *CacheWarmupJob) Name() string {
	return "cache_warmup"
}

// Schedule returns the cron schedule (every 10 minutes, with seconds)
func (j *CacheWarmupJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run refreshes the candidate universe of every configured market. A
// single failed market does not abort the others; the job fails only
// when all of them fail.
func (j *CacheWarmupJob) Run(ctx context.Context) error {
	var lastErr error
	warmed := 0

	for _, market := range j.markets {
		candidates, err := j.data.FetchCandidates(ctx, market, contracts.CandidateFilter{})
		if err != nil {
			lastErr = err
			j.logger.WithError(err).WithField("market", string(market)).Warn("Universe warm-up failed")
			continue
		}
		warmed++
		j.logger.WithFields(map[string]interface{}{
			"market": string(market),
			"count":  len(candidates),
		}).Debug("Universe cache warmed")
	}

	if warmed == 0 && lastErr != nil {
		return fmt.Errorf("cache warmup: %w", lastErr)
	}
	return nil
}
