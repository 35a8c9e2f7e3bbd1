package commands

import (
	"fmt"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/external"
	"github.com/dokyun/folio/internal/external/kis"
	"github.com/dokyun/folio/internal/external/naver"
	"github.com/dokyun/folio/internal/external/upbit"
	"github.com/dokyun/folio/internal/recommend"
	"github.com/dokyun/folio/internal/screening"
	"github.com/dokyun/folio/pkg/cache"
	"github.com/dokyun/folio/pkg/config"
	"github.com/dokyun/folio/pkg/httputil"
	"github.com/dokyun/folio/pkg/logger"
	"github.com/dokyun/folio/pkg/redis"
)

// engine bundles the shared collaborators every command wires up.
type engine struct {
	cfg   *config.Config
	log   *logger.Logger
	redis *redis.Client
	cache *cache.ReadThrough

	kisClient   *kis.Client
	upbitClient *upbit.Client
	naverClient *naver.Client

	provider    *external.Provider
	screener    *screening.Screener
	recommender *recommend.Recommender
}

// buildEngine constructs the full data path: adapters behind the
// provider, the read-through cache, the screener and the recommender.
func buildEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	limiter := redis.NewRateLimiter(redisClient, "folio")

	kisHTTP := httputil.New(cfg, log).
		WithRateLimiter(limiter, redis.KISRateLimit)
	upbitHTTP := httputil.New(cfg, log).
		WithRateLimiter(limiter, redis.UpbitRateLimit).
		WithLocalRateLimit(10, 10)
	naverHTTP := httputil.New(cfg, log).
		WithRateLimiter(limiter, redis.NaverRateLimit).
		WithLocalRateLimit(10, 5)

	store := cache.NewReadThrough(
		cache.NewRedisStore(redisClient, "folio"),
		cache.NewMemoryStore(),
		log,
	)

	kisClient := kis.NewClient(cfg.KIS, kisHTTP, log)
	upbitClient := upbit.NewClient(cfg.Upbit.BaseURL, upbitHTTP, log)
	naverClient := naver.NewClient(cfg.Naver.BaseURL, naverHTTP, log)

	provider := external.NewProvider(kisClient, upbitClient, naverClient, store, cfg.Engine, log)

	screener := screening.NewScreener(provider, screening.Config{
		EnrichConcurrency: cfg.Engine.EnrichConcurrency,
		EnrichTimeout:     cfg.Engine.EnrichTimeout,
		DefaultLimit:      screening.DefaultConfig().DefaultLimit,
	}, log)

	recommender := recommend.NewRecommender(screener, recommend.DefaultConfig(), log)

	return &engine{
		cfg:         cfg,
		log:         log,
		redis:       redisClient,
		cache:       store,
		kisClient:   kisClient,
		upbitClient: upbitClient,
		naverClient: naverClient,
		provider:    provider,
		screener:    screener,
		recommender: recommender,
	}, nil
}

// executableBroker returns the KIS client when credentials are
// configured, nil otherwise. The merged portfolio then carries manual
// holdings only.
func (e *engine) executableBroker() contracts.ExecutableBrokerPort {
	if e.cfg.KIS.AppKey == "" || e.cfg.KIS.AccountNo == "" {
		return nil
	}
	return e.kisClient
}

// Close releases shared connections.
func (e *engine) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
}
