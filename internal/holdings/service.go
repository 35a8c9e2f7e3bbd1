package holdings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/fanout"
	"github.com/dokyun/folio/internal/position"
	"github.com/dokyun/folio/pkg/logger"
)

// Quote fan-out bounds for one portfolio build.
const (
	quoteConcurrency = 10
	quoteTimeout     = 30 * time.Second
)

// Service builds the merged portfolio view: live executable-broker
// positions plus persisted manual holdings, reconciled per instrument
// and priced with current quotes.
// ⭐ SSOT: 통합 포트폴리오 조립은 여기서만
type Service struct {
	broker contracts.ExecutableBrokerPort // nil when no executable account is wired
	store  contracts.HoldingsStore
	data   contracts.MarketDataPort
	logger *logger.Logger
}

// NewService wires the portfolio service collaborators.
func NewService(
	broker contracts.ExecutableBrokerPort,
	store contracts.HoldingsStore,
	data contracts.MarketDataPort,
	log *logger.Logger,
) *Service {
	return &Service{broker: broker, store: store, data: data, logger: log}
}

// instrumentKey identifies one instrument across brokers.
type instrumentKey struct {
	Ticker string
	Market contracts.Market
}

type mergedEntry struct {
	name     string
	holdings []contracts.HoldingInfo
}

// BuildMergedPortfolio reconciles every position the user owns into one
// row per instrument. market narrows the view when non-nil. The result
// is built fresh on every call and never persisted.
func (s *Service) BuildMergedPortfolio(ctx context.Context, userID int64, market *contracts.Market) ([]contracts.MergedHolding, error) {
	entries := make(map[instrumentKey]*mergedEntry)
	order := make([]instrumentKey, 0)

	add := func(key instrumentKey, name string, info contracts.HoldingInfo) {
		entry, ok := entries[key]
		if !ok {
			entry = &mergedEntry{}
			entries[key] = entry
			order = append(order, key)
		}
		if entry.name == "" {
			entry.name = name
		}
		entry.holdings = append(entry.holdings, info)
	}

	// 실계좌(KIS) 포지션
	if s.broker != nil {
		brokerHoldings, err := s.broker.FetchHoldings(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch broker holdings: %w", err)
		}
		for _, h := range brokerHoldings {
			if market != nil && h.Market != *market {
				continue
			}
			add(instrumentKey{Ticker: h.Ticker, Market: h.Market}, h.Name, contracts.HoldingInfo{
				Broker:   s.broker.Broker(),
				Quantity: h.Quantity,
				AvgPrice: h.AvgPrice,
			})
		}
	}

	// 수동 입력 포지션
	manual, err := s.store.GetManualHoldings(ctx, userID, market)
	if err != nil {
		return nil, fmt.Errorf("fetch manual holdings: %w", err)
	}

	accounts, err := s.store.GetBrokerAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch broker accounts: %w", err)
	}
	brokerByAccount := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		brokerByAccount[a.ID] = a.Broker
	}

	for _, h := range manual {
		broker := brokerByAccount[h.AccountID]
		if broker == "" {
			broker = fmt.Sprintf("account-%d", h.AccountID)
		}
		add(instrumentKey{Ticker: h.Ticker, Market: h.Market}, h.Name, contracts.HoldingInfo{
			Broker:   broker,
			Quantity: h.Quantity,
			AvgPrice: h.AvgPrice,
		})
	}

	if len(order) == 0 {
		return []contracts.MergedHolding{}, nil
	}

	// 시세는 종목별로 병렬 조회; 일부 실패해도 나머지는 평가한다
	quotes := fanout.Map(ctx, order, quoteConcurrency, quoteTimeout,
		func(ctx context.Context, key instrumentKey) (decimal.Decimal, error) {
			return s.data.FetchQuote(ctx, key.Ticker, key.Market)
		})
	for _, failed := range quotes.Failed {
		s.logger.WithError(failed.Err).WithFields(map[string]interface{}{
			"ticker": failed.Key.Ticker,
			"market": string(failed.Key.Market),
		}).Warn("Quote unavailable for merged holding")
	}

	merged := make([]contracts.MergedHolding, 0, len(order))
	for _, key := range order {
		entry := entries[key]
		combinedAvg, totalQty := position.Aggregate(entry.holdings)

		row := contracts.MergedHolding{
			Ticker:           key.Ticker,
			Name:             entry.name,
			Market:           key.Market,
			Holdings:         entry.holdings,
			CombinedAvgPrice: combinedAvg,
			TotalQuantity:    totalQty,
		}

		if price, ok := quotes.OK[key]; ok {
			row.CurrentPrice = price
			row.Evaluation = price.Mul(totalQty)

			cost := combinedAvg.Mul(totalQty)
			row.ProfitLoss = row.Evaluation.Sub(cost)
			if !cost.IsZero() {
				row.ProfitRate = row.ProfitLoss.Div(cost).Mul(decimal.NewFromInt(100))
			}
		}

		merged = append(merged, row)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Evaluation.Equal(merged[j].Evaluation) {
			return merged[i].Evaluation.GreaterThan(merged[j].Evaluation)
		}
		return merged[i].Ticker < merged[j].Ticker
	})

	return merged, nil
}
