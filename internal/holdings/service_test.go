package holdings

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/pkg/logger"
)

type fakeBroker struct {
	holdings []contracts.BrokerHolding
	err      error
}

func (f *fakeBroker) Broker() string { return "kis" }

func (f *fakeBroker) FetchHoldings(_ context.Context) ([]contracts.BrokerHolding, error) {
	return f.holdings, f.err
}

type fakeStore struct {
	accounts []contracts.BrokerAccount
	manual   []contracts.ManualHolding
}

func (f *fakeStore) GetBrokerAccounts(_ context.Context, _ int64) ([]contracts.BrokerAccount, error) {
	return f.accounts, nil
}

func (f *fakeStore) GetManualHoldings(_ context.Context, _ int64, market *contracts.Market) ([]contracts.ManualHolding, error) {
	if market == nil {
		return f.manual, nil
	}
	filtered := make([]contracts.ManualHolding, 0)
	for _, h := range f.manual {
		if h.Market == *market {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

type fakeQuotes struct {
	prices map[string]float64
	fail   map[string]bool
}

func (f *fakeQuotes) FetchQuote(_ context.Context, ticker string, _ contracts.Market) (decimal.Decimal, error) {
	if f.fail[ticker] {
		return decimal.Zero, errors.New("quote unavailable")
	}
	return decimal.NewFromFloat(f.prices[ticker]), nil
}

func (f *fakeQuotes) FetchCandidates(_ context.Context, _ contracts.Market, _ contracts.CandidateFilter) ([]contracts.ScreenCandidate, error) {
	return nil, nil
}

func (f *fakeQuotes) FetchEnrichment(_ context.Context, _ string, _ contracts.Market) (*contracts.Enrichment, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func manualHolding(accountID int64, ticker, name string, market contracts.Market, qty, avg string) contracts.ManualHolding {
	return contracts.ManualHolding{
		AccountID: accountID,
		Ticker:    ticker,
		Name:      name,
		Market:    market,
		Quantity:  dec(qty),
		AvgPrice:  dec(avg),
	}
}

func TestBuildMergedPortfolio_MergesBrokerAndManual(t *testing.T) {
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Name: "삼성전자", Market: contracts.MarketKR, Quantity: dec("10"), AvgPrice: dec("70000")},
	}}
	store := &fakeStore{
		accounts: []contracts.BrokerAccount{{ID: 1, UserID: 7, Broker: "toss", Label: "토스 계좌"}},
		manual: []contracts.ManualHolding{
			manualHolding(1, "005930", "삼성전자", contracts.MarketKR, "20", "60000"),
		},
	}
	quotes := &fakeQuotes{prices: map[string]float64{"005930": 75000}}

	svc := NewService(broker, store, quotes, logger.Discard())
	merged, err := svc.BuildMergedPortfolio(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	row := merged[0]
	assert.Equal(t, "005930", row.Ticker)
	require.Len(t, row.Holdings, 2)
	assert.Equal(t, "kis", row.Holdings[0].Broker)
	assert.Equal(t, "toss", row.Holdings[1].Broker)

	// (10×70000 + 20×60000) / 30
	avg, _ := row.CombinedAvgPrice.Float64()
	assert.InDelta(t, 63333.3333, avg, 0.001)
	assert.True(t, row.TotalQuantity.Equal(dec("30")))
	assert.True(t, row.CurrentPrice.Equal(dec("75000")))
	assert.True(t, row.Evaluation.Equal(dec("2250000")))

	// cost = 1900000, pl = 350000 (평단 재계산의 반올림 오차 허용)
	pl, _ := row.ProfitLoss.Float64()
	assert.InDelta(t, 350000, pl, 0.001)
	rate, _ := row.ProfitRate.Float64()
	assert.InDelta(t, 18.42, rate, 0.01)
}

func TestBuildMergedPortfolio_QuoteFailureKeepsRow(t *testing.T) {
	store := &fakeStore{
		accounts: []contracts.BrokerAccount{{ID: 1, UserID: 7, Broker: "toss"}},
		manual: []contracts.ManualHolding{
			manualHolding(1, "AAPL", "Apple", contracts.MarketUS, "5", "150"),
		},
	}
	quotes := &fakeQuotes{fail: map[string]bool{"AAPL": true}}

	svc := NewService(nil, store, quotes, logger.Discard())
	merged, err := svc.BuildMergedPortfolio(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, merged, 1)

	row := merged[0]
	assert.True(t, row.CurrentPrice.IsZero())
	assert.True(t, row.Evaluation.IsZero())
	assert.True(t, row.CombinedAvgPrice.Equal(dec("150")), "cost basis survives a quote failure")
}

func TestBuildMergedPortfolio_MarketFilter(t *testing.T) {
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Name: "삼성전자", Market: contracts.MarketKR, Quantity: dec("10"), AvgPrice: dec("70000")},
	}}
	store := &fakeStore{
		accounts: []contracts.BrokerAccount{{ID: 1, UserID: 7, Broker: "binance"}},
		manual: []contracts.ManualHolding{
			manualHolding(1, "KRW-BTC", "비트코인", contracts.MarketCrypto, "0.5", "80000000"),
		},
	}
	quotes := &fakeQuotes{prices: map[string]float64{"005930": 75000, "KRW-BTC": 90000000}}

	svc := NewService(broker, store, quotes, logger.Discard())

	crypto := contracts.MarketCrypto
	merged, err := svc.BuildMergedPortfolio(context.Background(), 7, &crypto)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "KRW-BTC", merged[0].Ticker)

	// 소수 수량도 정확히 평가
	assert.True(t, merged[0].Evaluation.Equal(dec("45000000")), "evaluation was %s", merged[0].Evaluation)
}

func TestBuildMergedPortfolio_SortedByEvaluation(t *testing.T) {
	store := &fakeStore{
		accounts: []contracts.BrokerAccount{{ID: 1, UserID: 7, Broker: "toss"}},
		manual: []contracts.ManualHolding{
			manualHolding(1, "AAA", "Small", contracts.MarketUS, "1", "10"),
			manualHolding(1, "BBB", "Big", contracts.MarketUS, "100", "10"),
		},
	}
	quotes := &fakeQuotes{prices: map[string]float64{"AAA": 10, "BBB": 10}}

	svc := NewService(nil, store, quotes, logger.Discard())
	merged, err := svc.BuildMergedPortfolio(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "BBB", merged[0].Ticker)
	assert.Equal(t, "AAA", merged[1].Ticker)
}

func TestBuildMergedPortfolio_BrokerErrorIsFatal(t *testing.T) {
	broker := &fakeBroker{err: errors.New("kis unavailable")}
	store := &fakeStore{}
	quotes := &fakeQuotes{}

	svc := NewService(broker, store, quotes, logger.Discard())
	_, err := svc.BuildMergedPortfolio(context.Background(), 7, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kis unavailable")
}

func TestBuildMergedPortfolio_Empty(t *testing.T) {
	svc := NewService(nil, &fakeStore{}, &fakeQuotes{}, logger.Discard())
	merged, err := svc.BuildMergedPortfolio(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, merged)
}
