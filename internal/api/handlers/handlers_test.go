package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/internal/pricing"
	"github.com/dokyun/folio/internal/recommend"
	"github.com/dokyun/folio/internal/screening"
	"github.com/dokyun/folio/pkg/logger"
)

type fakePort struct {
	candidates map[contracts.Market][]contracts.ScreenCandidate
	quotes     map[string]float64
}

func (f *fakePort) FetchQuote(_ context.Context, ticker string, _ contracts.Market) (decimal.Decimal, error) {
	return decimal.NewFromFloat(f.quotes[ticker]), nil
}

func (f *fakePort) FetchCandidates(_ context.Context, market contracts.Market, _ contracts.CandidateFilter) ([]contracts.ScreenCandidate, error) {
	return f.candidates[market], nil
}

func (f *fakePort) FetchEnrichment(_ context.Context, _ string, _ contracts.Market) (*contracts.Enrichment, error) {
	return &contracts.Enrichment{}, nil
}

type fakeBroker struct {
	holdings []contracts.BrokerHolding
}

func (f *fakeBroker) Broker() string { return "kis" }

func (f *fakeBroker) FetchHoldings(_ context.Context) ([]contracts.BrokerHolding, error) {
	return f.holdings, nil
}

type fakeStore struct{}

func (f *fakeStore) GetBrokerAccounts(_ context.Context, _ int64) ([]contracts.BrokerAccount, error) {
	return nil, nil
}

func (f *fakeStore) GetManualHoldings(_ context.Context, _ int64, _ *contracts.Market) ([]contracts.ManualHolding, error) {
	return nil, nil
}

func newPriceHandler(port *fakePort, broker *fakeBroker) *PriceHandler {
	service := holdings.NewService(broker, &fakeStore{}, port, logger.Discard())
	return NewPriceHandler(service, pricing.NewDefaultResolver(), port, "kis", logger.Discard())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestBuyPrice_CombinedAverage(t *testing.T) {
	port := &fakePort{quotes: map[string]float64{"005930": 75000}}
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Name: "삼성전자", Market: contracts.MarketKR,
			Quantity: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(70000)},
	}}

	h := newPriceHandler(port, broker)
	rec := postJSON(t, h.BuyPrice, BuyPriceRequest{
		UserID:   1,
		Ticker:   "005930",
		Market:   "KR",
		Strategy: "combined_avg",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result contracts.PriceCalculationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Price.Equal(decimal.NewFromInt(70000)), "price was %s", result.Price)
	assert.Equal(t, "combined average", result.PriceSource)
}

func TestBuyPrice_MissingReferenceIs404(t *testing.T) {
	port := &fakePort{quotes: map[string]float64{"AAPL": 180}}
	h := newPriceHandler(port, &fakeBroker{})

	rec := postJSON(t, h.BuyPrice, BuyPriceRequest{
		UserID:   1,
		Ticker:   "AAPL",
		Market:   "US",
		Strategy: "combined_avg",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestBuyPrice_UnknownStrategyIs400(t *testing.T) {
	h := newPriceHandler(&fakePort{}, &fakeBroker{})

	rec := postJSON(t, h.BuyPrice, BuyPriceRequest{
		UserID:   1,
		Ticker:   "005930",
		Market:   "KR",
		Strategy: "cheapest_ever",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellPrice_OmittedProfitPercentUsesDefault(t *testing.T) {
	port := &fakePort{quotes: map[string]float64{"005930": 75000}}
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Name: "삼성전자", Market: contracts.MarketKR,
			Quantity: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(70000)},
	}}

	h := newPriceHandler(port, broker)
	rec := postJSON(t, h.SellPrice, SellPriceRequest{
		UserID:   1,
		Ticker:   "005930",
		Market:   "KR",
		Strategy: "combined_avg_plus",
		// ProfitPercent 생략: 기본 5% 마크업
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Result contracts.PriceCalculationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Result.Price.Equal(decimal.NewFromInt(73500)),
		"price was %s", response.Result.Price)
	assert.Equal(t, "combined average +5%", response.Result.PriceSource)
}

func TestSellPrice_ExplicitZeroProfitPercentStaysZero(t *testing.T) {
	port := &fakePort{quotes: map[string]float64{"005930": 75000}}
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Market: contracts.MarketKR,
			Quantity: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(70000)},
	}}

	zero := 0.0
	h := newPriceHandler(port, broker)
	rec := postJSON(t, h.SellPrice, SellPriceRequest{
		UserID:        1,
		Ticker:        "005930",
		Market:        "KR",
		Strategy:      "combined_avg_plus",
		ProfitPercent: &zero,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response struct {
		Result contracts.PriceCalculationResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Result.Price.Equal(decimal.NewFromInt(70000)),
		"price was %s", response.Result.Price)
}

func TestValidateSellQuantity_Exceeded(t *testing.T) {
	port := &fakePort{quotes: map[string]float64{"005930": 75000}}
	broker := &fakeBroker{holdings: []contracts.BrokerHolding{
		{Ticker: "005930", Market: contracts.MarketKR,
			Quantity: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(70000)},
	}}

	h := newPriceHandler(port, broker)
	rec := postJSON(t, h.ValidateSellQuantity, ValidateSellRequest{
		UserID:   1,
		Ticker:   "005930",
		Market:   "KR",
		Quantity: 25,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, false, response["valid"])
	assert.Equal(t, "exceeds_available", response["reason"])
	assert.Equal(t, float64(10), response["available"])
}

func TestValidateSellQuantity_NoHolding(t *testing.T) {
	h := newPriceHandler(&fakePort{}, &fakeBroker{})

	rec := postJSON(t, h.ValidateSellQuantity, ValidateSellRequest{
		UserID:   1,
		Ticker:   "005930",
		Market:   "KR",
		Quantity: 5,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, false, response["valid"])
	assert.Equal(t, "no_quantity", response["reason"])
}

func TestScreen_InvalidMarketIs400(t *testing.T) {
	screener := screening.NewScreener(&fakePort{}, screening.DefaultConfig(), logger.Discard())
	h := NewScreenHandler(screener, logger.Discard())

	rec := postJSON(t, h.Screen, ScreenRequest{Market: "LSE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreen_ReturnsCandidates(t *testing.T) {
	port := &fakePort{candidates: map[contracts.Market][]contracts.ScreenCandidate{
		contracts.MarketKR: {
			{Code: "005930", Name: "삼성전자", Close: 75000, Volume: 1000},
			{Code: "000660", Name: "SK하이닉스", Close: 180000, Volume: 500},
		},
	}}
	screener := screening.NewScreener(port, screening.DefaultConfig(), logger.Discard())
	h := NewScreenHandler(screener, logger.Discard())

	rec := postJSON(t, h.Screen, ScreenRequest{Market: "KR", Limit: 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result screening.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.ReturnedCount)
	assert.Equal(t, "005930", result.Results[0].Code, "volume-descending by default")
}

func TestRecommend_InvalidStrategyIs400(t *testing.T) {
	screener := screening.NewScreener(&fakePort{}, screening.DefaultConfig(), logger.Discard())
	recommender := recommend.NewRecommender(screener, recommend.DefaultConfig(), logger.Discard())
	h := NewRecommendHandler(recommender, logger.Discard())

	rec := postJSON(t, h.Recommend, RecommendRequest{
		Budget: 1000000, Market: "KR", Strategy: "yolo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommend_NonPositiveBudgetIs400(t *testing.T) {
	screener := screening.NewScreener(&fakePort{}, screening.DefaultConfig(), logger.Discard())
	recommender := recommend.NewRecommender(screener, recommend.DefaultConfig(), logger.Discard())
	h := NewRecommendHandler(recommender, logger.Discard())

	rec := postJSON(t, h.Recommend, RecommendRequest{
		Budget: 0, Market: "KR", Strategy: "balanced",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
