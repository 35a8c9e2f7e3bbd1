package upbit

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/indicator"
	"github.com/dokyun/folio/pkg/httputil"
	"github.com/dokyun/folio/pkg/logger"
)

// Client handles communication with the Upbit public API
// ⭐ SSOT: Upbit API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Upbit client.
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.upbit.com/v1"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Market is one tradable pair.
type Market struct {
	Code        string `json:"market"`       // e.g. KRW-BTC
	KoreanName  string `json:"korean_name"`  // 비트코인
	EnglishName string `json:"english_name"` // Bitcoin
}

// Ticker is a 24h snapshot for one pair.
type Ticker struct {
	Code             string  `json:"market"`
	TradePrice       float64 `json:"trade_price"`
	SignedChangeRate float64 `json:"signed_change_rate"`
	AccTradePrice24h float64 `json:"acc_trade_price_24h"`
	AccTradeVolume   float64 `json:"acc_trade_volume_24h"`
}

// dayCandle is one daily OHLCV bar, newest first in API order.
type dayCandle struct {
	Open   float64 `json:"opening_price"`
	High   float64 `json:"high_price"`
	Low    float64 `json:"low_price"`
	Close  float64 `json:"trade_price"`
	Volume float64 `json:"candle_acc_trade_volume"`
}

// GetKRWMarkets returns all KRW-quoted pairs.
func (c *Client) GetKRWMarkets(ctx context.Context) ([]Market, error) {
	resp, err := c.httpClient.Get(ctx, c.baseURL+"/market/all?isDetails=false")
	if err != nil {
		return nil, fmt.Errorf("upbit markets request: %w", err)
	}

	var all []Market
	if err := httputil.DecodeJSON(resp, &all); err != nil {
		return nil, fmt.Errorf("upbit markets: %w", err)
	}

	markets := make([]Market, 0, len(all))
	for _, m := range all {
		if strings.HasPrefix(m.Code, "KRW-") {
			markets = append(markets, m)
		}
	}
	return markets, nil
}

// GetTickers returns 24h snapshots for the given pair codes.
func (c *Client) GetTickers(ctx context.Context, codes []string) ([]Ticker, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query := url.Values{"markets": {strings.Join(codes, ",")}}
	resp, err := c.httpClient.Get(ctx, c.baseURL+"/ticker?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("upbit tickers request: %w", err)
	}

	var tickers []Ticker
	if err := httputil.DecodeJSON(resp, &tickers); err != nil {
		return nil, fmt.Errorf("upbit tickers: %w", err)
	}
	return tickers, nil
}

// GetDayCandles returns daily candles for one pair, oldest first.
func (c *Client) GetDayCandles(ctx context.Context, code string, count int) ([]contracts.Candle, error) {
	if count <= 0 {
		count = 60
	}

	query := url.Values{
		"market": {code},
		"count":  {fmt.Sprintf("%d", count)},
	}
	resp, err := c.httpClient.Get(ctx, c.baseURL+"/candles/days?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("upbit candles request: %w", err)
	}

	var raw []dayCandle
	if err := httputil.DecodeJSON(resp, &raw); err != nil {
		return nil, fmt.Errorf("upbit candles: %w", err)
	}

	// API는 최신순으로 반환; oldest-first로 뒤집는다
	candles := make([]contracts.Candle, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		candles = append(candles, contracts.Candle{
			Open:   raw[i].Open,
			High:   raw[i].High,
			Low:    raw[i].Low,
			Close:  raw[i].Close,
			Volume: raw[i].Volume,
		})
	}
	return candles, nil
}

// GetQuote returns the current trade price for one pair.
func (c *Client) GetQuote(ctx context.Context, code string) (decimal.Decimal, error) {
	tickers, err := c.GetTickers(ctx, []string{code})
	if err != nil {
		return decimal.Zero, err
	}
	if len(tickers) == 0 {
		return decimal.Zero, fmt.Errorf("no ticker for %s", code)
	}
	return decimal.NewFromFloat(tickers[0].TradePrice), nil
}

// GetCandidates returns the crypto screening universe: all KRW pairs
// ranked by 24h traded value. Volume carries the traded value, not the
// unit count, matching how the crypto market is screened.
func (c *Client) GetCandidates(ctx context.Context) ([]contracts.ScreenCandidate, error) {
	markets, err := c.GetKRWMarkets(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(markets))
	codes := make([]string, 0, len(markets))
	for _, m := range markets {
		codes = append(codes, m.Code)
		names[m.Code] = m.KoreanName
	}

	tickers, err := c.GetTickers(ctx, codes)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tickers, func(i, j int) bool {
		return tickers[i].AccTradePrice24h > tickers[j].AccTradePrice24h
	})

	candidates := make([]contracts.ScreenCandidate, 0, len(tickers))
	for _, t := range tickers {
		candidates = append(candidates, contracts.ScreenCandidate{
			Code:       t.Code,
			Name:       names[t.Code],
			Close:      t.TradePrice,
			ChangeRate: t.SignedChangeRate * 100,
			Volume:     t.AccTradePrice24h,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"count": len(candidates),
	}).Debug("Crypto candidates fetched")

	return candidates, nil
}

// GetEnrichment computes technical fields for one pair from its daily
// candles.
func (c *Client) GetEnrichment(ctx context.Context, code string) (*contracts.Enrichment, error) {
	candles, err := c.GetDayCandles(ctx, code, 60)
	if err != nil {
		return nil, err
	}

	enrichment := indicator.FromCandles(candles)
	return &enrichment, nil
}
