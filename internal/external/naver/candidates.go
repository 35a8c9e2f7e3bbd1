package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dokyun/folio/internal/contracts"
)

// 모바일 시세 API: 시가총액 순 전 종목 목록
const stockListURL = "https://m.stock.naver.com/api/stocks/marketValue/%s?page=%d&pageSize=%d"

// Exchanges served by the KR universe fetch.
const (
	ExchangeKOSPI  = "KOSPI"
	ExchangeKOSDAQ = "KOSDAQ"
)

type stockListResponse struct {
	Stocks     []stockListItem `json:"stocks"`
	TotalCount int             `json:"totalCount"`
}

type stockListItem struct {
	ItemCode          string `json:"itemCode"`
	StockName         string `json:"stockName"`
	ClosePrice        string `json:"closePrice"`                // "71,200"
	FluctuationsRatio string `json:"fluctuationsRatio"`         // "-0.42"
	AccTradingVolume  string `json:"accumulatedTradingVolume"`  // "9,123,456"
	MarketValue       string `json:"marketValue"`               // 억원, "4,251,234"
	StockEndType      string `json:"stockEndType"`              // stock | etf | etn
}

// GetCandidates returns the KR screening universe for one exchange,
// ranked by market value. ETNs are kept here; the screening engine
// owns the asset-type policy.
func (c *Client) GetCandidates(ctx context.Context, exchange string, pages int) ([]contracts.ScreenCandidate, error) {
	if exchange == "" {
		exchange = ExchangeKOSPI
	}
	if pages <= 0 {
		pages = 2
	}

	candidates := make([]contracts.ScreenCandidate, 0, pages*100)
	for page := 1; page <= pages; page++ {
		items, err := c.fetchStockPage(ctx, exchange, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			c.logger.WithError(err).WithField("page", page).Warn("Failed to fetch candidate page")
			break
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			candidate := contracts.ScreenCandidate{
				Code: item.ItemCode,
				Name: item.StockName,
			}
			if v, ok := parseNumber(item.ClosePrice); ok {
				candidate.Close = v
			}
			if v, ok := parseNumber(item.FluctuationsRatio); ok {
				candidate.ChangeRate = v
			}
			if v, ok := parseNumber(item.AccTradingVolume); ok {
				candidate.Volume = v
			}
			if v, ok := parseNumber(item.MarketValue); ok && v > 0 {
				mcap := v
				candidate.MarketCap = &mcap
			}
			candidates = append(candidates, candidate)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"exchange": exchange,
		"count":    len(candidates),
	}).Debug("KR candidates fetched")

	return candidates, nil
}

func (c *Client) fetchStockPage(ctx context.Context, exchange string, page int) ([]stockListItem, error) {
	url := fmt.Sprintf(stockListURL, exchange, page, 100)

	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"User-Agent": userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("stock list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock list status %d", resp.StatusCode)
	}

	var result stockListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stock list: %w", err)
	}
	return result.Stocks, nil
}
