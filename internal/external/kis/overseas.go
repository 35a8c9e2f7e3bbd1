package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dokyun/folio/internal/contracts"
)

// US market data endpoints. 해외 데이터는 나스닥 거래량 상위를
// 기본 유니버스로 사용한다.

// GetUSCandidates returns the US screening universe, ranked by traded
// volume on the requested exchange (NASDAQ by default).
func (c *Client) GetUSCandidates(ctx context.Context, count int) ([]contracts.ScreenCandidate, error) {
	if count <= 0 {
		count = 100
	}

	path := "/uapi/overseas-price/v1/ranking/trade-vol"
	trID := "HHDFS76310010" // 해외주식 거래량 순위

	params := "?AUTH=&EXCD=NAS&NDAY=0&PRC1=0&PRC2=0&VOL_RANG=0&KEYB="

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return nil, fmt.Errorf("us ranking request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("us ranking API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output2 []struct {
			Symbol     string `json:"symb"`
			Name       string `json:"name"`
			Last       string `json:"last"`
			Rate       string `json:"rate"`  // 등락률
			TVol       string `json:"tvol"`  // 거래량
			MarketCap  string `json:"valx"`  // 시가총액 ($M)
		} `json:"output2"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode us ranking: %w", err)
	}
	if result.RtCd != "0" {
		return nil, fmt.Errorf("us ranking API error: %s - %s", result.MsgCd, result.Msg1)
	}

	candidates := make([]contracts.ScreenCandidate, 0, len(result.Output2))
	for _, out := range result.Output2 {
		if len(candidates) >= count {
			break
		}
		candidate := contracts.ScreenCandidate{
			Code:       strings.TrimSpace(out.Symbol),
			Name:       strings.TrimSpace(out.Name),
			Close:      parseFloatSafe(out.Last),
			ChangeRate: parseFloatSafe(out.Rate),
			Volume:     parseFloatSafe(out.TVol),
		}
		if mcap := parseFloatSafe(out.MarketCap); mcap > 0 {
			candidate.MarketCap = &mcap
		}
		if candidate.Code == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}

	c.logger.WithFields(map[string]interface{}{
		"count": len(candidates),
	}).Debug("US candidates fetched")

	return candidates, nil
}

// GetUSEnrichment returns valuation fields plus daily candles for one
// US symbol. Indicator math stays with the caller.
func (c *Client) GetUSEnrichment(ctx context.Context, symbol string) (*contracts.Enrichment, []contracts.Candle, error) {
	enrichment, err := c.getUSFundamentals(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}

	candles, err := c.getUSDailyCandles(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	return enrichment, candles, nil
}

func (c *Client) getUSFundamentals(ctx context.Context, symbol string) (*contracts.Enrichment, error) {
	path := "/uapi/overseas-price/v1/quotations/search-info"
	trID := "HHDFS76200200" // 해외주식 상품 기본정보

	params := fmt.Sprintf("?AUTH=&EXCD=NAS&SYMB=%s", symbol)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return nil, fmt.Errorf("us fundamentals request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("us fundamentals API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output struct {
			PER string `json:"perx"`
			PBR string `json:"pbrx"`
		} `json:"output"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode us fundamentals: %w", err)
	}
	if result.RtCd != "0" {
		return nil, fmt.Errorf("us fundamentals API error: %s - %s", result.MsgCd, result.Msg1)
	}

	enrichment := &contracts.Enrichment{}
	if per := parseFloatSafe(result.Output.PER); per != 0 {
		enrichment.PER = &per
	}
	if pbr := parseFloatSafe(result.Output.PBR); pbr != 0 {
		enrichment.PBR = &pbr
	}
	return enrichment, nil
}

func (c *Client) getUSDailyCandles(ctx context.Context, symbol string) ([]contracts.Candle, error) {
	path := "/uapi/overseas-price/v1/quotations/dailyprice"
	trID := "HHDFS76240000" // 해외주식 기간별 시세

	params := fmt.Sprintf("?AUTH=&EXCD=NAS&SYMB=%s&GUBN=0&BYMD=&MODP=1", symbol)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return nil, fmt.Errorf("us candles request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("us candles API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output2 []struct {
			Open  string `json:"open"`
			High  string `json:"high"`
			Low   string `json:"low"`
			Close string `json:"clos"`
			TVol  string `json:"tvol"`
		} `json:"output2"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode us candles: %w", err)
	}
	if result.RtCd != "0" {
		return nil, fmt.Errorf("us candles API error: %s - %s", result.MsgCd, result.Msg1)
	}

	// API는 최신순으로 반환; oldest-first로 뒤집는다
	candles := make([]contracts.Candle, 0, len(result.Output2))
	for i := len(result.Output2) - 1; i >= 0; i-- {
		out := result.Output2[i]
		candles = append(candles, contracts.Candle{
			Open:   parseFloatSafe(out.Open),
			High:   parseFloatSafe(out.High),
			Low:    parseFloatSafe(out.Low),
			Close:  parseFloatSafe(out.Close),
			Volume: parseFloatSafe(out.TVol),
		})
	}
	return candles, nil
}
