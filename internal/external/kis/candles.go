package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dokyun/folio/internal/contracts"
)

// GetDailyCandles returns recent daily bars for a domestic instrument,
// oldest first. The endpoint serves about 30 sessions, enough for the
// RSI and volume-profile lookbacks.
func (c *Client) GetDailyCandles(ctx context.Context, stockCode string) ([]contracts.Candle, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-daily-price"
	trID := "FHKST01010400" // 국내주식 일자별 시세

	params := fmt.Sprintf(
		"?fid_cond_mrkt_div_code=J&fid_input_iscd=%s&fid_period_div_code=D&fid_org_adj_prc=0",
		stockCode,
	)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return nil, fmt.Errorf("daily candles request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("daily candles API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output []struct {
			Open   string `json:"stck_oprc"`
			High   string `json:"stck_hgpr"`
			Low    string `json:"stck_lwpr"`
			Close  string `json:"stck_clpr"`
			Volume string `json:"acml_vol"`
		} `json:"output"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode daily candles: %w", err)
	}
	if result.RtCd != "0" {
		return nil, fmt.Errorf("daily candles API error: %s - %s", result.MsgCd, result.Msg1)
	}

	// API는 최신순으로 반환; oldest-first로 뒤집는다
	candles := make([]contracts.Candle, 0, len(result.Output))
	for i := len(result.Output) - 1; i >= 0; i-- {
		out := result.Output[i]
		candles = append(candles, contracts.Candle{
			Open:   parseFloatSafe(out.Open),
			High:   parseFloatSafe(out.High),
			Low:    parseFloatSafe(out.Low),
			Close:  parseFloatSafe(out.Close),
			Volume: parseFloatSafe(out.Volume),
		})
	}
	return candles, nil
}
