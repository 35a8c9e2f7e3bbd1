package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
)

// TR IDs for balance queries
const (
	// 실전
	TRIDBalanceReal = "TTTC8434R"
	// 모의
	TRIDBalanceVirtual = "VTTC8434R"
)

// BrokerKey is the HoldingInfo.Broker value for KIS positions.
const BrokerKey = "kis"

// Balance represents account balance summary
type Balance struct {
	TotalDeposit    int64   `json:"total_deposit"`     // 예수금
	AvailableCash   int64   `json:"available_cash"`    // 출금가능금액
	TotalPurchase   int64   `json:"total_purchase"`    // 매입금액합계
	TotalEvaluation int64   `json:"total_evaluation"`  // 평가금액합계
	TotalProfitLoss int64   `json:"total_profit_loss"` // 평가손익합계
	ProfitLossRate  float64 `json:"profit_loss_rate"`  // 수익률
	TotalAsset      int64   `json:"total_asset"`       // 총자산
}

// Position represents one account position
type Position struct {
	StockCode         string          `json:"stock_code"`
	StockName         string          `json:"stock_name"`
	Quantity          int64           `json:"quantity"`           // 보유수량
	AvailableQuantity int64           `json:"available_quantity"` // 매도가능수량
	AvgBuyPrice       decimal.Decimal `json:"avg_buy_price"`      // 평균매입가
	CurrentPrice      decimal.Decimal `json:"current_price"`      // 현재가
	ProfitLossRate    float64         `json:"profit_loss_rate"`   // 수익률
}

// balanceResponse represents the KIS balance API response
type balanceResponse struct {
	RtCd    string `json:"rt_cd"`
	MsgCd   string `json:"msg_cd"`
	Msg1    string `json:"msg1"`
	Output1 []struct {
		Pdno        string `json:"pdno"`          // 종목코드
		PrdtName    string `json:"prdt_name"`     // 종목명
		HldgQty     string `json:"hldg_qty"`      // 보유수량
		OrdPsblQty  string `json:"ord_psbl_qty"`  // 주문가능수량
		PchsAvgPric string `json:"pchs_avg_pric"` // 매입평균가
		Prpr        string `json:"prpr"`          // 현재가
		EvluPflsRt  string `json:"evlu_pfls_rt"`  // 수익률
	} `json:"output1"`
	Output2 []struct {
		DncaTotAmt      string `json:"dnca_tot_amt"`       // 예수금총금액
		PrvsRcdlExccAmt string `json:"prvs_rcdl_excc_amt"` // 출금가능금액
		PchsAmtSmtlAmt  string `json:"pchs_amt_smtl_amt"`  // 매입금액합계
		EvluAmtSmtlAmt  string `json:"evlu_amt_smtl_amt"`  // 평가금액합계
		EvluPflsSmtlAmt string `json:"evlu_pfls_smtl_amt"` // 평가손익합계
		TotEvluAmt      string `json:"tot_evlu_amt"`       // 총평가금액
	} `json:"output2"`
}

// GetBalance returns account balance and positions
func (c *Client) GetBalance(ctx context.Context) (*Balance, []Position, error) {
	path := "/uapi/domestic-stock/v1/trading/inquire-balance"

	trID := TRIDBalanceReal
	if c.cfg.IsVirtual {
		trID = TRIDBalanceVirtual
	}

	// Account number format: first 8 digits + last 2 digits
	accountNo := c.cfg.AccountNo
	if len(accountNo) < 10 {
		return nil, nil, fmt.Errorf("invalid account number format")
	}
	cano := accountNo[:8]
	acntPrdtCd := accountNo[8:10]

	params := fmt.Sprintf("?CANO=%s&ACNT_PRDT_CD=%s&AFHR_FLPR_YN=N&OFL_YN=&INQR_DVSN=02&UNPR_DVSN=01&FUND_STTL_ICLD_YN=N&FNCG_AMT_AUTO_RDPT_YN=N&PRCS_DVSN=00&CTX_AREA_FK100=&CTX_AREA_NK100=",
		cano, acntPrdtCd)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("balance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("balance API error status %d: %s", resp.StatusCode, string(body))
	}

	var result balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("decode balance response: %w", err)
	}

	if result.RtCd != "0" {
		return nil, nil, fmt.Errorf("balance API error: %s - %s", result.MsgCd, result.Msg1)
	}

	balance := &Balance{}
	if len(result.Output2) > 0 {
		out := result.Output2[0]
		balance.TotalDeposit = parseIntSafe(out.DncaTotAmt)
		balance.AvailableCash = parseIntSafe(out.PrvsRcdlExccAmt)
		balance.TotalPurchase = parseIntSafe(out.PchsAmtSmtlAmt)
		balance.TotalEvaluation = parseIntSafe(out.EvluAmtSmtlAmt)
		balance.TotalProfitLoss = parseIntSafe(out.EvluPflsSmtlAmt)
		balance.TotalAsset = parseIntSafe(out.TotEvluAmt)

		if balance.TotalPurchase > 0 {
			balance.ProfitLossRate = float64(balance.TotalProfitLoss) / float64(balance.TotalPurchase) * 100
		}
	}

	positions := make([]Position, 0, len(result.Output1))
	for _, out := range result.Output1 {
		qty := parseIntSafe(out.HldgQty)
		if qty == 0 {
			continue // 보유수량 0은 제외
		}

		positions = append(positions, Position{
			StockCode:         out.Pdno,
			StockName:         out.PrdtName,
			Quantity:          qty,
			AvailableQuantity: parseIntSafe(out.OrdPsblQty),
			AvgBuyPrice:       parseDecimalSafe(out.PchsAvgPric),
			CurrentPrice:      parseDecimalSafe(out.Prpr),
			ProfitLossRate:    parseFloatSafe(out.EvluPflsRt),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"total_asset":     balance.TotalAsset,
		"positions_count": len(positions),
	}).Debug("Balance fetched")

	return balance, positions, nil
}

// Broker returns the account key KIS positions carry.
func (c *Client) Broker() string {
	return BrokerKey
}

// FetchHoldings returns the executable account's positions as
// broker holdings. Implements contracts.ExecutableBrokerPort.
func (c *Client) FetchHoldings(ctx context.Context) ([]contracts.BrokerHolding, error) {
	_, positions, err := c.GetBalance(ctx)
	if err != nil {
		return nil, err
	}

	holdings := make([]contracts.BrokerHolding, 0, len(positions))
	for _, pos := range positions {
		holdings = append(holdings, contracts.BrokerHolding{
			Ticker:   pos.StockCode,
			Name:     pos.StockName,
			Market:   contracts.MarketKR,
			Quantity: decimal.NewFromInt(pos.Quantity),
			AvgPrice: pos.AvgBuyPrice,
		})
	}
	return holdings, nil
}

// Helper functions
func parseIntSafe(s string) int64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloatSafe(s string) float64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseDecimalSafe(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
