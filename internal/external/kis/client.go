package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/pkg/config"
	"github.com/dokyun/folio/pkg/httputil"
	"github.com/dokyun/folio/pkg/logger"
)

// Client handles communication with KIS (한국투자증권) API
// ⭐ SSOT: KIS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KISConfig

	// Token management
	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// NewClient creates a new KIS API client
func NewClient(cfg config.KISConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
	}
}

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken gets a valid access token, refreshing if necessary
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double-check after acquiring write lock
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	url := fmt.Sprintf("%s/oauth2/tokenP", c.cfg.BaseURL)
	body := fmt.Sprintf(`{"grant_type":"client_credentials","appkey":"%s","appsecret":"%s"}`,
		c.cfg.AppKey, c.cfg.AppSecret)

	resp, err := c.httpClient.Post(ctx, url, "application/json", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}

	var tokenResp TokenResponse
	if err := httputil.DecodeJSON(resp, &tokenResp); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second) // 1분 여유

	c.logger.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
	}).Info("KIS access token refreshed")

	return c.accessToken, nil
}

// request makes an authenticated request to KIS API
func (c *Client) request(ctx context.Context, method, path string, trID string, body io.Reader) (*http.Response, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	url := fmt.Sprintf("%s%s", c.cfg.BaseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("tr_id", trID)

	// Use underlying http client directly for custom headers
	client := &http.Client{Timeout: 30 * time.Second}
	return client.Do(req)
}

// GetQuote returns the current price of a domestic (KR) instrument.
func (c *Client) GetQuote(ctx context.Context, stockCode string) (decimal.Decimal, error) {
	path := "/uapi/domestic-stock/v1/quotations/inquire-price"
	trID := "FHKST01010100" // 국내주식 현재가

	params := fmt.Sprintf("?fid_cond_mrkt_div_code=J&fid_input_iscd=%s", stockCode)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output struct {
			CurrentPrice string `json:"stck_prpr"`
		} `json:"output"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}
	if result.RtCd != "0" {
		return decimal.Zero, fmt.Errorf("API error: %s - %s", result.MsgCd, result.Msg1)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(result.Output.CurrentPrice))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q for %s: %w", result.Output.CurrentPrice, stockCode, err)
	}
	return price, nil
}

// GetOverseasQuote returns the current price of a US-listed instrument.
// The exchange is resolved NASDAQ first, then NYSE/AMEX.
func (c *Client) GetOverseasQuote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var lastErr error
	for _, exchange := range []string{"NAS", "NYS", "AMS"} {
		price, err := c.getOverseasQuote(ctx, symbol, exchange)
		if err == nil {
			return price, nil
		}
		lastErr = err
	}
	return decimal.Zero, fmt.Errorf("overseas quote for %s: %w", symbol, lastErr)
}

func (c *Client) getOverseasQuote(ctx context.Context, symbol, exchange string) (decimal.Decimal, error) {
	path := "/uapi/overseas-price/v1/quotations/price"
	trID := "HHDFS00000300" // 해외주식 현재가

	params := fmt.Sprintf("?AUTH=&EXCD=%s&SYMB=%s", exchange, symbol)

	resp, err := c.request(ctx, http.MethodGet, path+params, trID, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Output struct {
			Last string `json:"last"`
		} `json:"output"`
		RtCd  string `json:"rt_cd"`
		MsgCd string `json:"msg_cd"`
		Msg1  string `json:"msg1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode response: %w", err)
	}
	if result.RtCd != "0" || result.Output.Last == "" {
		return decimal.Zero, fmt.Errorf("API error: %s - %s", result.MsgCd, result.Msg1)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(result.Output.Last))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q for %s: %w", result.Output.Last, symbol, err)
	}
	return price, nil
}
