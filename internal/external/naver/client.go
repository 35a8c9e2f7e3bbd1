package naver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dokyun/folio/pkg/httputil"
	"github.com/dokyun/folio/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// NewClient creates a new Naver Finance client.
func NewClient(baseURL string, httpClient *httputil.Client, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://finance.naver.com"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// fetchDocument fetches a page and parses it for scraping.
func (c *Client) fetchDocument(ctx context.Context, fullURL string) (*goquery.Document, error) {
	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"User-Agent": userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// parseNumber reads a localized numeric string ("1,234.56", "N/A").
// Returns (0, false) when the field carries no number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "N/A" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
