package naver

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/dokyun/folio/internal/contracts"
)

// GetFundamentals scrapes valuation fields from the item summary page.
// Missing fields stay nil; dividend yield comes back as a decimal
// fraction (0.025 for 2.5%).
func (c *Client) GetFundamentals(ctx context.Context, stockCode string) (*contracts.Enrichment, error) {
	url := fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, stockCode)

	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fundamentals for %s: %w", stockCode, err)
	}

	enrichment := &contracts.Enrichment{}

	// 종목 요약의 투자지표: PER #_per, PBR #_pbr, 배당수익률 #_dvr
	if v, ok := scrapeNumber(doc, "#_per"); ok {
		enrichment.PER = &v
	}
	if v, ok := scrapeNumber(doc, "#_pbr"); ok {
		enrichment.PBR = &v
	}
	if v, ok := scrapeNumber(doc, "#_dvr"); ok {
		yield := v / 100 // 퍼센트 표기 → 소수
		enrichment.DividendYield = &yield
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code":   stockCode,
		"has_per":      enrichment.PER != nil,
		"has_pbr":      enrichment.PBR != nil,
		"has_dividend": enrichment.DividendYield != nil,
	}).Debug("Fundamentals scraped")

	return enrichment, nil
}

func scrapeNumber(doc *goquery.Document, selector string) (float64, bool) {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return 0, false
	}
	return parseNumber(node.Text())
}
