package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/screening"
	"github.com/dokyun/folio/pkg/logger"
)

// ScreenHandler serves market screening
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener *screening.Screener
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(screener *screening.Screener, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{screener: screener, logger: log}
}

// ScreenRequest is the screening payload. Optional filters stay nil
// when omitted so the engine can tell "absent" from "zero".
type ScreenRequest struct {
	Market    string `json:"market"`
	AssetType string `json:"asset_type,omitempty"`
	Category  string `json:"category,omitempty"`

	MinMarketCap     *float64 `json:"min_market_cap,omitempty"`
	MaxPER           *float64 `json:"max_per,omitempty"`
	MinDividendYield *float64 `json:"min_dividend_yield,omitempty"`
	MaxRSI           *float64 `json:"max_rsi,omitempty"`

	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Screen runs one screening call
// POST /api/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	market, err := contracts.ParseMarket(req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	engineReq := screening.Request{
		Market:           market,
		Category:         req.Category,
		MinMarketCap:     req.MinMarketCap,
		MaxPER:           req.MaxPER,
		MinDividendYield: req.MinDividendYield,
		MaxRSI:           req.MaxRSI,
		SortBy:           screening.SortField(req.SortBy),
		SortOrder:        screening.SortOrder(req.SortOrder),
		Limit:            req.Limit,
	}

	if req.AssetType != "" {
		assetType := contracts.AssetType(strings.ToLower(strings.TrimSpace(req.AssetType)))
		engineReq.AssetType = &assetType
	}

	result, err := h.screener.Screen(ctx, engineReq)
	if err != nil {
		h.logger.WithError(err).WithField("market", req.Market).Error("Screen failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
