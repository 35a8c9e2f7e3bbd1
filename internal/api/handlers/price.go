package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/internal/position"
	"github.com/dokyun/folio/internal/pricing"
	"github.com/dokyun/folio/pkg/logger"
)

// PriceHandler serves order-price resolution and sell validation
// ⭐ SSOT: 가격 결정 API 핸들러는 이 구조체에서만
type PriceHandler struct {
	service          *holdings.Service
	resolver         *pricing.Resolver
	data             contracts.MarketDataPort
	executableBroker string
	logger           *logger.Logger
}

// NewPriceHandler creates a new price handler. executableBroker is the
// broker key whose quantity bounds sell orders (normally "kis").
func NewPriceHandler(
	service *holdings.Service,
	resolver *pricing.Resolver,
	data contracts.MarketDataPort,
	executableBroker string,
	log *logger.Logger,
) *PriceHandler {
	return &PriceHandler{
		service:          service,
		resolver:         resolver,
		data:             data,
		executableBroker: executableBroker,
		logger:           log,
	}
}

// BuyPriceRequest is the buy-price resolution payload.
type BuyPriceRequest struct {
	UserID          int64    `json:"user_id"`
	Ticker          string   `json:"ticker"`
	Market          string   `json:"market"`
	Strategy        string   `json:"strategy"`
	DiscountPercent float64  `json:"discount_percent"`
	ManualPrice     *float64 `json:"manual_price"`
}

// BuyPrice resolves a buy order price
// POST /api/price/buy
func (h *PriceHandler) BuyPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BuyPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy, err := pricing.ParseBuyStrategy(req.Strategy)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	ref, currentPrice, err := h.priceBasis(ctx, req.UserID, req.Ticker, req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.resolver.CalculateBuyPrice(
		ref, currentPrice, strategy,
		decimal.NewFromFloat(req.DiscountPercent),
		manualDecimal(req.ManualPrice),
	)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SellPriceRequest is the sell-price resolution payload. Quantity is
// optional; when positive the expected profit per basis is included.
// ProfitPercent omitted means the default markup, not 0. 명시적 0은 그대로 0.
type SellPriceRequest struct {
	UserID        int64    `json:"user_id"`
	Ticker        string   `json:"ticker"`
	Market        string   `json:"market"`
	Strategy      string   `json:"strategy"`
	ProfitPercent *float64 `json:"profit_percent"`
	ManualPrice   *float64 `json:"manual_price"`
	Quantity      int64    `json:"quantity"`
}

// SellPrice resolves a sell order price
// POST /api/price/sell
func (h *PriceHandler) SellPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SellPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy, err := pricing.ParseSellStrategy(req.Strategy)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	ref, currentPrice, err := h.priceBasis(ctx, req.UserID, req.Ticker, req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	profitPercent := pricing.DefaultSellProfitPercent
	if req.ProfitPercent != nil {
		profitPercent = *req.ProfitPercent
	}

	result, err := h.resolver.CalculateSellPrice(
		ref, currentPrice, strategy,
		decimal.NewFromFloat(profitPercent),
		manualDecimal(req.ManualPrice),
	)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"result": result,
	}
	if req.Quantity > 0 {
		response["expected_profit"] = h.resolver.CalculateExpectedProfit(
			decimal.NewFromInt(req.Quantity), result.Price, ref,
		)
	}

	respondJSON(w, http.StatusOK, response)
}

// ValidateSellRequest is the sell-quantity validation payload.
type ValidateSellRequest struct {
	UserID   int64  `json:"user_id"`
	Ticker   string `json:"ticker"`
	Market   string `json:"market"`
	Quantity int64  `json:"quantity"`
}

// ValidateSellQuantity checks a sell request against the executable
// broker's own quantity
// POST /api/price/validate-sell
func (h *PriceHandler) ValidateSellQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateSellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.lookupHolding(ctx, req.UserID, req.Ticker, req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var executableQty int64
	if row != nil {
		for _, info := range row.Holdings {
			if info.Broker == h.executableBroker {
				executableQty = info.Quantity.IntPart()
				break
			}
		}
	}

	valid, verr := pricing.ValidateSellQuantity(executableQty, req.Quantity)
	response := map[string]interface{}{
		"valid":     valid,
		"available": executableQty,
		"requested": req.Quantity,
	}
	if verr != nil {
		var sellErr *contracts.SellQuantityError
		if errors.As(verr, &sellErr) {
			response["reason"] = string(sellErr.Kind)
		}
		response["message"] = verr.Error()
	}

	respondJSON(w, http.StatusOK, response)
}

// priceBasis assembles the reference prices and current quote for one
// instrument. An instrument the user does not hold yields empty
// references; strategies that need them fail downstream with
// MissingReferenceError.
func (h *PriceHandler) priceBasis(ctx context.Context, userID int64, ticker, rawMarket string) (contracts.ReferencePrices, decimal.Decimal, error) {
	market, err := contracts.ParseMarket(rawMarket)
	if err != nil {
		return contracts.ReferencePrices{}, decimal.Zero, err
	}

	row, err := h.lookupHolding(ctx, userID, ticker, rawMarket)
	if err != nil {
		return contracts.ReferencePrices{}, decimal.Zero, err
	}

	if row != nil {
		ref := position.BuildReferencePrices(row.Holdings)
		if !row.CurrentPrice.IsZero() {
			return ref, row.CurrentPrice, nil
		}
		price, err := h.data.FetchQuote(ctx, ticker, market)
		if err != nil {
			return contracts.ReferencePrices{}, decimal.Zero, err
		}
		return ref, price, nil
	}

	price, err := h.data.FetchQuote(ctx, ticker, market)
	if err != nil {
		return contracts.ReferencePrices{}, decimal.Zero, err
	}
	return contracts.ReferencePrices{}, price, nil
}

// lookupHolding finds the merged row for one ticker, or nil when the
// user holds none of it.
func (h *PriceHandler) lookupHolding(ctx context.Context, userID int64, ticker, rawMarket string) (*contracts.MergedHolding, error) {
	market, err := contracts.ParseMarket(rawMarket)
	if err != nil {
		return nil, err
	}

	merged, err := h.service.BuildMergedPortfolio(ctx, userID, &market)
	if err != nil {
		return nil, err
	}

	want := strings.ToUpper(strings.TrimSpace(ticker))
	for i := range merged {
		if strings.ToUpper(merged[i].Ticker) == want {
			return &merged[i], nil
		}
	}
	return nil, nil
}

func manualDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
