package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/pkg/logger"
)

// AccountsHandler serves broker account and manual holding CRUD
// ⭐ SSOT: 계좌/수동 보유 API 핸들러는 이 구조체에서만
type AccountsHandler struct {
	repo   *holdings.Repository
	logger *logger.Logger
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(repo *holdings.Repository, log *logger.Logger) *AccountsHandler {
	return &AccountsHandler{repo: repo, logger: log}
}

// ListAccounts returns all broker accounts of a user
// GET /api/accounts?user_id=1
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	accounts, err := h.repo.GetBrokerAccounts(ctx, userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list broker accounts")
		respondError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccountRequest registers one broker + label.
type CreateAccountRequest struct {
	UserID int64  `json:"user_id"`
	Broker string `json:"broker"`
	Label  string `json:"label"`
}

// CreateAccount registers a broker account
// POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID <= 0 || req.Broker == "" {
		respondError(w, http.StatusBadRequest, "user_id and broker are required")
		return
	}

	account, err := h.repo.CreateBrokerAccount(ctx, req.UserID, req.Broker, req.Label)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create broker account")
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

// DeleteAccount removes an account and its manual holdings
// DELETE /api/accounts/{id}?user_id=1
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	accountID, ok := parsePathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteBrokerAccount(ctx, userID, accountID); err != nil {
		h.logger.WithError(err).WithField("account_id", accountID).Warn("Failed to delete broker account")
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UpsertHoldingRequest creates or replaces one manual position.
type UpsertHoldingRequest struct {
	AccountID int64   `json:"account_id"`
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Market    string  `json:"market"`
	Quantity  float64 `json:"quantity"`
	AvgPrice  float64 `json:"avg_price"`
}

// UpsertHolding creates or updates a manual holding
// POST /api/holdings
func (h *AccountsHandler) UpsertHolding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpsertHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID <= 0 || req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "account_id and ticker are required")
		return
	}
	if req.Quantity <= 0 || req.AvgPrice <= 0 {
		respondError(w, http.StatusBadRequest, "quantity and avg_price must be positive")
		return
	}

	market, err := contracts.ParseMarket(req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	saved, err := h.repo.UpsertManualHolding(ctx, &contracts.ManualHolding{
		AccountID: req.AccountID,
		Ticker:    req.Ticker,
		Name:      req.Name,
		Market:    market,
		Quantity:  decimal.NewFromFloat(req.Quantity),
		AvgPrice:  decimal.NewFromFloat(req.AvgPrice),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to upsert manual holding")
		respondError(w, http.StatusInternalServerError, "Failed to save holding")
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// DeleteHolding removes a manual holding
// DELETE /api/holdings/{id}?user_id=1
func (h *AccountsHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	holdingID, ok := parsePathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteManualHolding(ctx, userID, holdingID); err != nil {
		h.logger.WithError(err).WithField("holding_id", holdingID).Warn("Failed to delete manual holding")
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// parsePathID reads one positive integer path variable.
func parsePathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
