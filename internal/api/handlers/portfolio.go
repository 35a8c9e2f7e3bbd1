package handlers

import (
	"net/http"
	"strconv"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/holdings"
	"github.com/dokyun/folio/pkg/logger"
)

// PortfolioHandler serves the merged portfolio view
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	service *holdings.Service
	logger  *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(service *holdings.Service, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{service: service, logger: log}
}

// GetPortfolio returns the merged multi-broker portfolio
// GET /api/portfolio?user_id=1&market=KR
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var market *contracts.Market
	if raw := r.URL.Query().Get("market"); raw != "" {
		m, err := contracts.ParseMarket(raw)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		market = &m
	}

	merged, err := h.service.BuildMergedPortfolio(ctx, userID, market)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build merged portfolio")
		respondError(w, http.StatusInternalServerError, "Failed to build portfolio")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": merged,
		"count":    len(merged),
	})
}

// parseUserID reads the required user_id query parameter.
func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "user_id must be a positive integer")
		return 0, false
	}
	return userID, true
}
