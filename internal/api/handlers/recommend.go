package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dokyun/folio/internal/contracts"
	"github.com/dokyun/folio/internal/recommend"
	"github.com/dokyun/folio/pkg/logger"
)

// RecommendHandler serves budget-allocated recommendations
// ⭐ SSOT: 추천 API 핸들러는 이 구조체에서만
type RecommendHandler struct {
	recommender *recommend.Recommender
	logger      *logger.Logger
}

// NewRecommendHandler creates a new recommend handler
func NewRecommendHandler(recommender *recommend.Recommender, log *logger.Logger) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, logger: log}
}

// RecommendRequest is the recommendation payload.
type RecommendRequest struct {
	Budget         float64  `json:"budget"`
	Market         string   `json:"market"`
	Strategy       string   `json:"strategy"`
	ExcludeSymbols []string `json:"exclude_symbols,omitempty"`
	Sectors        []string `json:"sectors,omitempty"`
	MaxPositions   int      `json:"max_positions,omitempty"`
}

// Recommend runs one recommendation call
// POST /api/recommend
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	market, err := contracts.ParseMarket(req.Market)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	strategy, err := recommend.ParseStrategy(req.Strategy)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if req.Budget <= 0 {
		respondError(w, http.StatusBadRequest, "budget must be positive")
		return
	}

	result, err := h.recommender.Recommend(ctx, recommend.Request{
		Budget:         req.Budget,
		Market:         market,
		Strategy:       strategy,
		ExcludeSymbols: req.ExcludeSymbols,
		Sectors:        req.Sectors,
		MaxPositions:   req.MaxPositions,
	})
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"market":   req.Market,
			"strategy": req.Strategy,
		}).Error("Recommendation failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
