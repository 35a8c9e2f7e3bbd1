package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dokyun/folio/internal/contracts"
)

// Helper functions shared by all handlers.

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps the typed domain errors onto HTTP statuses:
// caller mistakes are 400/404/422, everything else is 500.
func respondDomainError(w http.ResponseWriter, err error) {
	var invalidMarket *contracts.InvalidMarketError
	var invalidStrategy *contracts.InvalidStrategyError
	var unsupportedFilter *contracts.UnsupportedFilterError
	var missingRef *contracts.MissingReferenceError
	var invalidManual *contracts.InvalidManualPriceError
	var sellQty *contracts.SellQuantityError

	switch {
	case errors.As(err, &invalidMarket),
		errors.As(err, &invalidStrategy),
		errors.As(err, &unsupportedFilter):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &missingRef):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.As(err, &invalidManual), errors.As(err, &sellQty):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
