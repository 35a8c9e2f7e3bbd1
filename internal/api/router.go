package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dokyun/folio/internal/api/handlers"
	"github.com/dokyun/folio/pkg/logger"
)

// Handlers bundles every endpoint group the router exposes.
type Handlers struct {
	Health    *handlers.HealthHandler
	Portfolio *handlers.PortfolioHandler
	Price     *handlers.PriceHandler
	Screen    *handlers.ScreenHandler
	Recommend *handlers.RecommendHandler
	Accounts  *handlers.AccountsHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Health).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Portfolio
	api.HandleFunc("/portfolio", h.Portfolio.GetPortfolio).Methods("GET")

	// Price decisions
	api.HandleFunc("/price/buy", h.Price.BuyPrice).Methods("POST")
	api.HandleFunc("/price/sell", h.Price.SellPrice).Methods("POST")
	api.HandleFunc("/price/validate-sell", h.Price.ValidateSellQuantity).Methods("POST")

	// Screening & recommendation
	api.HandleFunc("/screen", h.Screen.Screen).Methods("POST")
	api.HandleFunc("/recommend", h.Recommend.Recommend).Methods("POST")

	// Accounts & manual holdings
	api.HandleFunc("/accounts", h.Accounts.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts", h.Accounts.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}", h.Accounts.DeleteAccount).Methods("DELETE")
	api.HandleFunc("/holdings", h.Accounts.UpsertHolding).Methods("POST")
	api.HandleFunc("/holdings/{id}", h.Accounts.DeleteHolding).Methods("DELETE")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
