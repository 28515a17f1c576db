package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/companies", handler.GetCompanies).Methods("GET")

	// Analytics routes
	api.HandleFunc("/tickers/{ticker}/analytics", handler.GetTickerAnalytics).Methods("GET")
	api.HandleFunc("/tickers/{ticker}/analytics/{insider}", handler.GetInsiderAnalytics).Methods("GET")
	api.HandleFunc("/tickers/{ticker}/refresh", handler.RefreshTicker).Methods("POST")

	// Flag routes
	api.HandleFunc("/flags", handler.GetFlags).Methods("GET")
	api.HandleFunc("/flags/{id:[0-9]+}/dismiss", handler.DismissFlag).Methods("POST")

	return r
}
