package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rsmith2002/filingwatcher/internal/database"
	"github.com/rsmith2002/filingwatcher/internal/models"
)

const (
	defaultFlagLimit = 50
	maxFlagLimit     = 500
)

// Store defines the read and dismiss operations the API serves
type Store interface {
	Ping() error
	GetCompanies() ([]*models.Company, error)
	GetInsiderAnalyticsByTicker(ticker string) ([]*models.InsiderAnalytics, error)
	GetInsiderAnalytics(ticker, insiderName string) (*models.InsiderAnalytics, error)
	GetRecentFlags(limit int, includeDismissed bool) ([]*models.Flag, error)
	DismissFlag(id int) error
}

// Refresher rebuilds analytics for a single ticker on demand
type Refresher interface {
	Refresh(ctx context.Context, ticker string) (int, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store     Store
	refresher Refresher
}

// NewHandler creates a new Handler
func NewHandler(store Store, refresher Refresher) *Handler {
	return &Handler{
		store:     store,
		refresher: refresher,
	}
}

// GetCompanies handles GET /companies
func (h *Handler) GetCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.GetCompanies()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if companies == nil {
		companies = []*models.Company{}
	}

	respondJSON(w, http.StatusOK, companies)
}

// GetTickerAnalytics handles GET /tickers/{ticker}/analytics
func (h *Handler) GetTickerAnalytics(w http.ResponseWriter, r *http.Request) {
	ticker := tickerVar(r)

	records, err := h.store.GetInsiderAnalyticsByTicker(ticker)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.InsiderAnalytics{}
	}

	respondJSON(w, http.StatusOK, records)
}

// GetInsiderAnalytics handles GET /tickers/{ticker}/analytics/{insider}
func (h *Handler) GetInsiderAnalytics(w http.ResponseWriter, r *http.Request) {
	ticker := tickerVar(r)
	insider := mux.Vars(r)["insider"]

	record, err := h.store.GetInsiderAnalytics(ticker, insider)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// RefreshTicker handles POST /tickers/{ticker}/refresh
func (h *Handler) RefreshTicker(w http.ResponseWriter, r *http.Request) {
	ticker := tickerVar(r)

	n, err := h.refresher.Refresh(r.Context(), ticker)
	if err != nil {
		log.Printf("Manual refresh failed for %s: %v", ticker, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"ticker": ticker, "insiders": n})
}

// GetFlags handles GET /flags?limit=&include_dismissed=
func (h *Handler) GetFlags(w http.ResponseWriter, r *http.Request) {
	limit := defaultFlagLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxFlagLimit)
	}

	includeDismissed := false
	if v := r.URL.Query().Get("include_dismissed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "include_dismissed must be a boolean", http.StatusBadRequest)
			return
		}
		includeDismissed = b
	}

	flags, err := h.store.GetRecentFlags(limit, includeDismissed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if flags == nil {
		flags = []*models.Flag{}
	}

	respondJSON(w, http.StatusOK, flags)
}

// DismissFlag handles POST /flags/{id}/dismiss
func (h *Handler) DismissFlag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid flag id", http.StatusBadRequest)
		return
	}

	err = h.store.DismissFlag(id)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func tickerVar(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["ticker"])
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
