package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rsmith2002/filingwatcher/internal/database"
	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pingErr   error
	companies []*models.Company
	analytics map[string][]*models.InsiderAnalytics
	flags     []*models.Flag
	dismissed []int
	gotLimit  int
	gotAll    bool
}

func (s *fakeStore) Ping() error { return s.pingErr }

func (s *fakeStore) GetCompanies() ([]*models.Company, error) { return s.companies, nil }

func (s *fakeStore) GetInsiderAnalyticsByTicker(ticker string) ([]*models.InsiderAnalytics, error) {
	return s.analytics[ticker], nil
}

func (s *fakeStore) GetInsiderAnalytics(ticker, insiderName string) (*models.InsiderAnalytics, error) {
	for _, a := range s.analytics[ticker] {
		if a.InsiderName == insiderName {
			return a, nil
		}
	}
	return nil, fmt.Errorf("insider analytics for %s/%s: %w", ticker, insiderName, database.ErrNotFound)
}

func (s *fakeStore) GetRecentFlags(limit int, includeDismissed bool) ([]*models.Flag, error) {
	s.gotLimit = limit
	s.gotAll = includeDismissed
	return s.flags, nil
}

func (s *fakeStore) DismissFlag(id int) error {
	for _, f := range s.flags {
		if f.ID == id {
			f.IsDismissed = true
			s.dismissed = append(s.dismissed, id)
			return nil
		}
	}
	return fmt.Errorf("flag %d: %w", id, database.ErrNotFound)
}

type fakeRefresher struct {
	tickers []string
	err     error
}

func (r *fakeRefresher) Refresh(ctx context.Context, ticker string) (int, error) {
	r.tickers = append(r.tickers, ticker)
	return 2, r.err
}

func newTestServer() (*fakeStore, *fakeRefresher, http.Handler) {
	store := &fakeStore{
		analytics: map[string][]*models.InsiderAnalytics{
			"ACME": {
				{Ticker: "ACME", InsiderName: "Jane Doe", NOpenMktBuys: 2, OpenMktWACB: decimal.NewNullDecimal(decimal.NewFromInt(15))},
				{Ticker: "ACME", InsiderName: "John Roe"},
			},
		},
		flags: []*models.Flag{
			{ID: 1, Ticker: "ACME", FlagType: models.FlagTypeClusterBuy, Severity: models.SeverityHigh},
		},
	}
	refresher := &fakeRefresher{}
	return store, refresher, SetupRoutes(NewHandler(store, refresher))
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	store, _, h := newTestServer()

	rec := serve(h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	store.pingErr = errors.New("connection refused")
	rec = serve(h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyticsRoutes(t *testing.T) {
	_, refresher, h := newTestServer()

	t.Run("list is case-insensitive on ticker", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/v1/tickers/acme/analytics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var records []models.InsiderAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, "Jane Doe", records[0].InsiderName)
		assert.True(t, decimal.NewFromInt(15).Equal(records[0].OpenMktWACB.Decimal))
		assert.False(t, records[1].OpenMktWACB.Valid)
	})

	t.Run("unknown ticker is an empty list", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/v1/tickers/NONE/analytics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("single insider", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/v1/tickers/ACME/analytics/Jane%20Doe")
		require.Equal(t, http.StatusOK, rec.Code)

		var record models.InsiderAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
		assert.Equal(t, 2, record.NOpenMktBuys)

		rec = serve(h, http.MethodGet, "/api/v1/tickers/ACME/analytics/Nobody")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/v1/tickers/acme/refresh")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ticker":"ACME","insiders":2}`, rec.Body.String())
		assert.Equal(t, []string{"ACME"}, refresher.tickers)

		refresher.err = errors.New("price lookup failed")
		rec = serve(h, http.MethodPost, "/api/v1/tickers/acme/refresh")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestFlagRoutes(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		store, _, h := newTestServer()

		rec := serve(h, http.MethodGet, "/api/v1/flags")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, defaultFlagLimit, store.gotLimit)
		assert.False(t, store.gotAll)
	})

	t.Run("query parameters", func(t *testing.T) {
		store, _, h := newTestServer()

		rec := serve(h, http.MethodGet, "/api/v1/flags?limit=10000&include_dismissed=true")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, maxFlagLimit, store.gotLimit)
		assert.True(t, store.gotAll)
	})

	t.Run("invalid query parameters", func(t *testing.T) {
		_, _, h := newTestServer()

		assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/flags?limit=-1").Code)
		assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/flags?limit=ten").Code)
		assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/v1/flags?include_dismissed=maybe").Code)
	})

	t.Run("dismiss", func(t *testing.T) {
		store, _, h := newTestServer()

		rec := serve(h, http.MethodPost, "/api/v1/flags/1/dismiss")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []int{1}, store.dismissed)

		rec = serve(h, http.MethodPost, "/api/v1/flags/99/dismiss")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = serve(h, http.MethodPost, "/api/v1/flags/abc/dismiss")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetCompanies_EmptyList(t *testing.T) {
	_, _, h := newTestServer()

	rec := serve(h, http.MethodGet, "/api/v1/companies")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
