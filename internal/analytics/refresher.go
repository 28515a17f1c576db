package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

// Store defines the persistence operations the refresher depends on
type Store interface {
	GetFilingsByTicker(ticker string) ([]*models.Filing, error)
	// UpsertInsiderAnalyticsBatch must write all records or none.
	UpsertInsiderAnalyticsBatch(records []*models.InsiderAnalytics) error
}

// Notifier is told about each completed ticker refresh
type Notifier interface {
	PublishAnalyticsRefreshed(ctx context.Context, ticker string, insiders int) error
}

// Refresher recomputes insider analytics per ticker
type Refresher struct {
	store    Store
	computer *Computer
	notifier Notifier
}

// NewRefresher creates a Refresher. notifier may be nil.
func NewRefresher(store Store, prices PriceSource, windows []models.ReturnWindow, notifier Notifier) *Refresher {
	return &Refresher{
		store:    store,
		computer: NewComputer(prices, windows),
		notifier: notifier,
	}
}

// Refresh rebuilds the analytics record of every insider with filings for
// ticker and returns how many insiders were written. Rows without an insider
// name are skipped. Nothing is written if any insider fails to compute.
func (r *Refresher) Refresh(ctx context.Context, ticker string) (int, error) {
	rows, err := r.store.GetFilingsByTicker(ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to load filings for %s: %w", ticker, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	groups := groupByInsider(rows)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]*models.InsiderAnalytics, 0, len(names))
	for _, name := range names {
		rec, err := r.computer.Compute(ticker, name, groups[name])
		if err != nil {
			return 0, fmt.Errorf("failed to compute analytics for %s/%s: %w", ticker, name, err)
		}
		records = append(records, rec)
	}

	if err := r.store.UpsertInsiderAnalyticsBatch(records); err != nil {
		return 0, fmt.Errorf("failed to save analytics for %s: %w", ticker, err)
	}

	if r.notifier != nil {
		if err := r.notifier.PublishAnalyticsRefreshed(ctx, ticker, len(records)); err != nil {
			log.Printf("Failed to publish analytics refresh for %s: %v", ticker, err)
		}
	}

	return len(records), nil
}

// RefreshAll refreshes every ticker, continuing past failures. It returns the
// total insiders written and the joined per-ticker errors.
func (r *Refresher) RefreshAll(ctx context.Context, tickers []string) (int, error) {
	total := 0
	var errs []error
	for _, ticker := range tickers {
		n, err := r.Refresh(ctx, ticker)
		if err != nil {
			log.Printf("Analytics refresh failed for %s: %v", ticker, err)
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		log.Printf("Analytics refreshed for %s: %d insiders", ticker, n)
		total += n
	}
	return total, errors.Join(errs...)
}

func groupByInsider(rows []*models.Filing) map[string][]*models.Filing {
	groups := make(map[string][]*models.Filing)
	for _, row := range rows {
		name := row.InsiderKey()
		if name == "" {
			continue
		}
		groups[name] = append(groups[name], row)
	}
	return groups
}
