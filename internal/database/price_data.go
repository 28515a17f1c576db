package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

// UpsertPriceHistoryBatch inserts or updates daily closes in one transaction
func (db *DB) UpsertPriceHistoryBatch(prices []*models.PriceHistory) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (ticker, date, close)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, date) DO UPDATE SET
			close = EXCLUDED.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		_, err := stmt.Exec(p.Ticker, p.Date, p.Close)
		if err != nil {
			return fmt.Errorf("failed to upsert price for %s on %s: %w", p.Ticker, p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// PriceOnOrAfter returns the first close for ticker on or after date.
// A date past the last stored close has no value.
func (db *DB) PriceOnOrAfter(ticker string, date time.Time) (decimal.NullDecimal, error) {
	query := `
		SELECT close FROM price_history
		WHERE ticker = $1 AND date >= $2
		ORDER BY date ASC
		LIMIT 1
	`
	return db.queryClose(query, ticker, date)
}

// PriceOnOrBefore returns the last close for ticker on or before date
func (db *DB) PriceOnOrBefore(ticker string, date time.Time) (decimal.NullDecimal, error) {
	query := `
		SELECT close FROM price_history
		WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`
	return db.queryClose(query, ticker, date)
}

// LatestPrice returns the most recent close for ticker
func (db *DB) LatestPrice(ticker string) (decimal.NullDecimal, error) {
	query := `
		SELECT close FROM price_history
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`
	return db.queryClose(query, ticker)
}

func (db *DB) queryClose(query string, args ...interface{}) (decimal.NullDecimal, error) {
	var px decimal.Decimal
	err := db.conn.QueryRow(query, args...).Scan(&px)
	if err == sql.ErrNoRows {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to get price: %w", err)
	}
	return decimal.NewNullDecimal(px), nil
}

// GetPriceRange retrieves closes for ticker within a date range, oldest first
func (db *DB) GetPriceRange(ticker string, startDate, endDate time.Time) ([]*models.PriceHistory, error) {
	query := `
		SELECT id, ticker, date, close
		FROM price_history
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, ticker, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get price range: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceHistory
	for rows.Next() {
		var p models.PriceHistory
		if err := rows.Scan(&p.ID, &p.Ticker, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, &p)
	}

	return prices, rows.Err()
}
