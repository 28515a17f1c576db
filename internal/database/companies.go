package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

// UpsertCompany adds a company to the watchlist or refreshes its details
func (db *DB) UpsertCompany(c *models.Company) error {
	query := `
		INSERT INTO companies (ticker, name, cik, sector, enabled, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			cik = COALESCE(NULLIF(EXCLUDED.cik, ''), companies.cik),
			sector = COALESCE(NULLIF(EXCLUDED.sector, ''), companies.sector),
			enabled = EXCLUDED.enabled
		RETURNING added_at
	`
	err := db.conn.QueryRow(query, c.Ticker, c.Name, c.CIK, c.Sector, c.Enabled, time.Now()).Scan(&c.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", c.Ticker, err)
	}
	return nil
}

// GetCompanies retrieves every watchlist entry
func (db *DB) GetCompanies() ([]*models.Company, error) {
	rows, err := db.conn.Query(`
		SELECT ticker, name, cik, sector, enabled, added_at
		FROM companies
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		var name, cik, sector sql.NullString
		if err := rows.Scan(&c.Ticker, &name, &cik, &sector, &c.Enabled, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.Name = name.String
		c.CIK = cik.String
		c.Sector = sector.String
		companies = append(companies, &c)
	}

	return companies, rows.Err()
}

// GetEnabledTickers returns the tickers of enabled watchlist entries
func (db *DB) GetEnabledTickers() ([]string, error) {
	rows, err := db.conn.Query(`SELECT ticker FROM companies WHERE enabled = true ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	return tickers, rows.Err()
}

// SetCompanyEnabled turns a watchlist entry on or off
func (db *DB) SetCompanyEnabled(ticker string, enabled bool) error {
	result, err := db.conn.Exec(`UPDATE companies SET enabled = $2 WHERE ticker = $1`, ticker, enabled)
	if err != nil {
		return fmt.Errorf("failed to update company %s: %w", ticker, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("company %s: %w", ticker, ErrNotFound)
	}
	return nil
}
