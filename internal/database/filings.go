package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rsmith2002/filingwatcher/internal/models"
)

const filingColumns = `
	id, accession_no, ticker, company_name, filing_form, filing_date,
	insider_name, insider_cik, is_director, is_officer, is_ten_pct_owner, officer_title,
	transaction_date, security_title, transaction_code, acquired_disposed,
	shares, price, value, shares_remaining, is_derivative, is_10b5_1_plan, created_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CreateFilingsBatch inserts filing rows in one transaction and sets their IDs
func (db *DB) CreateFilingsBatch(filings []*models.Filing) ([]int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO section16_filings (
			accession_no, ticker, company_name, filing_form, filing_date,
			insider_name, insider_cik, is_director, is_officer, is_ten_pct_owner, officer_title,
			transaction_date, security_title, transaction_code, acquired_disposed,
			shares, price, value, shares_remaining, is_derivative, is_10b5_1_plan, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	ids := make([]int, 0, len(filings))
	for _, f := range filings {
		err := stmt.QueryRow(
			f.AccessionNo, f.Ticker, f.CompanyName, f.FilingForm, f.FilingDate,
			f.InsiderName, f.InsiderCIK, f.IsDirector, f.IsOfficer, f.IsTenPctOwner, f.OfficerTitle,
			f.TransactionDate, f.SecurityTitle, f.TransactionCode, f.AcquiredDisposed,
			f.Shares, f.Price, f.Value, f.SharesRemaining, f.IsDerivative, f.Is10b51Plan, now,
		).Scan(&f.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert filing %s: %w", f.AccessionNo, err)
		}
		f.CreatedAt = now
		ids = append(ids, f.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// GetFilingsByTicker retrieves every filing row for a ticker
func (db *DB) GetFilingsByTicker(ticker string) ([]*models.Filing, error) {
	query := `SELECT ` + filingColumns + `
		FROM section16_filings
		WHERE ticker = $1
		ORDER BY transaction_date ASC NULLS FIRST, id ASC
	`
	return db.scanFilings(db.conn.Query(query, ticker))
}

// GetFilingsByIDs retrieves the filing rows with the given IDs
func (db *DB) GetFilingsByIDs(ids []int) ([]*models.Filing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + filingColumns + `
		FROM section16_filings
		WHERE id = ANY($1)
		ORDER BY id ASC
	`
	return db.scanFilings(db.conn.Query(query, pq.Array(ids)))
}

// GetFilingIDsCreatedSince returns IDs of filing rows stored at or after since
func (db *DB) GetFilingIDsCreatedSince(since time.Time) ([]int, error) {
	rows, err := db.conn.Query(`
		SELECT id FROM section16_filings
		WHERE created_at >= $1
		ORDER BY id ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query filing ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan filing id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasPriorPurchase reports whether the insider has a non-derivative Code=P
// row for ticker under any accession other than excludeAccession
func (db *DB) HasPriorPurchase(ticker, insiderName, excludeAccession string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM section16_filings
			WHERE ticker = $1 AND BTRIM(insider_name) = $2
			  AND transaction_code = 'P' AND is_derivative = false
			  AND accession_no <> $3
		)
	`
	var exists bool
	if err := db.conn.QueryRow(query, ticker, insiderName, excludeAccession).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check prior purchases: %w", err)
	}
	return exists, nil
}

// PriorOpenMarketTransactions returns the insider's non-derivative P/S rows
// for ticker dated strictly before the given date, newest first
func (db *DB) PriorOpenMarketTransactions(ticker, insiderName string, before time.Time) ([]*models.Filing, error) {
	query := `SELECT ` + filingColumns + `
		FROM section16_filings
		WHERE ticker = $1 AND BTRIM(insider_name) = $2
		  AND transaction_code IN ('P', 'S') AND is_derivative = false
		  AND transaction_date < $3
		ORDER BY transaction_date DESC, id DESC
	`
	return db.scanFilings(db.conn.Query(query, ticker, insiderName, before))
}

func (db *DB) scanFilings(rows *sql.Rows, err error) ([]*models.Filing, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query filings: %w", err)
	}
	defer rows.Close()

	var filings []*models.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		filings = append(filings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate filings: %w", err)
	}
	return filings, nil
}

func scanFiling(row rowScanner) (*models.Filing, error) {
	var f models.Filing
	var companyName, filingForm, insiderName, insiderCIK, officerTitle sql.NullString
	var securityTitle, transactionCode, acquiredDisposed sql.NullString
	var filingDate, transactionDate sql.NullTime
	var plan sql.NullBool

	err := row.Scan(
		&f.ID, &f.AccessionNo, &f.Ticker, &companyName, &filingForm, &filingDate,
		&insiderName, &insiderCIK, &f.IsDirector, &f.IsOfficer, &f.IsTenPctOwner, &officerTitle,
		&transactionDate, &securityTitle, &transactionCode, &acquiredDisposed,
		&f.Shares, &f.Price, &f.Value, &f.SharesRemaining, &f.IsDerivative, &plan, &f.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan filing: %w", err)
	}

	f.CompanyName = companyName.String
	f.FilingForm = filingForm.String
	f.InsiderName = insiderName.String
	f.InsiderCIK = insiderCIK.String
	f.OfficerTitle = officerTitle.String
	f.SecurityTitle = securityTitle.String
	f.TransactionCode = transactionCode.String
	f.AcquiredDisposed = acquiredDisposed.String
	f.FilingDate = nullTime(filingDate)
	f.TransactionDate = nullTime(transactionDate)
	if plan.Valid {
		v := plan.Bool
		f.Is10b51Plan = &v
	}

	return &f, nil
}
