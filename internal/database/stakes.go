package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rsmith2002/filingwatcher/internal/models"
)

const stakeColumns = `
	id, accession_no, ticker, company_name, filing_date, filing_form, date_of_event,
	amendment_number, is_activist, holder_name, holder_cik, holder_type,
	aggregate_shares, percent_of_class, purpose_of_transaction, created_at
`

// CreateStakesBatch inserts Schedule 13D/G rows in one transaction and sets their IDs
func (db *DB) CreateStakesBatch(stakes []*models.LargeHolderStake) ([]int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO large_holder_stakes (
			accession_no, ticker, company_name, filing_date, filing_form, date_of_event,
			amendment_number, is_activist, holder_name, holder_cik, holder_type,
			aggregate_shares, percent_of_class, purpose_of_transaction, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	ids := make([]int, 0, len(stakes))
	for _, s := range stakes {
		err := stmt.QueryRow(
			s.AccessionNo, s.Ticker, s.CompanyName, s.FilingDate, s.FilingForm, s.DateOfEvent,
			s.AmendmentNumber, s.IsActivist, s.HolderName, s.HolderCIK, s.HolderType,
			s.AggregateShares, s.PercentOfClass, s.PurposeOfTxn, now,
		).Scan(&s.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert stake %s: %w", s.AccessionNo, err)
		}
		s.CreatedAt = now
		ids = append(ids, s.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// GetStakesByIDs retrieves the stake rows with the given IDs
func (db *DB) GetStakesByIDs(ids []int) ([]*models.LargeHolderStake, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + stakeColumns + `
		FROM large_holder_stakes
		WHERE id = ANY($1)
		ORDER BY id ASC
	`
	rows, err := db.conn.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query stakes: %w", err)
	}
	defer rows.Close()

	var stakes []*models.LargeHolderStake
	for rows.Next() {
		s, err := scanStake(rows)
		if err != nil {
			return nil, err
		}
		stakes = append(stakes, s)
	}
	return stakes, rows.Err()
}

// GetStakeIDsCreatedSince returns IDs of stake rows stored at or after since
func (db *DB) GetStakeIDsCreatedSince(since time.Time) ([]int, error) {
	rows, err := db.conn.Query(`
		SELECT id FROM large_holder_stakes
		WHERE created_at >= $1
		ORDER BY id ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query stake ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stake id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LatestPriorStake returns the holder's most recent stake in ticker filed
// before the given date, ignoring excludeAccession. It returns nil, nil when
// there is none.
func (db *DB) LatestPriorStake(ticker, holderName string, before time.Time, excludeAccession string) (*models.LargeHolderStake, error) {
	query := `SELECT ` + stakeColumns + `
		FROM large_holder_stakes
		WHERE ticker = $1 AND holder_name = $2
		  AND filing_date < $3 AND accession_no <> $4
		ORDER BY filing_date DESC, id DESC
		LIMIT 1
	`
	s, err := scanStake(db.conn.QueryRow(query, ticker, holderName, before, excludeAccession))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanStake(row rowScanner) (*models.LargeHolderStake, error) {
	var s models.LargeHolderStake
	var companyName, filingForm, holderName, holderCIK, holderType, purpose sql.NullString
	var filingDate, dateOfEvent sql.NullTime
	var amendment sql.NullInt64

	err := row.Scan(
		&s.ID, &s.AccessionNo, &s.Ticker, &companyName, &filingDate, &filingForm, &dateOfEvent,
		&amendment, &s.IsActivist, &holderName, &holderCIK, &holderType,
		&s.AggregateShares, &s.PercentOfClass, &purpose, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stake: %w", err)
	}

	s.CompanyName = companyName.String
	s.FilingForm = filingForm.String
	s.HolderName = holderName.String
	s.HolderCIK = holderCIK.String
	s.HolderType = holderType.String
	s.PurposeOfTxn = purpose.String
	s.FilingDate = nullTime(filingDate)
	s.DateOfEvent = nullTime(dateOfEvent)
	if amendment.Valid {
		n := int(amendment.Int64)
		s.AmendmentNumber = &n
	}

	return &s, nil
}
