package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

// FlagExists reports whether a flag of flagType is already recorded for accessionNo
func (db *DB) FlagExists(accessionNo, flagType string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM flags WHERE accession_no = $1 AND flag_type = $2)`
	var exists bool
	if err := db.conn.QueryRow(query, accessionNo, flagType).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check flag: %w", err)
	}
	return exists, nil
}

// CreateFlags inserts flags in one transaction. Pairs that already exist are
// skipped; the returned slice holds only the rows that were inserted.
func (db *DB) CreateFlags(flags []*models.Flag) ([]*models.Flag, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO flags (
			ticker, insider_name, accession_no, flag_type, severity, description, flagged_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (accession_no, flag_type) DO NOTHING
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var saved []*models.Flag
	for _, f := range flags {
		err := stmt.QueryRow(
			f.Ticker, f.InsiderName, f.AccessionNo, f.FlagType, f.Severity, f.Description, now,
		).Scan(&f.ID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert %s flag for %s: %w", f.FlagType, f.AccessionNo, err)
		}
		f.FlaggedAt = now
		saved = append(saved, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return saved, nil
}

// GetRecentFlags retrieves the newest flags, optionally including dismissed ones
func (db *DB) GetRecentFlags(limit int, includeDismissed bool) ([]*models.Flag, error) {
	query := `
		SELECT id, ticker, insider_name, accession_no, flag_type, severity,
		       description, flagged_at, is_dismissed
		FROM flags
		WHERE ($2 OR is_dismissed = false)
		ORDER BY flagged_at DESC, id DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit, includeDismissed)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.Flag
	for rows.Next() {
		var f models.Flag
		var insiderName, description sql.NullString

		err := rows.Scan(
			&f.ID, &f.Ticker, &insiderName, &f.AccessionNo, &f.FlagType, &f.Severity,
			&description, &f.FlaggedAt, &f.IsDismissed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}

		f.InsiderName = insiderName.String
		f.Description = description.String
		flags = append(flags, &f)
	}

	return flags, rows.Err()
}

// DismissFlag marks a flag as dismissed
func (db *DB) DismissFlag(id int) error {
	result, err := db.conn.Exec(`UPDATE flags SET is_dismissed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to dismiss flag: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("flag %d: %w", id, ErrNotFound)
	}
	return nil
}
