package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

// StartIngestRun records the start of a pipeline pass and sets run.ID
func (db *DB) StartIngestRun(run *models.IngestRun) error {
	query := `
		INSERT INTO ingest_runs (event_id, run_at, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if run.RunAt.IsZero() {
		run.RunAt = time.Now()
	}
	run.Status = models.RunStatusRunning

	var eventID interface{}
	if run.EventID != "" {
		eventID = run.EventID
	}

	if err := db.conn.QueryRow(query, eventID, run.RunAt, run.Status).Scan(&run.ID); err != nil {
		return fmt.Errorf("failed to start ingest run: %w", err)
	}
	return nil
}

// FinishIngestRun stores the counts, errors and final status of a run
func (db *DB) FinishIngestRun(run *models.IngestRun) error {
	query := `
		UPDATE ingest_runs SET
			finished_at = $2,
			companies_processed = $3,
			new_filing_rows = $4,
			new_stake_rows = $5,
			analytics_refreshed = $6,
			flags_raised = $7,
			errors = $8,
			status = $9
		WHERE id = $1
	`
	now := time.Now()
	var errs interface{}
	if run.Errors != "" {
		errs = run.Errors
	}

	result, err := db.conn.Exec(query,
		run.ID, now, run.CompaniesProcessed, run.NewFilingRows, run.NewStakeRows,
		run.AnalyticsRefreshed, run.FlagsRaised, errs, run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to finish ingest run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("ingest run %d: %w", run.ID, ErrNotFound)
	}
	run.FinishedAt = &now
	return nil
}

// LastSuccessfulRun returns the most recent run with status success, or nil
func (db *DB) LastSuccessfulRun() (*models.IngestRun, error) {
	query := `
		SELECT id, event_id, run_at, finished_at, companies_processed, new_filing_rows,
		       new_stake_rows, analytics_refreshed, flags_raised, errors, status
		FROM ingest_runs
		WHERE status = $1
		ORDER BY run_at DESC
		LIMIT 1
	`
	var run models.IngestRun
	var eventID, errs sql.NullString
	var finishedAt sql.NullTime

	err := db.conn.QueryRow(query, models.RunStatusSuccess).Scan(
		&run.ID, &eventID, &run.RunAt, &finishedAt, &run.CompaniesProcessed, &run.NewFilingRows,
		&run.NewStakeRows, &run.AnalyticsRefreshed, &run.FlagsRaised, &errs, &run.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}

	run.EventID = eventID.String
	run.Errors = errs.String
	run.FinishedAt = nullTime(finishedAt)
	return &run, nil
}

// RunExistsForEvent reports whether an ingest event has already been processed
func (db *DB) RunExistsForEvent(eventID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(`SELECT EXISTS (SELECT 1 FROM ingest_runs WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ingest run: %w", err)
	}
	return exists, nil
}
