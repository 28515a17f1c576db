package models

import "time"

// Ingest run status constants
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// IngestRun is the audit record of one pipeline pass
type IngestRun struct {
	ID                 int        `json:"id"`
	EventID            string     `json:"event_id,omitempty"`
	RunAt              time.Time  `json:"run_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	CompaniesProcessed int        `json:"companies_processed"`
	NewFilingRows      int        `json:"new_filing_rows"`
	NewStakeRows       int        `json:"new_stake_rows"`
	AnalyticsRefreshed int        `json:"analytics_refreshed"`
	FlagsRaised        int        `json:"flags_raised"`
	Errors             string     `json:"errors,omitempty"`
	Status             string     `json:"status"`
}
