package models

import "time"

// Event type constants
const (
	EventFilingsIngested    = "FILINGS_INGESTED"
	EventFlagRaised         = "FLAG_RAISED"
	EventAnalyticsRefreshed = "ANALYTICS_REFRESHED"
)

// IngestEvent is published by the filing source after new rows are stored
type IngestEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Tickers   []string  `json:"tickers,omitempty"`
	FilingIDs []int     `json:"filing_ids"`
	StakeIDs  []int     `json:"stake_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FlagEvent announces a newly raised flag
type FlagEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Flag      *Flag     `json:"flag"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsEvent announces a completed analytics refresh for a ticker
type AnalyticsEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Ticker    string    `json:"ticker"`
	Insiders  int       `json:"insiders"`
	Timestamp time.Time `json:"timestamp"`
}
