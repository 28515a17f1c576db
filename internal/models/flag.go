package models

import "time"

// Flag type constants
const (
	FlagTypeCEOCFOPurchase = "CEO_CFO_PURCHASE"
	FlagTypeClusterBuy     = "CLUSTER_BUY"
	FlagTypeLargePurchase  = "LARGE_PURCHASE"
	FlagTypeFirstPurchase  = "FIRST_PURCHASE"
	FlagTypeBullReversal   = "BULL_REVERSAL"
	FlagTypeConvictionBuy  = "CONVICTION_BUY"
	FlagTypeDipBuy         = "DIP_BUY"
	FlagTypeActivist13D    = "ACTIVIST_13D"
	FlagTypeThresholdCross = "THRESHOLD_CROSS"
)

// Severity constants
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Flag represents a persisted alert raised by a pattern detector.
// Flags are append-only; only IsDismissed is ever changed after insert.
type Flag struct {
	ID          int       `json:"id"`
	Ticker      string    `json:"ticker"`
	InsiderName string    `json:"insider_name"`
	AccessionNo string    `json:"accession_no"`
	FlagType    string    `json:"flag_type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	FlaggedAt   time.Time `json:"flagged_at"`
	IsDismissed bool      `json:"is_dismissed"`
}

// Key identifies a flag for deduplication purposes
func (f *Flag) Key() string {
	return f.AccessionNo + "|" + f.FlagType
}
