package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Section 16 transaction code constants
const (
	TxnCodePurchase       = "P"
	TxnCodeSale           = "S"
	TxnCodeAward          = "A"
	TxnCodeTaxWithholding = "F"
	TxnCodeExercise       = "M"
	TxnCodeExerciseX      = "X"
	TxnCodeGift           = "G"
)

// Acquired/disposed constants
const (
	Acquired = "A"
	Disposed = "D"
)

// Filing represents a single transaction line of a Form 3/4/5 filing.
// Several lines usually share one AccessionNo.
type Filing struct {
	ID               int                 `json:"id"`
	AccessionNo      string              `json:"accession_no"`
	Ticker           string              `json:"ticker"`
	CompanyName      string              `json:"company_name,omitempty"`
	FilingForm       string              `json:"filing_form,omitempty"`
	FilingDate       *time.Time          `json:"filing_date,omitempty"`
	InsiderName      string              `json:"insider_name"`
	InsiderCIK       string              `json:"insider_cik,omitempty"`
	IsDirector       bool                `json:"is_director"`
	IsOfficer        bool                `json:"is_officer"`
	IsTenPctOwner    bool                `json:"is_ten_pct_owner"`
	OfficerTitle     string              `json:"officer_title,omitempty"`
	TransactionDate  *time.Time          `json:"transaction_date,omitempty"` // nil for Form 3 holdings
	SecurityTitle    string              `json:"security_title,omitempty"`
	TransactionCode  string              `json:"transaction_code,omitempty"`
	AcquiredDisposed string              `json:"acquired_disposed,omitempty"`
	Shares           decimal.NullDecimal `json:"shares"`
	Price            decimal.NullDecimal `json:"price"`
	Value            decimal.NullDecimal `json:"value"`
	SharesRemaining  decimal.NullDecimal `json:"shares_remaining"`
	IsDerivative     bool                `json:"is_derivative"`
	Is10b51Plan      *bool               `json:"is_10b5_1_plan,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// IsOpenMarketPurchase reports whether f is a non-derivative Code=P line.
func (f *Filing) IsOpenMarketPurchase() bool {
	return f.TransactionCode == TxnCodePurchase && !f.IsDerivative
}

// InsiderKey is the name that identifies the filing's insider. Blank means
// the row cannot be attributed to anyone.
func (f *Filing) InsiderKey() string {
	return strings.TrimSpace(f.InsiderName)
}

// LargeHolderStake represents a Schedule 13D/13G beneficial ownership report
type LargeHolderStake struct {
	ID              int                 `json:"id"`
	AccessionNo     string              `json:"accession_no"`
	Ticker          string              `json:"ticker"`
	CompanyName     string              `json:"company_name,omitempty"`
	FilingDate      *time.Time          `json:"filing_date,omitempty"`
	FilingForm      string              `json:"filing_form,omitempty"`
	DateOfEvent     *time.Time          `json:"date_of_event,omitempty"`
	AmendmentNumber *int                `json:"amendment_number,omitempty"`
	IsActivist      bool                `json:"is_activist"`
	HolderName      string              `json:"holder_name"`
	HolderCIK       string              `json:"holder_cik,omitempty"`
	HolderType      string              `json:"holder_type,omitempty"`
	AggregateShares decimal.NullDecimal `json:"aggregate_shares"`
	PercentOfClass  decimal.NullDecimal `json:"percent_of_class"`
	PurposeOfTxn    string              `json:"purpose_of_transaction,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}
