package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnWindow is a named forward-return horizon measured in calendar days
type ReturnWindow struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Days  int    `json:"days" yaml:"days" validate:"gt=0"`
}

// WindowReturn is the stock's percent change from entry to entry+Days
type WindowReturn struct {
	Label string              `json:"label"`
	Days  int                 `json:"days"`
	Pct   decimal.NullDecimal `json:"pct"`
}

// InsiderAnalytics is the derived performance record for one (ticker, insider) pair.
// It is rebuilt from the full transaction history on every refresh.
type InsiderAnalytics struct {
	ID            int    `json:"id"`
	Ticker        string `json:"ticker"`
	InsiderName   string `json:"insider_name"`
	InsiderCIK    string `json:"insider_cik,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	OfficerTitle  string `json:"officer_title,omitempty"`
	IsDirector    bool   `json:"is_director"`
	IsOfficer     bool   `json:"is_officer"`
	IsTenPctOwner bool   `json:"is_ten_pct_owner"`

	FirstTxnDate   *time.Time `json:"first_txn_date,omitempty"`
	LastFilingDate *time.Time `json:"last_filing_date,omitempty"`

	EntryPrice         decimal.NullDecimal `json:"entry_price"`
	CurrentPrice       decimal.NullDecimal `json:"current_price"`
	StockPctSinceEntry decimal.NullDecimal `json:"stock_pct_since_entry"`
	WindowReturns      []WindowReturn      `json:"window_returns"`

	LastReportedShares   decimal.NullDecimal `json:"last_reported_shares"`
	CurrentPositionValue decimal.NullDecimal `json:"current_position_value"`

	NOpenMktBuys         int                 `json:"n_open_mkt_buys"`
	OpenMktSharesBought  decimal.NullDecimal `json:"open_mkt_shares_bought"`
	OpenMktTotalCost     decimal.NullDecimal `json:"open_mkt_total_cost"`
	OpenMktWACB          decimal.NullDecimal `json:"open_mkt_wacb"`
	OpenMktUnrealizedPct decimal.NullDecimal `json:"open_mkt_unrealized_pct"`
	OpenMktUnrealizedUSD decimal.NullDecimal `json:"open_mkt_unrealized_usd"`

	NOpenMktSells        int                 `json:"n_open_mkt_sells"`
	OpenMktSharesSold    decimal.NullDecimal `json:"open_mkt_shares_sold"`
	OpenMktTotalProceeds decimal.NullDecimal `json:"open_mkt_total_proceeds"`
	OpenMktAvgSellPrice  decimal.NullDecimal `json:"open_mkt_avg_sell_price"`
	RealizedPct          decimal.NullDecimal `json:"realized_pct"`

	SharesAwarded     decimal.NullDecimal `json:"shares_awarded"`
	AwardCurrentValue decimal.NullDecimal `json:"award_current_value"`

	NetOpenMktShares    decimal.Decimal `json:"net_open_mkt_shares"`
	PctTradesOn10b5Plan decimal.Decimal `json:"pct_trades_on_10b5_plan"`

	ComputedAt time.Time `json:"computed_at"`
}

// WindowPct returns the forward return for the labelled window, if configured
func (a *InsiderAnalytics) WindowPct(label string) decimal.NullDecimal {
	for _, w := range a.WindowReturns {
		if w.Label == label {
			return w.Pct
		}
	}
	return decimal.NullDecimal{}
}
