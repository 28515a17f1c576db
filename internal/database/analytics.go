package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

const analyticsColumns = `
	id, ticker, insider_name, insider_cik, company_name, officer_title,
	is_director, is_officer, is_ten_pct_owner, first_txn_date, last_filing_date,
	entry_price, current_price, stock_pct_since_entry, window_returns,
	last_reported_shares, current_position_value,
	n_open_mkt_buys, open_mkt_shares_bought, open_mkt_total_cost, open_mkt_wacb,
	open_mkt_unrealized_pct, open_mkt_unrealized_usd,
	n_open_mkt_sells, open_mkt_shares_sold, open_mkt_total_proceeds, open_mkt_avg_sell_price, realized_pct,
	shares_awarded, award_current_value, net_open_mkt_shares, pct_trades_on_10b5_plan, computed_at
`

// UpsertInsiderAnalyticsBatch writes a ticker's analytics records in a single
// transaction, replacing any existing (ticker, insider_name) rows
func (db *DB) UpsertInsiderAnalyticsBatch(records []*models.InsiderAnalytics) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO insider_analytics (
			ticker, insider_name, insider_cik, company_name, officer_title,
			is_director, is_officer, is_ten_pct_owner, first_txn_date, last_filing_date,
			entry_price, current_price, stock_pct_since_entry, window_returns,
			last_reported_shares, current_position_value,
			n_open_mkt_buys, open_mkt_shares_bought, open_mkt_total_cost, open_mkt_wacb,
			open_mkt_unrealized_pct, open_mkt_unrealized_usd,
			n_open_mkt_sells, open_mkt_shares_sold, open_mkt_total_proceeds, open_mkt_avg_sell_price, realized_pct,
			shares_awarded, award_current_value, net_open_mkt_shares, pct_trades_on_10b5_plan, computed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, now()
		)
		ON CONFLICT (ticker, insider_name) DO UPDATE SET
			insider_cik = EXCLUDED.insider_cik,
			company_name = EXCLUDED.company_name,
			officer_title = EXCLUDED.officer_title,
			is_director = EXCLUDED.is_director,
			is_officer = EXCLUDED.is_officer,
			is_ten_pct_owner = EXCLUDED.is_ten_pct_owner,
			first_txn_date = EXCLUDED.first_txn_date,
			last_filing_date = EXCLUDED.last_filing_date,
			entry_price = EXCLUDED.entry_price,
			current_price = EXCLUDED.current_price,
			stock_pct_since_entry = EXCLUDED.stock_pct_since_entry,
			window_returns = EXCLUDED.window_returns,
			last_reported_shares = EXCLUDED.last_reported_shares,
			current_position_value = EXCLUDED.current_position_value,
			n_open_mkt_buys = EXCLUDED.n_open_mkt_buys,
			open_mkt_shares_bought = EXCLUDED.open_mkt_shares_bought,
			open_mkt_total_cost = EXCLUDED.open_mkt_total_cost,
			open_mkt_wacb = EXCLUDED.open_mkt_wacb,
			open_mkt_unrealized_pct = EXCLUDED.open_mkt_unrealized_pct,
			open_mkt_unrealized_usd = EXCLUDED.open_mkt_unrealized_usd,
			n_open_mkt_sells = EXCLUDED.n_open_mkt_sells,
			open_mkt_shares_sold = EXCLUDED.open_mkt_shares_sold,
			open_mkt_total_proceeds = EXCLUDED.open_mkt_total_proceeds,
			open_mkt_avg_sell_price = EXCLUDED.open_mkt_avg_sell_price,
			realized_pct = EXCLUDED.realized_pct,
			shares_awarded = EXCLUDED.shares_awarded,
			award_current_value = EXCLUDED.award_current_value,
			net_open_mkt_shares = EXCLUDED.net_open_mkt_shares,
			pct_trades_on_10b5_plan = EXCLUDED.pct_trades_on_10b5_plan,
			computed_at = EXCLUDED.computed_at
		RETURNING id, computed_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range records {
		windows, err := json.Marshal(a.WindowReturns)
		if err != nil {
			return fmt.Errorf("failed to encode window returns for %s/%s: %w", a.Ticker, a.InsiderName, err)
		}

		err = stmt.QueryRow(
			a.Ticker, a.InsiderName, a.InsiderCIK, a.CompanyName, a.OfficerTitle,
			a.IsDirector, a.IsOfficer, a.IsTenPctOwner, a.FirstTxnDate, a.LastFilingDate,
			a.EntryPrice, a.CurrentPrice, a.StockPctSinceEntry, string(windows),
			a.LastReportedShares, a.CurrentPositionValue,
			a.NOpenMktBuys, a.OpenMktSharesBought, a.OpenMktTotalCost, a.OpenMktWACB,
			a.OpenMktUnrealizedPct, a.OpenMktUnrealizedUSD,
			a.NOpenMktSells, a.OpenMktSharesSold, a.OpenMktTotalProceeds, a.OpenMktAvgSellPrice, a.RealizedPct,
			a.SharesAwarded, a.AwardCurrentValue, a.NetOpenMktShares, a.PctTradesOn10b5Plan,
		).Scan(&a.ID, &a.ComputedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert analytics for %s/%s: %w", a.Ticker, a.InsiderName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetInsiderAnalyticsByTicker lists the analytics records for a ticker,
// largest open-market buyers first
func (db *DB) GetInsiderAnalyticsByTicker(ticker string) ([]*models.InsiderAnalytics, error) {
	query := `SELECT ` + analyticsColumns + `
		FROM insider_analytics
		WHERE ticker = $1
		ORDER BY open_mkt_total_cost DESC NULLS LAST, insider_name ASC
	`
	rows, err := db.conn.Query(query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query insider analytics: %w", err)
	}
	defer rows.Close()

	var records []*models.InsiderAnalytics
	for rows.Next() {
		a, err := scanAnalytics(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// GetInsiderAnalytics retrieves the record for one (ticker, insider) pair
func (db *DB) GetInsiderAnalytics(ticker, insiderName string) (*models.InsiderAnalytics, error) {
	query := `SELECT ` + analyticsColumns + `
		FROM insider_analytics
		WHERE ticker = $1 AND insider_name = $2
	`
	a, err := scanAnalytics(db.conn.QueryRow(query, ticker, insiderName))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("insider analytics for %s/%s: %w", ticker, insiderName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAnalytics(row rowScanner) (*models.InsiderAnalytics, error) {
	var a models.InsiderAnalytics
	var insiderCIK, companyName, officerTitle sql.NullString
	var firstTxnDate, lastFilingDate sql.NullTime
	var windows []byte

	err := row.Scan(
		&a.ID, &a.Ticker, &a.InsiderName, &insiderCIK, &companyName, &officerTitle,
		&a.IsDirector, &a.IsOfficer, &a.IsTenPctOwner, &firstTxnDate, &lastFilingDate,
		&a.EntryPrice, &a.CurrentPrice, &a.StockPctSinceEntry, &windows,
		&a.LastReportedShares, &a.CurrentPositionValue,
		&a.NOpenMktBuys, &a.OpenMktSharesBought, &a.OpenMktTotalCost, &a.OpenMktWACB,
		&a.OpenMktUnrealizedPct, &a.OpenMktUnrealizedUSD,
		&a.NOpenMktSells, &a.OpenMktSharesSold, &a.OpenMktTotalProceeds, &a.OpenMktAvgSellPrice, &a.RealizedPct,
		&a.SharesAwarded, &a.AwardCurrentValue, &a.NetOpenMktShares, &a.PctTradesOn10b5Plan, &a.ComputedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan insider analytics: %w", err)
	}

	a.InsiderCIK = insiderCIK.String
	a.CompanyName = companyName.String
	a.OfficerTitle = officerTitle.String
	a.FirstTxnDate = nullTime(firstTxnDate)
	a.LastFilingDate = nullTime(lastFilingDate)
	if len(windows) > 0 {
		if err := json.Unmarshal(windows, &a.WindowReturns); err != nil {
			return nil, fmt.Errorf("failed to decode window returns: %w", err)
		}
	}

	return &a, nil
}
