package analytics

import (
	"fmt"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

// PriceSource answers closing-price questions for a ticker.
// A lookup with no matching price returns an invalid NullDecimal, not an error.
type PriceSource interface {
	PriceOnOrAfter(ticker string, date time.Time) (decimal.NullDecimal, error)
	LatestPrice(ticker string) (decimal.NullDecimal, error)
}

// Computer derives InsiderAnalytics for one (ticker, insider) transaction group
type Computer struct {
	prices  PriceSource
	windows []models.ReturnWindow
}

// NewComputer creates a Computer that evaluates the given return windows in order
func NewComputer(prices PriceSource, windows []models.ReturnWindow) *Computer {
	return &Computer{
		prices:  prices,
		windows: windows,
	}
}

// Compute builds the analytics record for rows, which must all belong to one
// (ticker, insider) pair. Missing inputs leave the dependent fields invalid;
// only price source failures are returned as errors.
func (c *Computer) Compute(ticker, insiderName string, rows []*models.Filing) (*models.InsiderAnalytics, error) {
	a := &models.InsiderAnalytics{
		Ticker:        ticker,
		InsiderName:   insiderName,
		WindowReturns: make([]models.WindowReturn, 0, len(c.windows)),
	}

	if latest := latestFiled(rows); latest != nil {
		a.InsiderCIK = latest.InsiderCIK
		a.CompanyName = latest.CompanyName
		a.OfficerTitle = latest.OfficerTitle
		a.IsDirector = latest.IsDirector
		a.IsOfficer = latest.IsOfficer
		a.IsTenPctOwner = latest.IsTenPctOwner
		a.LastFilingDate = copyDate(latest.FilingDate)
	}

	// Derivative lines never enter cost basis or position figures.
	nd := make([]*models.Filing, 0, len(rows))
	for _, r := range rows {
		if !r.IsDerivative {
			nd = append(nd, r)
		}
	}

	a.FirstTxnDate = firstTxnDate(nd)

	current, err := c.prices.LatestPrice(ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price for %s: %w", ticker, err)
	}
	a.CurrentPrice = current

	if a.FirstTxnDate != nil {
		entry, err := c.prices.PriceOnOrAfter(ticker, *a.FirstTxnDate)
		if err != nil {
			return nil, fmt.Errorf("failed to get entry price for %s: %w", ticker, err)
		}
		a.EntryPrice = entry
	}
	a.StockPctSinceEntry = PercentChange(a.EntryPrice, a.CurrentPrice)

	for _, w := range c.windows {
		wr := models.WindowReturn{Label: w.Label, Days: w.Days}
		if a.FirstTxnDate != nil && a.EntryPrice.Valid {
			target := a.FirstTxnDate.AddDate(0, 0, w.Days)
			p, err := c.prices.PriceOnOrAfter(ticker, target)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s window price for %s: %w", w.Label, ticker, err)
			}
			wr.Pct = PercentChange(a.EntryPrice, p)
		}
		a.WindowReturns = append(a.WindowReturns, wr)
	}

	a.LastReportedShares = lastReportedBalance(nd)
	a.CurrentPositionValue = mul(a.LastReportedShares, a.CurrentPrice)

	buys := byCode(nd, models.TxnCodePurchase)
	a.NOpenMktBuys = len(buys)
	a.OpenMktSharesBought = SafeSum(sharesOf(buys))
	a.OpenMktTotalCost = SafeSum(valuesOf(buys))
	a.OpenMktWACB = WeightedAverage(sharesOf(buys), pricesOf(buys))
	if a.OpenMktWACB.Valid && a.CurrentPrice.Valid && a.OpenMktSharesBought.Valid {
		a.OpenMktUnrealizedPct = PercentChange(a.OpenMktWACB, a.CurrentPrice)
		gain := a.CurrentPrice.Decimal.Sub(a.OpenMktWACB.Decimal)
		a.OpenMktUnrealizedUSD = decimal.NewNullDecimal(gain.Mul(a.OpenMktSharesBought.Decimal))
	}

	sells := byCode(nd, models.TxnCodeSale)
	a.NOpenMktSells = len(sells)
	a.OpenMktSharesSold = SafeSum(sharesOf(sells))
	a.OpenMktTotalProceeds = SafeSum(valuesOf(sells))
	a.OpenMktAvgSellPrice = WeightedAverage(sharesOf(sells), pricesOf(sells))
	// A seller with no buy history has no basis to realize against.
	a.RealizedPct = PercentChange(a.OpenMktWACB, a.OpenMktAvgSellPrice)

	awards := byCode(nd, models.TxnCodeAward)
	a.SharesAwarded = SafeSum(sharesOf(awards))
	a.AwardCurrentValue = mul(a.SharesAwarded, a.CurrentPrice)

	a.NetOpenMktShares = orZero(a.OpenMktSharesBought).Sub(orZero(a.OpenMktSharesSold))

	a.PctTradesOn10b5Plan = decimal.Zero
	if len(nd) > 0 {
		planned := 0
		for _, r := range nd {
			if r.Is10b51Plan != nil && *r.Is10b51Plan {
				planned++
			}
		}
		a.PctTradesOn10b5Plan = decimal.NewFromInt(int64(planned)).
			Div(decimal.NewFromInt(int64(len(nd)))).
			Mul(hundred)
	}

	return a, nil
}

// latestFiled picks the row with the latest filing date. Ties go to the
// highest row ID; rows without a filing date sort first.
func latestFiled(rows []*models.Filing) *models.Filing {
	var best *models.Filing
	for _, r := range rows {
		if best == nil || filedAfter(r, best) {
			best = r
		}
	}
	return best
}

func filedAfter(a, b *models.Filing) bool {
	switch {
	case a.FilingDate == nil && b.FilingDate == nil:
		return a.ID > b.ID
	case a.FilingDate == nil:
		return false
	case b.FilingDate == nil:
		return true
	case a.FilingDate.Equal(*b.FilingDate):
		return a.ID > b.ID
	default:
		return a.FilingDate.After(*b.FilingDate)
	}
}

func firstTxnDate(rows []*models.Filing) *time.Time {
	var first *time.Time
	for _, r := range rows {
		if r.TransactionDate == nil {
			continue
		}
		if first == nil || r.TransactionDate.Before(*first) {
			first = r.TransactionDate
		}
	}
	return copyDate(first)
}

// lastReportedBalance returns the post-transaction balance of the
// chronologically latest row that reports one. Undated rows (Form 3
// holdings) are treated as older than any dated row.
func lastReportedBalance(rows []*models.Filing) decimal.NullDecimal {
	var last *models.Filing
	for _, r := range rows {
		if !r.SharesRemaining.Valid {
			continue
		}
		if last == nil || tradedAfter(r, last) {
			last = r
		}
	}
	if last == nil {
		return decimal.NullDecimal{}
	}
	return last.SharesRemaining
}

func tradedAfter(a, b *models.Filing) bool {
	switch {
	case a.TransactionDate == nil && b.TransactionDate == nil:
		return filedAfter(a, b)
	case a.TransactionDate == nil:
		return false
	case b.TransactionDate == nil:
		return true
	case a.TransactionDate.Equal(*b.TransactionDate):
		return filedAfter(a, b)
	default:
		return a.TransactionDate.After(*b.TransactionDate)
	}
}

func byCode(rows []*models.Filing, code string) []*models.Filing {
	var out []*models.Filing
	for _, r := range rows {
		if r.TransactionCode == code {
			out = append(out, r)
		}
	}
	return out
}

func sharesOf(rows []*models.Filing) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(rows))
	for i, r := range rows {
		out[i] = r.Shares
	}
	return out
}

func pricesOf(rows []*models.Filing) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(rows))
	for i, r := range rows {
		out[i] = r.Price
	}
	return out
}

func valuesOf(rows []*models.Filing) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(rows))
	for i, r := range rows {
		out[i] = r.Value
	}
	return out
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := *t
	return &d
}
