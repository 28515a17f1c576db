package flags

import (
	"fmt"
	"strings"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

var (
	dipYearDrop  = decimal.NewFromInt(-50)
	dipMonthDrop = decimal.NewFromInt(-20)
)

// DipBuy flags purchases made while the stock is down at least 50% on the
// year or 20% on the month.
type DipBuy struct{}

func (DipBuy) Type() string { return models.FlagTypeDipBuy }

func (d DipBuy) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}

		price := f.Price
		if !price.Valid || !price.Decimal.IsPositive() {
			price, err = l.PriceOnOrAfter(f.Ticker, *f.TransactionDate)
			if err != nil {
				return nil, fmt.Errorf("failed to get price for %s on %s: %w", f.Ticker, fmtDate(f.TransactionDate), err)
			}
		}
		if !price.Valid || !price.Decimal.IsPositive() {
			continue
		}

		var reasons []string
		legs := []struct {
			days      int
			threshold decimal.Decimal
			label     string
		}{
			{365, dipYearDrop, "1 year ago"},
			{30, dipMonthDrop, "1 month ago"},
		}
		for _, leg := range legs {
			past, err := l.PriceOnOrBefore(f.Ticker, f.TransactionDate.AddDate(0, 0, -leg.days))
			if err != nil {
				return nil, fmt.Errorf("failed to get %s price for %s: %w", leg.label, f.Ticker, err)
			}
			if !past.Valid || !past.Decimal.IsPositive() {
				continue
			}
			pct := price.Decimal.Div(past.Decimal).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
			if pct.LessThanOrEqual(leg.threshold) {
				reasons = append(reasons, fmt.Sprintf("down %s%% vs. %s", pct.Abs().StringFixed(0), leg.label))
			}
		}
		if len(reasons) == 0 {
			continue
		}

		out = append(out, newFlag(f, d.Type(), models.SeverityHigh, fmt.Sprintf(
			"%s bought %s shares of %s at %s on %s while the stock was %s. Insiders buying into significant drawdowns have the highest historical forward returns.",
			f.InsiderName, fmtShares(f.Shares), f.Ticker, fmtPrice(price), fmtDate(f.TransactionDate), strings.Join(reasons, " and "),
		)))
	}
	return out, nil
}
