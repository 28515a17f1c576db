package flags

import (
	"fmt"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

const (
	reversalMinSells = 3
	reversalMinDays  = 365
)

// BullReversal flags a purchase after sustained selling: either a run of at
// least three consecutive sells, or sell-only history spanning a year or more.
type BullReversal struct{}

func (BullReversal) Type() string { return models.FlagTypeBullReversal }

func (d BullReversal) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}

		prior, err := l.PriorOpenMarketTransactions(f.Ticker, f.InsiderName, *f.TransactionDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load prior transactions for %s/%s: %w", f.Ticker, f.InsiderName, err)
		}
		if len(prior) == 0 {
			continue
		}

		consecutive := 0
		for _, p := range prior {
			if p.TransactionCode != models.TxnCodeSale {
				break
			}
			consecutive++
		}

		spanDays := sellOnlySpanDays(f, prior)

		var desc string
		switch {
		case consecutive >= reversalMinSells:
			desc = fmt.Sprintf(
				"%s has been selling %s for %d consecutive transactions but just made an open-market BUY of %s shares at %s on %s. Flipping after sustained selling is a strong bullish reversal signal.",
				f.InsiderName, f.Ticker, consecutive, fmtShares(f.Shares), fmtPrice(f.Price), fmtDate(f.TransactionDate),
			)
		case spanDays >= reversalMinDays:
			desc = fmt.Sprintf(
				"%s had been exclusively selling %s for %.1f years but just made an open-market BUY of %s shares at %s on %s. Buying after over a year of selling is a strong reversal signal.",
				f.InsiderName, f.Ticker, float64(spanDays)/365, fmtShares(f.Shares), fmtPrice(f.Price), fmtDate(f.TransactionDate),
			)
		default:
			continue
		}

		out = append(out, newFlag(f, d.Type(), models.SeverityHigh, desc))
	}
	return out, nil
}

// sellOnlySpanDays returns the days between the oldest prior sell and f, or
// zero when the prior history contains any purchase.
func sellOnlySpanDays(f *models.Filing, prior []*models.Filing) int {
	var oldest *models.Filing
	for _, p := range prior {
		switch p.TransactionCode {
		case models.TxnCodePurchase:
			return 0
		case models.TxnCodeSale:
			if p.TransactionDate == nil {
				continue
			}
			if oldest == nil || p.TransactionDate.Before(*oldest.TransactionDate) {
				oldest = p
			}
		}
	}
	if oldest == nil {
		return 0
	}
	return int(f.TransactionDate.Sub(*oldest.TransactionDate).Hours() / 24)
}
