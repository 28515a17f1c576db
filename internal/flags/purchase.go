package flags

import (
	"fmt"
	"strings"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

var chiefTitleKeywords = []string{"chief executive", "ceo", "chief financial", "cfo"}

var (
	largePurchaseMin  = decimal.NewFromInt(500_000)
	largePurchaseHigh = decimal.NewFromInt(2_000_000)

	convictionMin  = decimal.NewFromFloat(0.10)
	convictionHigh = decimal.NewFromFloat(0.25)
)

// CEOCFOPurchase flags open-market buys by a chief executive or financial officer
type CEOCFOPurchase struct{}

func (CEOCFOPurchase) Type() string { return models.FlagTypeCEOCFOPurchase }

func (d CEOCFOPurchase) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		if !isChiefOfficer(f.OfficerTitle) {
			continue
		}
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}
		out = append(out, newFlag(f, d.Type(), models.SeverityHigh, fmt.Sprintf(
			"%s (%s) bought %s shares of %s on %s at %s (total %s). Open-market CEO/CFO purchases are rare and highly informative signals.",
			f.InsiderName, f.OfficerTitle, fmtShares(f.Shares), f.Ticker,
			fmtDate(f.TransactionDate), fmtPrice(f.Price), fmtDollars(f.Value),
		)))
	}
	return out, nil
}

func isChiefOfficer(title string) bool {
	t := strings.ToLower(title)
	for _, k := range chiefTitleKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// LargePurchase flags open-market buys worth at least $500k
type LargePurchase struct{}

func (LargePurchase) Type() string { return models.FlagTypeLargePurchase }

func (d LargePurchase) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		if !f.Value.Valid || f.Value.Decimal.LessThan(largePurchaseMin) {
			continue
		}
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}
		severity := models.SeverityMedium
		if f.Value.Decimal.GreaterThanOrEqual(largePurchaseHigh) {
			severity = models.SeverityHigh
		}
		out = append(out, newFlag(f, d.Type(), severity, fmt.Sprintf(
			"%s made an open-market purchase of %s shares of %s worth %s on %s.",
			f.InsiderName, fmtShares(f.Shares), f.Ticker, fmtDollars(f.Value), fmtDate(f.TransactionDate),
		)))
	}
	return out, nil
}

// FirstPurchase flags an insider's first recorded open-market buy of a ticker
type FirstPurchase struct{}

func (FirstPurchase) Type() string { return models.FlagTypeFirstPurchase }

func (d FirstPurchase) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}
		prior, err := l.HasPriorPurchase(f.Ticker, f.InsiderName, f.AccessionNo)
		if err != nil {
			return nil, fmt.Errorf("failed to check prior purchases for %s/%s: %w", f.Ticker, f.InsiderName, err)
		}
		if prior {
			continue
		}
		title := f.OfficerTitle
		if title == "" {
			title = "Insider"
		}
		out = append(out, newFlag(f, d.Type(), models.SeverityMedium, fmt.Sprintf(
			"%s (%s) made their first recorded open-market purchase of %s: %s shares at %s on %s.",
			f.InsiderName, title, f.Ticker, fmtShares(f.Shares), fmtPrice(f.Price), fmtDate(f.TransactionDate),
		)))
	}
	return out, nil
}

// ConvictionBuy flags purchases that grow the insider's holding by 10% or more
type ConvictionBuy struct{}

func (ConvictionBuy) Type() string { return models.FlagTypeConvictionBuy }

func (d ConvictionBuy) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, f := range openMarketPurchases(batch) {
		if !f.Shares.Valid || !f.Shares.Decimal.IsPositive() || !f.SharesRemaining.Valid {
			continue
		}
		prior := f.SharesRemaining.Decimal.Sub(f.Shares.Decimal)
		if !prior.IsPositive() {
			continue
		}
		ratio := f.Shares.Decimal.Div(prior)
		if ratio.LessThan(convictionMin) {
			continue
		}
		exists, err := l.FlagExists(f.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), f.AccessionNo, err)
		}
		if exists {
			continue
		}
		severity := models.SeverityMedium
		if ratio.GreaterThanOrEqual(convictionHigh) {
			severity = models.SeverityHigh
		}
		out = append(out, newFlag(f, d.Type(), severity, fmt.Sprintf(
			"%s increased their %s position by %s%% by buying %s shares (prior balance: %s) on %s. Large percentage position increases are historically the strongest insider buy signals.",
			f.InsiderName, f.Ticker, ratio.Mul(decimal.NewFromInt(100)).StringFixed(0),
			fmtShares(f.Shares), fmtShares(decimal.NewNullDecimal(prior)), fmtDate(f.TransactionDate),
		)))
	}
	return out, nil
}
