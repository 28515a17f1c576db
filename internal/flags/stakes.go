package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

var ownershipThresholds = []decimal.Decimal{
	decimal.NewFromInt(5),
	decimal.NewFromInt(10),
	decimal.NewFromInt(15),
	decimal.NewFromInt(20),
}

var thresholdCrossHigh = decimal.NewFromInt(10)

// Activist13D flags new (non-amended) Schedule 13D filings
type Activist13D struct{}

func (Activist13D) Type() string { return models.FlagTypeActivist13D }

func (d Activist13D) Detect(batch []*models.LargeHolderStake, l StakeLookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, s := range batch {
		if !s.IsActivist || isAmendment(s) {
			continue
		}
		exists, err := l.FlagExists(s.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), s.AccessionNo, err)
		}
		if exists {
			continue
		}

		pct := "an undisclosed share"
		if s.PercentOfClass.Valid {
			pct = s.PercentOfClass.Decimal.StringFixed(1) + "%"
		}
		desc := fmt.Sprintf("%s filed a Schedule 13D for %s on %s disclosing %s of the class (%s shares).",
			s.HolderName, s.Ticker, stakeDate(s), pct, fmtShares(s.AggregateShares))
		if purpose := strings.TrimSpace(s.PurposeOfTxn); purpose != "" {
			desc += " Stated purpose: " + truncate(purpose, 280)
		}

		out = append(out, stakeFlag(s, d.Type(), models.SeverityHigh, desc))
	}
	return out, nil
}

// ThresholdCross flags a holder whose percent of class rises through 5, 10,
// 15 or 20 percent relative to their previous report for the ticker.
type ThresholdCross struct{}

func (ThresholdCross) Type() string { return models.FlagTypeThresholdCross }

func (d ThresholdCross) Detect(batch []*models.LargeHolderStake, l StakeLookup) ([]*models.Flag, error) {
	var out []*models.Flag
	for _, s := range batch {
		if !s.PercentOfClass.Valid || s.FilingDate == nil {
			continue
		}
		exists, err := l.FlagExists(s.AccessionNo, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), s.AccessionNo, err)
		}
		if exists {
			continue
		}

		prev, err := l.LatestPriorStake(s.Ticker, s.HolderName, *s.FilingDate, s.AccessionNo)
		if err != nil {
			return nil, fmt.Errorf("failed to load prior stake for %s/%s: %w", s.Ticker, s.HolderName, err)
		}
		if prev == nil || !prev.PercentOfClass.Valid {
			continue
		}

		crossed := crossedThresholds(prev.PercentOfClass.Decimal, s.PercentOfClass.Decimal)
		if len(crossed) == 0 {
			continue
		}
		highest := crossed[len(crossed)-1]
		severity := models.SeverityMedium
		if highest.GreaterThanOrEqual(thresholdCrossHigh) {
			severity = models.SeverityHigh
		}

		labels := make([]string, len(crossed))
		for i, c := range crossed {
			labels[i] = c.String() + "%"
		}
		out = append(out, stakeFlag(s, d.Type(), severity, fmt.Sprintf(
			"%s raised its stake in %s from %s%% to %s%% on %s, crossing the %s ownership threshold.",
			s.HolderName, s.Ticker, prev.PercentOfClass.Decimal.StringFixed(1),
			s.PercentOfClass.Decimal.StringFixed(1), stakeDate(s), strings.Join(labels, ", "),
		)))
	}
	return out, nil
}

// crossedThresholds returns the thresholds t with prev < t <= cur, ascending
func crossedThresholds(prev, cur decimal.Decimal) []decimal.Decimal {
	var out []decimal.Decimal
	for _, t := range ownershipThresholds {
		if prev.LessThan(t) && cur.GreaterThanOrEqual(t) {
			out = append(out, t)
		}
	}
	return out
}

func isAmendment(s *models.LargeHolderStake) bool {
	if s.AmendmentNumber != nil && *s.AmendmentNumber > 0 {
		return true
	}
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(s.FilingForm)), "/A")
}

func stakeDate(s *models.LargeHolderStake) string {
	var t *time.Time
	if s.DateOfEvent != nil {
		t = s.DateOfEvent
	} else {
		t = s.FilingDate
	}
	return fmtDate(t)
}

func stakeFlag(s *models.LargeHolderStake, flagType, severity, description string) *models.Flag {
	return &models.Flag{
		Ticker:      s.Ticker,
		InsiderName: s.HolderName,
		AccessionNo: s.AccessionNo,
		FlagType:    flagType,
		Severity:    severity,
		Description: description,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
