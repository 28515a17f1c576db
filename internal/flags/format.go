package flags

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

func fmtShares(d decimal.NullDecimal) string {
	if !d.Valid {
		return "an unknown number of"
	}
	return humanize.Comma(d.Decimal.Round(0).IntPart())
}

func fmtDollars(d decimal.NullDecimal) string {
	if !d.Valid {
		return "unknown value"
	}
	return "$" + humanize.Comma(d.Decimal.Round(0).IntPart())
}

func fmtPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "an unknown price"
	}
	return "$" + d.Decimal.StringFixed(2)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "an unknown date"
	}
	return t.Format("2006-01-02")
}
