package analytics

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// WeightedAverage returns Σ(shares·price) / Σ(shares) over the positions where
// both values are present. It is invalid when nothing survives the filter or
// the share sum is zero.
func WeightedAverage(shares, prices []decimal.NullDecimal) decimal.NullDecimal {
	n := len(shares)
	if len(prices) < n {
		n = len(prices)
	}

	totalShares := decimal.Zero
	totalCost := decimal.Zero
	matched := 0
	for i := 0; i < n; i++ {
		if !shares[i].Valid || !prices[i].Valid {
			continue
		}
		totalShares = totalShares.Add(shares[i].Decimal)
		totalCost = totalCost.Add(shares[i].Decimal.Mul(prices[i].Decimal))
		matched++
	}

	if matched == 0 || totalShares.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(totalCost.Div(totalShares))
}

// SafeSum sums the present values. It is invalid when every value is missing,
// so callers can tell "no data" from a genuine zero.
func SafeSum(values []decimal.NullDecimal) decimal.NullDecimal {
	sum := decimal.Zero
	found := false
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum = sum.Add(v.Decimal)
		found = true
	}
	if !found {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(sum)
}

// PercentChange returns (current-base)/base*100, or invalid unless both are
// present and base is strictly positive.
func PercentChange(base, current decimal.NullDecimal) decimal.NullDecimal {
	if !base.Valid || !current.Valid || !base.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(current.Decimal.Sub(base.Decimal).Div(base.Decimal).Mul(hundred))
}

// mul multiplies two optional values; the product is invalid if either is.
func mul(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.Decimal.Mul(b.Decimal))
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
