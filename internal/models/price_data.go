package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory represents one daily closing price for a ticker
type PriceHistory struct {
	ID     int             `json:"id"`
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Close  decimal.Decimal `json:"close"`
}
