package flags

import (
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

// History answers questions about already-stored filings and flags
type History interface {
	FlagExists(accessionNo, flagType string) (bool, error)
	// HasPriorPurchase reports whether the insider has any open-market
	// purchase for ticker outside the given accession.
	HasPriorPurchase(ticker, insiderName, excludeAccession string) (bool, error)
	// PriorOpenMarketTransactions returns non-derivative P/S rows dated
	// strictly before the given date, newest first.
	PriorOpenMarketTransactions(ticker, insiderName string, before time.Time) ([]*models.Filing, error)
}

// Prices answers closing-price questions. Missing prices are invalid, not errors.
type Prices interface {
	PriceOnOrAfter(ticker string, date time.Time) (decimal.NullDecimal, error)
	PriceOnOrBefore(ticker string, date time.Time) (decimal.NullDecimal, error)
}

// Lookup is everything a transaction detector may consult beyond its batch
type Lookup interface {
	History
	Prices
}

// Detector finds one pattern in a batch of newly ingested filing rows.
// Detectors must skip (accession, type) pairs that are already flagged.
type Detector interface {
	Type() string
	Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error)
}

// StakeLookup is everything a stake detector may consult beyond its batch
type StakeLookup interface {
	FlagExists(accessionNo, flagType string) (bool, error)
	// LatestPriorStake returns the holder's most recent stake for ticker filed
	// before the given date, or nil if there is none.
	LatestPriorStake(ticker, holderName string, before time.Time, excludeAccession string) (*models.LargeHolderStake, error)
}

// StakeDetector finds one pattern in a batch of large-holder stake reports
type StakeDetector interface {
	Type() string
	Detect(batch []*models.LargeHolderStake, l StakeLookup) ([]*models.Flag, error)
}

// DefaultDetectors returns the transaction detectors in the order they run
func DefaultDetectors() []Detector {
	return []Detector{
		CEOCFOPurchase{},
		LargePurchase{},
		ClusterBuy{},
		FirstPurchase{},
		BullReversal{},
		ConvictionBuy{},
		DipBuy{},
	}
}

// DefaultStakeDetectors returns the stake detectors in the order they run
func DefaultStakeDetectors() []StakeDetector {
	return []StakeDetector{
		Activist13D{},
		ThresholdCross{},
	}
}

type lookup struct {
	History
	Prices
}

// openMarketPurchases keeps the dated non-derivative Code=P rows of batch
// that belong to a named insider. Returned rows are copies carrying the
// trimmed insider name.
func openMarketPurchases(batch []*models.Filing) []*models.Filing {
	var out []*models.Filing
	for _, f := range batch {
		if !f.IsOpenMarketPurchase() || f.TransactionDate == nil {
			continue
		}
		name := f.InsiderKey()
		if name == "" {
			continue
		}
		row := *f
		row.InsiderName = name
		out = append(out, &row)
	}
	return out
}

func newFlag(f *models.Filing, flagType, severity, description string) *models.Flag {
	return &models.Flag{
		Ticker:      f.Ticker,
		InsiderName: f.InsiderName,
		AccessionNo: f.AccessionNo,
		FlagType:    flagType,
		Severity:    severity,
		Description: description,
	}
}
