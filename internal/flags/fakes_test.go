package flags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store and Prices used across the package tests
type memStore struct {
	filings []*models.Filing
	stakes  []*models.LargeHolderStake
	flags   []*models.Flag
	closes  map[string]map[string]decimal.Decimal

	createErr   error
	createCalls int
}

func newMemStore() *memStore {
	return &memStore{closes: make(map[string]map[string]decimal.Decimal)}
}

func (m *memStore) addFiling(f *models.Filing) *models.Filing {
	f.ID = len(m.filings) + 1
	m.filings = append(m.filings, f)
	return f
}

func (m *memStore) addStake(s *models.LargeHolderStake) *models.LargeHolderStake {
	s.ID = len(m.stakes) + 1
	m.stakes = append(m.stakes, s)
	return s
}

func (m *memStore) addClose(ticker, date string, px float64) {
	if m.closes[ticker] == nil {
		m.closes[ticker] = make(map[string]decimal.Decimal)
	}
	m.closes[ticker][date] = decimal.NewFromFloat(px)
}

func (m *memStore) ids() []int {
	out := make([]int, len(m.filings))
	for i, f := range m.filings {
		out[i] = f.ID
	}
	return out
}

func (m *memStore) FlagExists(accessionNo, flagType string) (bool, error) {
	for _, f := range m.flags {
		if f.AccessionNo == accessionNo && f.FlagType == flagType {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) HasPriorPurchase(ticker, insiderName, excludeAccession string) (bool, error) {
	for _, f := range m.filings {
		if f.Ticker == ticker && f.InsiderKey() == insiderName &&
			f.IsOpenMarketPurchase() && f.AccessionNo != excludeAccession {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) PriorOpenMarketTransactions(ticker, insiderName string, before time.Time) ([]*models.Filing, error) {
	var out []*models.Filing
	for _, f := range m.filings {
		if f.Ticker != ticker || f.InsiderKey() != insiderName || f.IsDerivative || f.TransactionDate == nil {
			continue
		}
		if f.TransactionCode != models.TxnCodePurchase && f.TransactionCode != models.TxnCodeSale {
			continue
		}
		if f.TransactionDate.Before(before) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(*out[j].TransactionDate) {
			return out[i].TransactionDate.After(*out[j].TransactionDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memStore) GetFilingsByIDs(ids []int) ([]*models.Filing, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Filing
	for _, f := range m.filings {
		if want[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) GetStakesByIDs(ids []int) ([]*models.LargeHolderStake, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.LargeHolderStake
	for _, s := range m.stakes {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) LatestPriorStake(ticker, holderName string, before time.Time, excludeAccession string) (*models.LargeHolderStake, error) {
	var best *models.LargeHolderStake
	for _, s := range m.stakes {
		if s.Ticker != ticker || s.HolderName != holderName || s.AccessionNo == excludeAccession {
			continue
		}
		if s.FilingDate == nil || !s.FilingDate.Before(before) {
			continue
		}
		if best == nil || s.FilingDate.After(*best.FilingDate) {
			best = s
		}
	}
	return best, nil
}

func (m *memStore) CreateFlags(flags []*models.Flag) ([]*models.Flag, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	var saved []*models.Flag
	for _, f := range flags {
		if exists, _ := m.FlagExists(f.AccessionNo, f.FlagType); exists {
			continue
		}
		f.ID = len(m.flags) + 1
		f.FlaggedAt = time.Now()
		m.flags = append(m.flags, f)
		saved = append(saved, f)
	}
	return saved, nil
}

func (m *memStore) PriceOnOrAfter(ticker string, on time.Time) (decimal.NullDecimal, error) {
	for d := 0; d < 10; d++ {
		key := on.AddDate(0, 0, d).Format("2006-01-02")
		if px, ok := m.closes[ticker][key]; ok {
			return decimal.NewNullDecimal(px), nil
		}
	}
	return decimal.NullDecimal{}, nil
}

func (m *memStore) PriceOnOrBefore(ticker string, on time.Time) (decimal.NullDecimal, error) {
	for d := 0; d < 10; d++ {
		key := on.AddDate(0, 0, -d).Format("2006-01-02")
		if px, ok := m.closes[ticker][key]; ok {
			return decimal.NewNullDecimal(px), nil
		}
	}
	return decimal.NullDecimal{}, nil
}

// failingLookup returns err from every lookup
type failingLookup struct{ err error }

func (f failingLookup) FlagExists(string, string) (bool, error) { return false, f.err }
func (f failingLookup) HasPriorPurchase(string, string, string) (bool, error) {
	return false, f.err
}
func (f failingLookup) PriorOpenMarketTransactions(string, string, time.Time) ([]*models.Filing, error) {
	return nil, f.err
}
func (f failingLookup) PriceOnOrAfter(string, time.Time) (decimal.NullDecimal, error) {
	return decimal.NullDecimal{}, f.err
}
func (f failingLookup) PriceOnOrBefore(string, time.Time) (decimal.NullDecimal, error) {
	return decimal.NullDecimal{}, f.err
}
func (f failingLookup) LatestPriorStake(string, string, time.Time, string) (*models.LargeHolderStake, error) {
	return nil, f.err
}

var errLookup = errors.New("lookup failed")

type recordingPublisher struct {
	published []*models.Flag
	err       error
}

func (p *recordingPublisher) PublishFlagRaised(_ context.Context, flag *models.Flag) error {
	p.published = append(p.published, flag)
	return p.err
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func num(f float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

var accessionSeq int

// buy builds an open-market purchase with its own accession number
func buy(ticker, insider, day string, shares, price float64) *models.Filing {
	accessionSeq++
	return &models.Filing{
		AccessionNo:      fmt.Sprintf("0001-24-%06d", accessionSeq),
		Ticker:           ticker,
		InsiderName:      insider,
		FilingDate:       date(day),
		TransactionDate:  date(day),
		TransactionCode:  models.TxnCodePurchase,
		AcquiredDisposed: models.Acquired,
		Shares:           num(shares),
		Price:            num(price),
		Value:            num(shares * price),
	}
}

func sell(ticker, insider, day string, shares, price float64) *models.Filing {
	f := buy(ticker, insider, day, shares, price)
	f.TransactionCode = models.TxnCodeSale
	f.AcquiredDisposed = models.Disposed
	return f
}
