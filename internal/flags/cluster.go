package flags

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

const (
	clusterWindowDays  = 7
	clusterMinInsiders = 3
	clusterMaxNames    = 5
)

// ClusterBuy flags three or more distinct insiders buying the same ticker
// within a seven day window. At most one flag is raised per ticker per batch.
type ClusterBuy struct{}

func (ClusterBuy) Type() string { return models.FlagTypeClusterBuy }

func (d ClusterBuy) Detect(batch []*models.Filing, l Lookup) ([]*models.Flag, error) {
	byTicker := make(map[string][]*models.Filing)
	var tickers []string
	for _, f := range openMarketPurchases(batch) {
		if _, ok := byTicker[f.Ticker]; !ok {
			tickers = append(tickers, f.Ticker)
		}
		byTicker[f.Ticker] = append(byTicker[f.Ticker], f)
	}
	sort.Strings(tickers)

	var out []*models.Flag
	for _, ticker := range tickers {
		flag, err := d.detectTicker(ticker, byTicker[ticker], l)
		if err != nil {
			return nil, err
		}
		if flag != nil {
			out = append(out, flag)
		}
	}
	return out, nil
}

func (d ClusterBuy) detectTicker(ticker string, buys []*models.Filing, l Lookup) (*models.Flag, error) {
	sort.SliceStable(buys, func(i, j int) bool {
		a, b := buys[i], buys[j]
		if !a.TransactionDate.Equal(*b.TransactionDate) {
			return a.TransactionDate.Before(*b.TransactionDate)
		}
		return a.ID < b.ID
	})

	for i, anchor := range buys {
		windowEnd := anchor.TransactionDate.AddDate(0, 0, clusterWindowDays)
		insiders := make(map[string]bool)
		accession := ""
		for _, b := range buys[i:] {
			if b.TransactionDate.After(windowEnd) {
				break
			}
			insiders[b.InsiderName] = true
			if accession == "" || b.AccessionNo < accession {
				accession = b.AccessionNo
			}
		}
		if len(insiders) < clusterMinInsiders {
			continue
		}

		// First qualifying window only, flagged or not, so re-runs stay quiet.
		exists, err := l.FlagExists(accession, d.Type())
		if err != nil {
			return nil, fmt.Errorf("failed to check %s flag for %s: %w", d.Type(), accession, err)
		}
		if exists {
			return nil, nil
		}

		names := make([]string, 0, len(insiders))
		for name := range insiders {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > clusterMaxNames {
			names = names[:clusterMaxNames]
		}
		joined := strings.Join(names, ", ")

		return &models.Flag{
			Ticker:      ticker,
			InsiderName: joined,
			AccessionNo: accession,
			FlagType:    d.Type(),
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf(
				"%d insiders bought %s within %d days of each other (around %s): %s. Cluster buys are among the strongest insider signals.",
				len(insiders), ticker, clusterWindowDays, fmtDate(anchor.TransactionDate), joined,
			),
		}, nil
	}
	return nil, nil
}
