package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rsmith2002/filingwatcher/internal/models"
)

// Overlap re-examines rows stored shortly before the last successful run so
// that late amendments are not missed.
const Overlap = 48 * time.Hour

// ErrAlreadyProcessed is returned by Run when the batch's event was handled before
var ErrAlreadyProcessed = errors.New("event already processed")

// Store defines the persistence operations the runner depends on
type Store interface {
	StartIngestRun(run *models.IngestRun) error
	FinishIngestRun(run *models.IngestRun) error
	LastSuccessfulRun() (*models.IngestRun, error)
	RunExistsForEvent(eventID string) (bool, error)
	GetFilingIDsCreatedSince(since time.Time) ([]int, error)
	GetStakeIDsCreatedSince(since time.Time) ([]int, error)
	GetEnabledTickers() ([]string, error)
}

// FlagDetector saves flags for new filing and stake rows
type FlagDetector interface {
	DetectAndSave(ctx context.Context, filingIDs []int) (int, error)
	DetectAndSaveStakes(ctx context.Context, stakeIDs []int) (int, error)
}

// AnalyticsRefresher rebuilds insider analytics for a list of tickers
type AnalyticsRefresher interface {
	RefreshAll(ctx context.Context, tickers []string) (int, error)
}

// Batch is one unit of newly stored rows to process
type Batch struct {
	EventID   string
	FilingIDs []int
	StakeIDs  []int
	// Tickers limits the analytics refresh; empty means the whole watchlist.
	Tickers []string
}

// Runner drives flag detection then analytics refresh for a batch and
// records the pass in ingest_runs. Passes and on-demand refreshes are
// serialized so only one writer touches flags and analytics at a time.
type Runner struct {
	mu        sync.Mutex
	store     Store
	flags     FlagDetector
	analytics AnalyticsRefresher
	now       func() time.Time
}

// NewRunner creates a Runner
func NewRunner(store Store, flags FlagDetector, analytics AnalyticsRefresher) *Runner {
	return &Runner{
		store:     store,
		flags:     flags,
		analytics: analytics,
		now:       time.Now,
	}
}

// Run processes a batch. The returned run carries the final counts and
// status; an error is returned only when the run could not be recorded or
// the event was already processed.
func (r *Runner) Run(ctx context.Context, b Batch) (*models.IngestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, b)
}

// Refresh rebuilds analytics for one ticker outside of a recorded run
func (r *Runner) Refresh(ctx context.Context, ticker string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.analytics.RefreshAll(ctx, []string{ticker})
}

func (r *Runner) run(ctx context.Context, b Batch) (*models.IngestRun, error) {
	if b.EventID != "" {
		seen, err := r.store.RunExistsForEvent(b.EventID)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, fmt.Errorf("event %s: %w", b.EventID, ErrAlreadyProcessed)
		}
	}

	run := &models.IngestRun{
		EventID:       b.EventID,
		RunAt:         r.now(),
		NewFilingRows: len(b.FilingIDs),
		NewStakeRows:  len(b.StakeIDs),
	}
	if err := r.store.StartIngestRun(run); err != nil {
		return nil, err
	}
	log.Printf("Ingest run %d started: %d filing rows, %d stake rows", run.ID, len(b.FilingIDs), len(b.StakeIDs))

	var errs []string

	n, err := r.flags.DetectAndSave(ctx, b.FilingIDs)
	if err != nil {
		errs = append(errs, fmt.Sprintf("flags: %v", err))
	}
	run.FlagsRaised += n

	n, err = r.flags.DetectAndSaveStakes(ctx, b.StakeIDs)
	if err != nil {
		errs = append(errs, fmt.Sprintf("stake flags: %v", err))
	}
	run.FlagsRaised += n

	tickers := b.Tickers
	if len(tickers) == 0 {
		tickers, err = r.store.GetEnabledTickers()
		if err != nil {
			errs = append(errs, fmt.Sprintf("watchlist: %v", err))
		}
	}
	run.CompaniesProcessed = len(tickers)

	if len(tickers) > 0 {
		n, err = r.analytics.RefreshAll(ctx, tickers)
		if err != nil {
			errs = append(errs, fmt.Sprintf("analytics: %v", err))
		}
		run.AnalyticsRefreshed = n
	}

	run.Errors = strings.Join(errs, "; ")
	run.Status = status(run, len(errs))

	if err := r.store.FinishIngestRun(run); err != nil {
		return run, err
	}
	log.Printf("Ingest run %d finished (%s): %d flags raised, %d analytics records across %d tickers",
		run.ID, run.Status, run.FlagsRaised, run.AnalyticsRefreshed, run.CompaniesProcessed)
	return run, nil
}

// RunSince processes every filing and stake row stored since the last
// successful run, less the overlap. With no prior run everything is processed.
func (r *Runner) RunSince(ctx context.Context) (*models.IngestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var since time.Time
	last, err := r.store.LastSuccessfulRun()
	if err != nil {
		return nil, err
	}
	if last != nil {
		since = last.RunAt.Add(-Overlap)
	}

	filingIDs, err := r.store.GetFilingIDsCreatedSince(since)
	if err != nil {
		return nil, err
	}
	stakeIDs, err := r.store.GetStakeIDsCreatedSince(since)
	if err != nil {
		return nil, err
	}

	return r.run(ctx, Batch{
		EventID:   "scheduled-" + uuid.NewString(),
		FilingIDs: filingIDs,
		StakeIDs:  stakeIDs,
	})
}

func status(run *models.IngestRun, errCount int) string {
	switch {
	case errCount == 0:
		return models.RunStatusSuccess
	case run.FlagsRaised > 0 || run.AnalyticsRefreshed > 0:
		return models.RunStatusPartial
	default:
		return models.RunStatusFailed
	}
}
