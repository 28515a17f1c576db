package flags

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
)

// Store defines the persistence operations the flag service depends on
type Store interface {
	History
	GetFilingsByIDs(ids []int) ([]*models.Filing, error)
	GetStakesByIDs(ids []int) ([]*models.LargeHolderStake, error)
	LatestPriorStake(ticker, holderName string, before time.Time, excludeAccession string) (*models.LargeHolderStake, error)
	// CreateFlags inserts flags in a single transaction, skipping pairs that
	// already exist, and returns the rows actually inserted.
	CreateFlags(flags []*models.Flag) ([]*models.Flag, error)
}

// Publisher announces newly raised flags
type Publisher interface {
	PublishFlagRaised(ctx context.Context, flag *models.Flag) error
}

// Service runs the detectors over new filings and stakes and saves the results
type Service struct {
	store          Store
	prices         Prices
	publisher      Publisher
	detectors      []Detector
	stakeDetectors []StakeDetector
}

// NewService creates a flag Service with the default detector sets.
// publisher may be nil.
func NewService(store Store, prices Prices, publisher Publisher) *Service {
	return &Service{
		store:          store,
		prices:         prices,
		publisher:      publisher,
		detectors:      DefaultDetectors(),
		stakeDetectors: DefaultStakeDetectors(),
	}
}

// DetectAndSave runs every transaction detector over the given filing rows
// and returns the number of new flags saved. Either all flags from the batch
// are saved or none are.
func (s *Service) DetectAndSave(ctx context.Context, filingIDs []int) (int, error) {
	if len(filingIDs) == 0 {
		return 0, nil
	}
	batch, err := s.store.GetFilingsByIDs(filingIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load filings: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	l := lookup{History: s.store, Prices: s.prices}
	var found []*models.Flag
	for _, d := range s.detectors {
		flags, err := d.Detect(batch, l)
		if err != nil {
			return 0, fmt.Errorf("%s detector failed: %w", d.Type(), err)
		}
		found = append(found, flags...)
	}

	return s.save(ctx, found)
}

// DetectAndSaveStakes runs the stake detectors over the given stake rows
func (s *Service) DetectAndSaveStakes(ctx context.Context, stakeIDs []int) (int, error) {
	if len(stakeIDs) == 0 {
		return 0, nil
	}
	batch, err := s.store.GetStakesByIDs(stakeIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load stakes: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	var found []*models.Flag
	for _, d := range s.stakeDetectors {
		flags, err := d.Detect(batch, s.store)
		if err != nil {
			return 0, fmt.Errorf("%s detector failed: %w", d.Type(), err)
		}
		found = append(found, flags...)
	}

	return s.save(ctx, found)
}

func (s *Service) save(ctx context.Context, found []*models.Flag) (int, error) {
	// Two lines of one filing can raise the same (accession, type) pair.
	seen := make(map[string]bool, len(found))
	unique := make([]*models.Flag, 0, len(found))
	for _, f := range found {
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		unique = append(unique, f)
	}
	if len(unique) == 0 {
		return 0, nil
	}

	saved, err := s.store.CreateFlags(unique)
	if err != nil {
		return 0, fmt.Errorf("failed to save flags: %w", err)
	}
	if len(saved) > 0 {
		log.Printf("%d new flag(s) raised", len(saved))
	}

	if s.publisher != nil {
		for _, f := range saved {
			if err := s.publisher.PublishFlagRaised(ctx, f); err != nil {
				log.Printf("Failed to publish flag %s for %s: %v", f.FlagType, f.AccessionNo, err)
			}
		}
	}

	return len(saved), nil
}
