package models

import "time"

// Company represents a watchlist entry
type Company struct {
	Ticker  string    `json:"ticker" yaml:"ticker" validate:"required"`
	Name    string    `json:"name" yaml:"name"`
	CIK     string    `json:"cik,omitempty" yaml:"cik"`
	Sector  string    `json:"sector,omitempty" yaml:"sector"`
	Enabled bool      `json:"enabled" yaml:"-"`
	AddedAt time.Time `json:"added_at" yaml:"-"`
}
