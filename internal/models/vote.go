package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is a single user's choice of one option within one election.
type Vote struct {
	ID          uuid.UUID `json:"id"`
	ElectionID  uuid.UUID `json:"election_id"`
	OptionIndex int       `json:"option_index"`
	UserID      uuid.UUID `json:"user_id"`
	CastAt      time.Time `json:"cast_at"`
}

// OptionResult is one row of a results table.
type OptionResult struct {
	Index      int     `json:"index"`
	Option     string  `json:"option"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
	Label      string  `json:"label"` // e.g. "66.7%"
}

// ResultSummary is the aggregated outcome of an election.
type ResultSummary struct {
	ElectionID  uuid.UUID      `json:"election_id"`
	Title       string         `json:"title"`
	Counts      map[int]int    `json:"counts"`
	Total       int            `json:"total"`
	Options     []OptionResult `json:"options"`
	Status      Status         `json:"status"`
	Preliminary bool           `json:"preliminary"`
	ComputedAt  time.Time      `json:"computed_at"`
}
