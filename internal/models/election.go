package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle phase of an election at a given instant.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
	// StatusInactive covers an election inside its window whose is_active flag is off.
	StatusInactive Status = "inactive"
)

// Election is a titled, time-boxed poll with a fixed set of options.
type Election struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     []string  `json:"options"`
	CreatedBy   uuid.UUID `json:"created_by"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasOption reports whether index addresses one of the election's options.
func (e *Election) HasOption(index int) bool {
	return index >= 0 && index < len(e.Options)
}

// ElectionView is an election together with its status at read time.
type ElectionView struct {
	Election
	Status Status `json:"status"`
}
