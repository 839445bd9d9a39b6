package elections

import (
	"time"

	"github.com/aura-elections/backend/internal/models"
)

// IsUpcoming reports whether the election has not started at now.
func IsUpcoming(e *models.Election, now time.Time) bool {
	return now.Before(e.StartDate)
}

// IsOpen reports whether the election accepts votes at now.
// Both bounds are inclusive: at now == EndDate the election is still open.
func IsOpen(e *models.Election, now time.Time) bool {
	return !now.Before(e.StartDate) && !now.After(e.EndDate) && e.IsActive
}

// HasEnded reports whether now is strictly after the end of the election.
func HasEnded(e *models.Election, now time.Time) bool {
	return now.After(e.EndDate)
}

// StatusAt classifies the election at now.
func StatusAt(e *models.Election, now time.Time) models.Status {
	switch {
	case IsUpcoming(e, now):
		return models.StatusUpcoming
	case HasEnded(e, now):
		return models.StatusEnded
	case IsOpen(e, now):
		return models.StatusActive
	default:
		return models.StatusInactive
	}
}

// View pairs e with its status at now.
func View(e models.Election, now time.Time) models.ElectionView {
	return models.ElectionView{Election: e, Status: StatusAt(&e, now)}
}
