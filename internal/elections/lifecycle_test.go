package elections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aura-elections/backend/internal/models"
)

func TestLifecycle(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	e := &models.Election{StartDate: start, EndDate: end, IsActive: true}

	tests := []struct {
		name     string
		now      time.Time
		upcoming bool
		open     bool
		ended    bool
		status   models.Status
	}{
		{"before start", start.Add(-time.Second), true, false, false, models.StatusUpcoming},
		{"at start", start, false, true, false, models.StatusActive},
		{"running", start.Add(time.Hour), false, true, false, models.StatusActive},
		{"at end", end, false, true, false, models.StatusActive},
		{"after end", end.Add(time.Nanosecond), false, false, true, models.StatusEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.upcoming, IsUpcoming(e, tt.now))
			assert.Equal(t, tt.open, IsOpen(e, tt.now))
			assert.Equal(t, tt.ended, HasEnded(e, tt.now))
			assert.Equal(t, tt.status, StatusAt(e, tt.now))
		})
	}
}

func TestLifecycleInactiveFlag(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e := &models.Election{StartDate: start, EndDate: start.Add(time.Hour), IsActive: false}
	now := start.Add(time.Minute)

	assert.False(t, IsOpen(e, now))
	assert.False(t, HasEnded(e, now))
	assert.Equal(t, models.StatusInactive, StatusAt(e, now))
}
