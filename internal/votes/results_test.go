package votes

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aura-elections/backend/internal/models"
)

func votesFor(indices ...int) []models.Vote {
	out := make([]models.Vote, 0, len(indices))
	for _, i := range indices {
		out = append(out, models.Vote{ID: uuid.New(), OptionIndex: i, UserID: uuid.New()})
	}
	return out
}

func TestTally(t *testing.T) {
	counts := Tally(votesFor(0, 0, 1))
	assert.Equal(t, map[int]int{0: 2, 1: 1}, counts)
	_, ok := counts[2]
	assert.False(t, ok, "options without votes are absent")
	assert.Equal(t, 3, Total(counts))
}

func TestTallyEmpty(t *testing.T) {
	counts := Tally(nil)
	assert.Empty(t, counts)
	assert.Zero(t, Total(counts))
	assert.Zero(t, Percentage(0, 0))
}

func TestSummarize(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &models.Election{
		ID:        uuid.New(),
		Title:     "Letters",
		Options:   []string{"A", "B", "C"},
		StartDate: start,
		EndDate:   start.Add(time.Hour),
		IsActive:  true,
	}

	t.Run("scenario A A B after end", func(t *testing.T) {
		s := Summarize(e, Tally(votesFor(0, 0, 1)), e.EndDate.Add(time.Second))
		assert.Equal(t, 3, s.Total)
		assert.Equal(t, models.StatusEnded, s.Status)
		assert.False(t, s.Preliminary)

		var order, labels []string
		for _, r := range s.Options {
			order = append(order, r.Option)
			labels = append(labels, r.Label)
		}
		assert.Equal(t, []string{"A", "B", "C"}, order)
		assert.Equal(t, []string{"66.7%", "33.3%", "0.0%"}, labels)
		assert.InDelta(t, 66.666, s.Options[0].Percentage, 0.01)
		assert.InDelta(t, 33.333, s.Options[1].Percentage, 0.01)
		assert.Zero(t, s.Options[2].Percentage)
	})

	t.Run("ties keep option order", func(t *testing.T) {
		s := Summarize(e, Tally(votesFor(2, 1, 2, 1)), e.EndDate)
		var order []int
		for _, r := range s.Options {
			order = append(order, r.Index)
		}
		assert.Equal(t, []int{1, 2, 0}, order)
		assert.Equal(t, models.StatusActive, s.Status)
		assert.True(t, s.Preliminary)
	})

	t.Run("no votes", func(t *testing.T) {
		s := Summarize(e, Tally(nil), e.EndDate.Add(time.Hour))
		assert.Zero(t, s.Total)
		for i, r := range s.Options {
			assert.Equal(t, i, r.Index)
			assert.Zero(t, r.Votes)
			assert.Zero(t, r.Percentage)
		}
	})
}
