package votes

import (
	"fmt"
	"sort"
	"time"

	"github.com/aura-elections/backend/internal/elections"
	"github.com/aura-elections/backend/internal/models"
)

// Tally counts votes per option index. Indices nobody voted for are absent.
func Tally(list []models.Vote) map[int]int {
	counts := make(map[int]int)
	for _, v := range list {
		counts[v.OptionIndex]++
	}
	return counts
}

// Total sums all counts.
func Total(counts map[int]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// Percentage returns count as a share of total in percent; 0 when total is 0.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// Summarize builds the results table for e. Options are ordered by descending
// vote count; ties keep their original option order.
func Summarize(e *models.Election, counts map[int]int, now time.Time) *models.ResultSummary {
	total := Total(counts)
	rows := make([]models.OptionResult, len(e.Options))
	for i, opt := range e.Options {
		n := counts[i]
		pct := Percentage(n, total)
		rows[i] = models.OptionResult{
			Index:      i,
			Option:     opt,
			Votes:      n,
			Percentage: pct,
			Label:      fmt.Sprintf("%.1f%%", pct),
		}
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Votes > rows[b].Votes })

	status := elections.StatusAt(e, now)
	return &models.ResultSummary{
		ElectionID:  e.ID,
		Title:       e.Title,
		Counts:      counts,
		Total:       total,
		Options:     rows,
		Status:      status,
		Preliminary: status != models.StatusEnded,
		ComputedAt:  now,
	}
}
