package elections

import (
	"strings"
	"time"

	"github.com/aura-elections/backend/internal/apperr"
)

// MinOptions is the least number of non-blank options an election may have.
const MinOptions = 2

// CreateInput is the caller-supplied part of a new election.
type CreateInput struct {
	Title       string
	Description string
	Options     []string
	StartDate   time.Time
	EndDate     time.Time
}

// Normalize trims text fields and drops blank options, keeping their order.
func (in CreateInput) Normalize() CreateInput {
	out := CreateInput{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Options:     make([]string, 0, len(in.Options)),
	}
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			out.Options = append(out.Options, o)
		}
	}
	return out
}

// Validate checks a normalized input against the creation rules at now.
// The start must be strictly after now and the end strictly after the start.
func (in CreateInput) Validate(now time.Time) error {
	var errs apperr.ValidationErrors
	if in.Title == "" {
		errs = append(errs, apperr.Invalid("title", "is required"))
	}
	if in.Description == "" {
		errs = append(errs, apperr.Invalid("description", "is required"))
	}
	if len(in.Options) < MinOptions {
		errs = append(errs, apperr.Invalid("options", "at least 2 non-empty options are required"))
	}
	switch {
	case in.StartDate.IsZero():
		errs = append(errs, apperr.Invalid("start_date", "is required"))
	case !in.StartDate.After(now):
		errs = append(errs, apperr.Invalid("start_date", "must be in the future"))
	}
	switch {
	case in.EndDate.IsZero():
		errs = append(errs, apperr.Invalid("end_date", "is required"))
	case !in.StartDate.IsZero() && !in.EndDate.After(in.StartDate):
		errs = append(errs, apperr.Invalid("end_date", "must be after start_date"))
	}
	return errs.OrNil()
}
