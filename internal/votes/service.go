package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/elections"
	"github.com/aura-elections/backend/internal/models"
)

// ErrCreatorVote is returned when the creator of an election tries to vote in it.
var ErrCreatorVote = fmt.Errorf("creators cannot vote in their own election: %w", apperr.ErrForbidden)

// Store is the vote half of the record store.
type Store interface {
	// Insert stores v unless the user already voted in the election, in which
	// case it returns apperr.ErrDuplicateVote. The check and write are one atomic step.
	Insert(ctx context.Context, v *models.Vote) error
	Find(ctx context.Context, electionID, userID uuid.UUID) (*models.Vote, error)
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]models.Vote, error)
}

// ElectionGetter loads elections.
type ElectionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error)
}

// Service admits votes and aggregates results.
type Service struct {
	votes     Store
	elections ElectionGetter
	now       func() time.Time
}

// NewService creates a vote service. A nil clock means time.Now.
func NewService(votes Store, elections ElectionGetter, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{votes: votes, elections: elections, now: now}
}

// Cast records userID's vote for optionIndex in the election.
// The election must exist and be open, the index must address an option
// and the voter must not be the creator. A second vote by the same user
// fails with apperr.ErrDuplicateVote and leaves the store unchanged.
func (s *Service) Cast(ctx context.Context, electionID, userID uuid.UUID, optionIndex int) (*models.Vote, error) {
	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if e.CreatedBy == userID {
		return nil, ErrCreatorVote
	}
	if !e.HasOption(optionIndex) {
		return nil, apperr.Invalid("option_index", fmt.Sprintf("must be between 0 and %d", len(e.Options)-1))
	}
	if !elections.IsOpen(e, s.now()) {
		return nil, apperr.Invalid("election", "is not open for voting")
	}

	v := &models.Vote{
		ElectionID:  electionID,
		OptionIndex: optionIndex,
		UserID:      userID,
	}
	if err := s.votes.Insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// HasVoted reports whether userID voted in the election, returning the vote if so.
func (s *Service) HasVoted(ctx context.Context, electionID, userID uuid.UUID) (bool, *models.Vote, error) {
	v, err := s.votes.Find(ctx, electionID, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, v, nil
}

// Counts returns the vote count per option index of the election.
func (s *Service) Counts(ctx context.Context, electionID uuid.UUID) (map[int]int, error) {
	list, err := s.votes.ListByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return Tally(list), nil
}

// Results returns the aggregated results of the election, preliminary while it runs.
func (s *Service) Results(ctx context.Context, electionID uuid.UUID) (*models.ResultSummary, error) {
	e, err := s.elections.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	counts, err := s.Counts(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return Summarize(e, counts, s.now()), nil
}
