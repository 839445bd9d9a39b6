package votes

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/database"
)

// uniqueVoteConstraint enforces one vote per user per election.
const uniqueVoteConstraint = "votes_election_user_key"

// Repository handles vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a votes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes v if the user has no vote in the election yet.
// Concurrent inserts for the same pair are serialized by the unique constraint;
// exactly one of them returns a row.
func (r *Repository) Insert(ctx context.Context, v *models.Vote) error {
	const q = `INSERT INTO votes (election_id, option_index, user_id) VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT votes_election_user_key DO NOTHING
		RETURNING id, cast_at`
	err := r.pool.QueryRow(ctx, q, v.ElectionID, v.OptionIndex, v.UserID).Scan(&v.ID, &v.CastAt)
	switch {
	case database.IsNoRows(err), database.IsUniqueViolation(err, uniqueVoteConstraint):
		return apperr.ErrDuplicateVote
	case err != nil:
		return apperr.Store("insert vote", err)
	}
	return nil
}

// Find returns the user's vote in the election.
func (r *Repository) Find(ctx context.Context, electionID, userID uuid.UUID) (*models.Vote, error) {
	const q = `SELECT id, election_id, option_index, user_id, cast_at
		FROM votes WHERE election_id = $1 AND user_id = $2`
	var v models.Vote
	err := r.pool.QueryRow(ctx, q, electionID, userID).
		Scan(&v.ID, &v.ElectionID, &v.OptionIndex, &v.UserID, &v.CastAt)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("vote")
	}
	if err != nil {
		return nil, apperr.Store("find vote", err)
	}
	return &v, nil
}

// ListByElection returns every vote cast in the election.
func (r *Repository) ListByElection(ctx context.Context, electionID uuid.UUID) ([]models.Vote, error) {
	const q = `SELECT id, election_id, option_index, user_id, cast_at
		FROM votes WHERE election_id = $1 ORDER BY cast_at`
	rows, err := r.pool.Query(ctx, q, electionID)
	if err != nil {
		return nil, apperr.Store("list votes", err)
	}
	defer rows.Close()
	var list []models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.ElectionID, &v.OptionIndex, &v.UserID, &v.CastAt); err != nil {
			return nil, apperr.Store("list votes", err)
		}
		list = append(list, v)
	}
	return list, apperr.Store("list votes", rows.Err())
}
