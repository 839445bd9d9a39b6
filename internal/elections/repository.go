package elections

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/database"
)

const electionColumns = `id, title, description, options, created_by, start_date, end_date, is_active, created_at`

// Repository handles election persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an elections repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts e and fills in the store-assigned id and created_at.
func (r *Repository) Create(ctx context.Context, e *models.Election) error {
	const q = `INSERT INTO elections (title, description, options, created_by, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, is_active, created_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Options, e.CreatedBy, e.StartDate, e.EndDate).
		Scan(&e.ID, &e.IsActive, &e.CreatedAt)
	return apperr.Store("create election", err)
}

// GetByID returns an election by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Election, error) {
	q := `SELECT ` + electionColumns + ` FROM elections WHERE id = $1`
	var e models.Election
	err := scanElection(r.pool.QueryRow(ctx, q, id), &e)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("election")
	}
	if err != nil {
		return nil, apperr.Store("get election", err)
	}
	return &e, nil
}

// ListActive returns elections open at now.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Election, error) {
	q := `SELECT ` + electionColumns + ` FROM elections
		WHERE start_date <= $1 AND end_date >= $1 AND is_active
		ORDER BY end_date`
	return r.list(ctx, "list active elections", q, now)
}

// ListPast returns elections whose end is before now.
func (r *Repository) ListPast(ctx context.Context, now time.Time) ([]models.Election, error) {
	q := `SELECT ` + electionColumns + ` FROM elections WHERE end_date < $1 ORDER BY end_date DESC`
	return r.list(ctx, "list past elections", q, now)
}

// ListByCreator returns the elections created by userID.
func (r *Repository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Election, error) {
	q := `SELECT ` + electionColumns + ` FROM elections WHERE created_by = $1 ORDER BY created_at DESC`
	return r.list(ctx, "list elections by creator", q, userID)
}

func (r *Repository) list(ctx context.Context, op, q string, arg any) ([]models.Election, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()
	list := []models.Election{}
	for rows.Next() {
		var e models.Election
		if err := scanElection(rows, &e); err != nil {
			return nil, apperr.Store(op, err)
		}
		list = append(list, e)
	}
	return list, apperr.Store(op, rows.Err())
}

func scanElection(row pgx.Row, e *models.Election) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Options, &e.CreatedBy,
		&e.StartDate, &e.EndDate, &e.IsActive, &e.CreatedAt)
}
