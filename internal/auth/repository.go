package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/database"
)

const userColumns = `id, email, password_hash, display_name, provider, subject, created_at, updated_at`

// UserStore is the user persistence used by the auth handler.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpsertFederated(ctx context.Context, subject, email, displayName string) (*models.User, error)
}

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Create inserts a password user. A taken email yields apperr.ErrConflict.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	q := `INSERT INTO users (email, password_hash, display_name, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	err := scanUser(r.pool.QueryRow(ctx, q, u.Email, u.Password, u.DisplayName, string(models.ProviderPassword)), u)
	if database.IsUniqueViolation(err, "users_email_key") {
		return apperr.ErrConflict
	}
	return apperr.Store("create user", err)
}

// UpsertFederated returns the user linked to a federated subject, creating or
// refreshing it. An email already held by a password account yields apperr.ErrConflict.
func (r *Repository) UpsertFederated(ctx context.Context, subject, email, displayName string) (*models.User, error) {
	q := `INSERT INTO users (email, display_name, provider, subject)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, subject) WHERE subject <> ''
		DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, updated_at = NOW()
		RETURNING ` + userColumns
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, q, email, displayName, string(models.ProviderFederated), subject), &u)
	if database.IsUniqueViolation(err, "users_email_key") {
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, apperr.Store("upsert federated user", err)
	}
	return &u, nil
}

func (r *Repository) getOne(ctx context.Context, op, q string, arg any) (*models.User, error) {
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, q, arg), &u)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	return &u, nil
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.Provider, &u.Subject, &u.CreatedAt, &u.UpdatedAt)
}
