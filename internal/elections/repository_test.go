package elections

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/apperr"
	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/database"
)

// testPool connects to TEST_DATABASE_URL or skips the test.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, display_name) VALUES ($1, 'test') RETURNING id`,
		uuid.NewString()+"@example.com").Scan(&id)
	require.NoError(t, err)
	return id
}

func ids(list []models.Election) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(list))
	for _, e := range list {
		out[e.ID] = true
	}
	return out
}

func TestRepositoryQueryViews(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	// timestamptz keeps microseconds
	now := time.Now().UTC().Truncate(time.Microsecond)
	owner := insertUser(t, pool)
	other := insertUser(t, pool)

	create := func(creator uuid.UUID, start, end time.Time) *models.Election {
		e := &models.Election{
			Title:       "Views",
			Description: "Query views",
			Options:     []string{"A", "B"},
			CreatedBy:   creator,
			StartDate:   start,
			EndDate:     end,
		}
		require.NoError(t, repo.Create(ctx, e))
		assert.True(t, e.IsActive)
		return e
	}

	endingNow := create(owner, now.Add(-time.Hour), now)
	running := create(owner, now.Add(-time.Hour), now.Add(time.Hour))
	finished := create(other, now.Add(-2*time.Hour), now.Add(-time.Microsecond))
	upcoming := create(other, now.Add(time.Hour), now.Add(2*time.Hour))
	disabled := create(other, now.Add(-time.Hour), now.Add(time.Hour))
	_, err := pool.Exec(ctx, `UPDATE elections SET is_active = FALSE WHERE id = $1`, disabled.ID)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	got := ids(active)
	assert.True(t, got[endingNow.ID], "end_date == now is still active")
	assert.True(t, got[running.ID])
	assert.False(t, got[finished.ID])
	assert.False(t, got[upcoming.ID])
	assert.False(t, got[disabled.ID], "inactive flag hides the election")

	past, err := repo.ListPast(ctx, now)
	require.NoError(t, err)
	got = ids(past)
	assert.False(t, got[endingNow.ID], "end_date == now is not past")
	assert.True(t, got[finished.ID])
	assert.False(t, got[running.ID])
	assert.False(t, got[upcoming.ID])

	mine, err := repo.ListByCreator(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, e := range mine {
		assert.Equal(t, owner, e.CreatedBy)
	}
	assert.Equal(t, []string{"A", "B"}, mine[0].Options)

	none, err := repo.ListByCreator(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	got1, err := repo.GetByID(ctx, running.ID)
	require.NoError(t, err)
	assert.True(t, running.EndDate.Equal(got1.EndDate))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
