package queue

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testRedis connects to TEST_REDIS_ADDR or skips the test. TEST_REDIS_DB picks the
// database (default 15); the queue keys are cleared before and after the test.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	db := 15
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		require.NoError(t, err)
		db = n
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.Del(ctx, QueueResults, QueueDLQ).Err())
	t.Cleanup(func() {
		_ = client.Del(context.Background(), QueueResults, QueueDLQ).Err()
		_ = client.Close()
	})
	return client
}

func TestNewJob(t *testing.T) {
	id := uuid.New()
	job, err := NewJob(JobTypeResultsArchive, ResultsArchivePayload{ElectionID: id})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeResultsArchive, job.Type)
	assert.Zero(t, job.Attempt)

	var p ResultsArchivePayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, id, p.ElectionID)
}

func TestNewJobRejectsUnmarshalable(t *testing.T) {
	_, err := NewJob(JobTypeResultsArchive, make(chan int))
	assert.Error(t, err)
}

func TestScheduleResultsArchiveOncePerElection(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	q := NewQueue(client, zap.NewNop())
	id := uuid.New()
	t.Cleanup(func() { _ = client.Del(context.Background(), ArchiveGuardKey(id)).Err() })

	for i := 0; i < 3; i++ {
		require.NoError(t, q.ScheduleResultsArchive(ctx, id))
	}
	n, err := client.LLen(ctx, QueueResults).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeResultsArchive, job.Type)

	// while the job is in flight a second schedule stays a no-op
	require.NoError(t, q.ScheduleResultsArchive(ctx, id))
	n, err = client.LLen(ctx, QueueResults).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetryDeadLetterReleasesArchiveGuard(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	q := NewQueue(client, zap.NewNop())
	id := uuid.New()
	t.Cleanup(func() { _ = client.Del(context.Background(), ArchiveGuardKey(id)).Err() })

	require.NoError(t, q.ScheduleResultsArchive(ctx, id))
	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	for attempt := 1; attempt < MaxRetries; attempt++ {
		require.NoError(t, q.Retry(ctx, job))
		job, err = q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, attempt, job.Attempt)

		exists, err := client.Exists(ctx, ArchiveGuardKey(id)).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, exists, "guard held while retrying")
	}

	require.NoError(t, q.Retry(ctx, job))
	dlq, err := client.LLen(ctx, QueueDLQ).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, dlq)
	exists, err := client.Exists(ctx, ArchiveGuardKey(id)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	require.NoError(t, q.ScheduleResultsArchive(ctx, id))
	n, err := client.LLen(ctx, QueueResults).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
