package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueResults is the Redis list key for results archive jobs.
	QueueResults = "worker:results"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second

	// archiveGuardPrefix marks elections whose archive job was already enqueued.
	archiveGuardPrefix = "results:archived:"
	archiveGuardTTL    = 30 * 24 * time.Hour
	dequeueTimeout     = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeResultsArchive JobType = "results_archive"
)

// ResultsArchivePayload is the payload for results archive jobs.
type ResultsArchivePayload struct {
	ElectionID uuid.UUID `json:"election_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in a job envelope.
func NewJob(t JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now(),
	}, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// Enqueue appends job to the results queue.
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueResults, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// ArchiveGuardKey is the Redis key that marks an election's archive job as scheduled.
func ArchiveGuardKey(electionID uuid.UUID) string {
	return archiveGuardPrefix + electionID.String()
}

// ScheduleResultsArchive enqueues one archive job per election; later calls are no-ops
// until the job lands in the DLQ.
func (q *Queue) ScheduleResultsArchive(ctx context.Context, electionID uuid.UUID) error {
	guard := ArchiveGuardKey(electionID)
	first, err := q.client.SetNX(ctx, guard, time.Now().Unix(), archiveGuardTTL).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}
	if !first {
		return nil
	}
	job, err := NewJob(JobTypeResultsArchive, ResultsArchivePayload{ElectionID: electionID})
	if err == nil {
		err = q.Enqueue(ctx, job)
	}
	if err != nil {
		// release the guard so a later read retries
		_ = q.client.Del(ctx, guard).Err()
		return err
	}
	q.logger.Info("results archive scheduled", zap.String("election_id", electionID.String()), zap.String("job_id", job.ID))
	return nil
}

// Dequeue waits briefly for a job. It returns nil, nil when the queue stayed empty.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, dequeueTimeout, QueueResults).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt < MaxRetries {
		if err := q.Enqueue(ctx, job); err != nil {
			return err
		}
		q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	q.releaseArchiveGuard(ctx, job)
	return nil
}

// releaseArchiveGuard lets a dead-lettered archive be scheduled again.
func (q *Queue) releaseArchiveGuard(ctx context.Context, job *Job) {
	if job.Type != JobTypeResultsArchive {
		return
	}
	var payload ResultsArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		q.logger.Warn("dlq job payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if err := q.client.Del(ctx, ArchiveGuardKey(payload.ElectionID)).Err(); err != nil {
		q.logger.Warn("release archive guard", zap.String("election_id", payload.ElectionID.String()), zap.Error(err))
	}
}
