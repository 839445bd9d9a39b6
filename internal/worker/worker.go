package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-elections/backend/internal/models"
	"github.com/aura-elections/backend/pkg/queue"
)

// JobSource is the queue the archiver consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ResultsSource computes an election's results from the record store.
type ResultsSource interface {
	Results(ctx context.Context, electionID uuid.UUID) (*models.ResultSummary, error)
}

// ResultsSink stores an encoded results document.
type ResultsSink interface {
	PutResults(ctx context.Context, electionID uuid.UUID, body []byte) (string, error)
}

// ResultsArchiver processes results archive jobs: recompute final results, upload JSON.
type ResultsArchiver struct {
	results ResultsSource
	sink    ResultsSink
	queue   JobSource
	logger  *zap.Logger
	backoff time.Duration
}

// NewResultsArchiver creates a results archive processor.
func NewResultsArchiver(results ResultsSource, sink ResultsSink, q JobSource, logger *zap.Logger) *ResultsArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsArchiver{results: results, sink: sink, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one results archive job.
func (p *ResultsArchiver) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeResultsArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ResultsArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	summary, err := p.results.Results(ctx, payload.ElectionID)
	if err != nil {
		return fmt.Errorf("compute results: %w", err)
	}
	if summary.Preliminary {
		return fmt.Errorf("election %s has not ended", payload.ElectionID)
	}
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	key, err := p.sink.PutResults(ctx, payload.ElectionID, body)
	if err != nil {
		return fmt.Errorf("upload results: %w", err)
	}

	p.logger.Info("results archived",
		zap.String("election_id", payload.ElectionID.String()),
		zap.String("s3_key", key),
		zap.Int("total_votes", summary.Total),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ResultsArchiver) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("results worker stopping")
			return
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ResultsArchiver) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
