package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

const (
	defaultRetryBatchSize   = 50
	defaultRetryMaxAttempts = 5
	defaultRetryBackoff     = 10 * time.Minute
)

// ReportRetryJobParams configure the report retry job.
type ReportRetryJobParams struct {
	Logger      *logger.Logger
	Queue       reports.RetryQueue
	Generator   reports.Generator
	BatchSize   int
	MaxAttempts int
	Backoff     time.Duration
}

type reportRetryJob struct {
	logg        *logger.Logger
	queue       reports.RetryQueue
	generator   reports.Generator
	batchSize   int
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// NewReportRetryJob replays report generations that failed during checkout.
func NewReportRetryJob(params ReportRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("retry queue required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("report generator required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultRetryBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryMaxAttempts
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &reportRetryJob{
		logg:        params.Logger,
		queue:       params.Queue,
		generator:   params.Generator,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		now:         time.Now,
	}, nil
}

func (j *reportRetryJob) Name() string { return "report-retry" }

func (j *reportRetryJob) Run(ctx context.Context) error {
	now := j.now()
	jobs, err := j.queue.DuePending(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("list due jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	var errs error
	replayed := 0
	for _, job := range jobs {
		jobCtx := j.logg.WithBroker(ctx, job.BrokerRUT)
		_, genErr := j.generator.Generate(jobCtx, job.UserID, job.BrokerRUT, job.Period)
		if genErr == nil {
			if err := j.queue.MarkSucceeded(jobCtx, job.ID); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			replayed++
			continue
		}

		// Backoff grows with the attempt count so a flaky source does
		// not get hammered every cycle.
		attempts := job.Attempts + 1
		next := now.Add(time.Duration(attempts) * j.backoff)
		exhausted := attempts >= j.maxAttempts
		if exhausted {
			j.logg.Error(jobCtx, "report retry exhausted", genErr)
		}
		if err := j.queue.MarkFailed(jobCtx, job.ID, genErr, next, exhausted); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":      len(jobs),
		"replayed": replayed,
	})
	j.logg.Info(logCtx, "report retry cycle complete")
	return errs
}
