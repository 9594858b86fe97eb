package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

type fakeRetryQueue struct {
	jobs      []models.ReportRetryJob
	succeeded []uuid.UUID
	failed    []uuid.UUID
	exhausted []uuid.UUID
	nextRuns  map[uuid.UUID]time.Time
}

func (f *fakeRetryQueue) Enqueue(context.Context, uuid.UUID, string, string, error) error {
	return nil
}

func (f *fakeRetryQueue) DuePending(_ context.Context, now time.Time, limit int) ([]models.ReportRetryJob, error) {
	var due []models.ReportRetryJob
	for _, job := range f.jobs {
		if job.Status == enums.RetryStatusPending && !job.NextRunAt.After(now) {
			due = append(due, job)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeRetryQueue) MarkSucceeded(_ context.Context, jobID uuid.UUID) error {
	f.succeeded = append(f.succeeded, jobID)
	return nil
}

func (f *fakeRetryQueue) MarkFailed(_ context.Context, jobID uuid.UUID, _ error, nextRunAt time.Time, exhausted bool) error {
	f.failed = append(f.failed, jobID)
	if exhausted {
		f.exhausted = append(f.exhausted, jobID)
	}
	if f.nextRuns == nil {
		f.nextRuns = map[uuid.UUID]time.Time{}
	}
	f.nextRuns[jobID] = nextRunAt
	return nil
}

type fakeRetryGenerator struct {
	failFor map[string]error
	calls   []string
}

func (f *fakeRetryGenerator) Generate(_ context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error) {
	f.calls = append(f.calls, brokerRUT)
	if err := f.failFor[brokerRUT]; err != nil {
		return nil, err
	}
	return &models.Report{ID: uuid.New(), UserID: userID, BrokerRUT: brokerRUT, Period: period}, nil
}

func pendingJob(rut string, attempts int) models.ReportRetryJob {
	return models.ReportRetryJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		BrokerRUT: rut,
		Period:    "202412",
		Status:    enums.RetryStatusPending,
		Attempts:  attempts,
		NextRunAt: time.Now().Add(-time.Minute),
	}
}

func newRetryJob(t *testing.T, queue *fakeRetryQueue, gen *fakeRetryGenerator) Job {
	t.Helper()
	job, err := NewReportRetryJob(ReportRetryJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "worker-test"}),
		Queue:       queue,
		Generator:   gen,
		MaxAttempts: 3,
		Backoff:     time.Minute,
	})
	if err != nil {
		t.Fatalf("new retry job: %v", err)
	}
	return job
}

func TestReportRetryReplaysDueJobs(t *testing.T) {
	queue := &fakeRetryQueue{jobs: []models.ReportRetryJob{
		pendingJob("762686856", 0),
		pendingJob("765877805", 1),
	}}
	gen := &fakeRetryGenerator{failFor: map[string]error{}}

	if err := newRetryJob(t, queue, gen).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(queue.succeeded) != 2 || len(queue.failed) != 0 {
		t.Fatalf("expected both jobs replayed, got succeeded=%d failed=%d", len(queue.succeeded), len(queue.failed))
	}
	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 generator calls, got %d", len(gen.calls))
	}
}

func TestReportRetryBacksOffOnFailure(t *testing.T) {
	job := pendingJob("762686856", 1)
	queue := &fakeRetryQueue{jobs: []models.ReportRetryJob{job}}
	gen := &fakeRetryGenerator{failFor: map[string]error{"762686856": errors.New("still down")}}

	if err := newRetryJob(t, queue, gen).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(queue.failed) != 1 || len(queue.exhausted) != 0 {
		t.Fatalf("expected one non-terminal failure, got failed=%d exhausted=%d", len(queue.failed), len(queue.exhausted))
	}
	// Second attempt, so the next run is two backoff units out.
	next := queue.nextRuns[job.ID]
	if until := time.Until(next); until < 90*time.Second {
		t.Fatalf("expected backoff of roughly two minutes, got %v", until)
	}
}

func TestReportRetryExhaustsAfterMaxAttempts(t *testing.T) {
	job := pendingJob("762686856", 2)
	queue := &fakeRetryQueue{jobs: []models.ReportRetryJob{job}}
	gen := &fakeRetryGenerator{failFor: map[string]error{"762686856": errors.New("gone for good")}}

	if err := newRetryJob(t, queue, gen).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(queue.exhausted) != 1 || queue.exhausted[0] != job.ID {
		t.Fatalf("expected the job to exhaust, got %v", queue.exhausted)
	}
}

func TestReportRetryNoDueJobsIsNoop(t *testing.T) {
	queue := &fakeRetryQueue{}
	gen := &fakeRetryGenerator{failFor: map[string]error{}}

	if err := newRetryJob(t, queue, gen).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(gen.calls) != 0 {
		t.Fatalf("generator should not be called, got %d calls", len(gen.calls))
	}
}
