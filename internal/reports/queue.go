package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
)

// RetryQueue records report generations that failed during checkout so a
// background worker can replay them later.
type RetryQueue interface {
	Enqueue(ctx context.Context, userID uuid.UUID, brokerRUT, period string, cause error) error
	DuePending(ctx context.Context, now time.Time, limit int) ([]models.ReportRetryJob, error)
	MarkSucceeded(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, cause error, nextRunAt time.Time, exhausted bool) error
}

// QueueRepository manages persistence for retry jobs.
type QueueRepository interface {
	Create(ctx context.Context, job *models.ReportRetryJob) error
	ListDuePending(ctx context.Context, now time.Time, limit int) ([]models.ReportRetryJob, error)
	Update(ctx context.Context, job *models.ReportRetryJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReportRetryJob, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository returns a retry-job repository bound to the database.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Create(ctx context.Context, job *models.ReportRetryJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *queueRepository) ListDuePending(ctx context.Context, now time.Time, limit int) ([]models.ReportRetryJob, error) {
	var jobs []models.ReportRetryJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_run_at <= ?", enums.RetryStatusPending, now).
		Order("next_run_at asc").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *queueRepository) Update(ctx context.Context, job *models.ReportRetryJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *queueRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReportRetryJob, error) {
	var job models.ReportRetryJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

type retryQueue struct {
	repo QueueRepository
	now  func() time.Time
}

// NewRetryQueue builds the queue service over the given repository.
func NewRetryQueue(repo QueueRepository) (RetryQueue, error) {
	if repo == nil {
		return nil, fmt.Errorf("retry queue repository required")
	}
	return &retryQueue{repo: repo, now: time.Now}, nil
}

func (q *retryQueue) Enqueue(ctx context.Context, userID uuid.UUID, brokerRUT, period string, cause error) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(brokerRUT) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "broker rut is required")
	}
	now := q.now()
	job := &models.ReportRetryJob{
		UserID:    userID,
		BrokerRUT: brokerRUT,
		Period:    period,
		Status:    enums.RetryStatusPending,
		Attempts:  0,
		NextRunAt: now,
	}
	if cause != nil {
		msg := cause.Error()
		job.LastError = &msg
	}
	if err := q.repo.Create(ctx, job); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue report retry")
	}
	return nil
}

func (q *retryQueue) DuePending(ctx context.Context, now time.Time, limit int) ([]models.ReportRetryJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := q.repo.ListDuePending(ctx, now, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due retry jobs")
	}
	return jobs, nil
}

func (q *retryQueue) MarkSucceeded(ctx context.Context, jobID uuid.UUID) error {
	job, err := q.repo.FindByID(ctx, jobID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find retry job")
	}
	job.Status = enums.RetryStatusSucceeded
	job.Attempts++
	job.LastError = nil
	job.UpdatedAt = q.now()
	if err := q.repo.Update(ctx, job); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update retry job")
	}
	return nil
}

func (q *retryQueue) MarkFailed(ctx context.Context, jobID uuid.UUID, cause error, nextRunAt time.Time, exhausted bool) error {
	job, err := q.repo.FindByID(ctx, jobID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find retry job")
	}
	job.Attempts++
	job.UpdatedAt = q.now()
	job.NextRunAt = nextRunAt
	if exhausted {
		job.Status = enums.RetryStatusFailed
	}
	if cause != nil {
		msg := cause.Error()
		job.LastError = &msg
	}
	if err := q.repo.Update(ctx, job); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update retry job")
	}
	return nil
}
