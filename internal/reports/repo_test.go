package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	reports := `
CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  broker_rut TEXT NOT NULL,
  period TEXT NOT NULL,
  payload TEXT,
  generated_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	jobs := `
CREATE TABLE IF NOT EXISTS report_retry_jobs (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  broker_rut TEXT NOT NULL,
  period TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  next_run_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(reports).Error)
	require.NoError(t, db.Exec(jobs).Error)
	return db
}

func TestReportRepositoryFindByKey(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now()
	report := &models.Report{
		ID:          uuid.New(),
		UserID:      userID,
		BrokerRUT:   "762686856",
		Period:      "202412",
		Payload:     []byte(`{"rutCorredor":"762686856"}`),
		GeneratedAt: now,
		ExpiresAt:   now.Add(24 * time.Hour),
		Active:      true,
	}
	require.NoError(t, repo.Create(ctx, report))

	found, err := repo.FindByKey(ctx, userID, "762686856", "202412")
	require.NoError(t, err)
	assert.Equal(t, report.ID, found.ID)

	_, err = repo.FindByKey(ctx, userID, "762686856", "202501")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestQueueRepositoryListsDuePendingOnly(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	now := time.Now()
	due := &models.ReportRetryJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		BrokerRUT: "762686856",
		Period:    "202412",
		Status:    enums.RetryStatusPending,
		NextRunAt: now.Add(-time.Minute),
	}
	future := &models.ReportRetryJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		BrokerRUT: "965880801",
		Period:    "202412",
		Status:    enums.RetryStatusPending,
		NextRunAt: now.Add(time.Hour),
	}
	done := &models.ReportRetryJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		BrokerRUT: "765877805",
		Period:    "202412",
		Status:    enums.RetryStatusSucceeded,
		NextRunAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, future))
	require.NoError(t, repo.Create(ctx, done))

	jobs, err := repo.ListDuePending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, due.ID, jobs[0].ID)
}

func TestQueueRepositoryUpdate(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewQueueRepository(db)
	ctx := context.Background()

	job := &models.ReportRetryJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		BrokerRUT: "762686856",
		Period:    "202412",
		Status:    enums.RetryStatusPending,
		NextRunAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, job))

	job.Status = enums.RetryStatusSucceeded
	job.Attempts = 1
	require.NoError(t, repo.Update(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RetryStatusSucceeded, found.Status)
	assert.Equal(t, 1, found.Attempts)
}
