package entitlements

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
)

func setupGrantsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	grants := `
CREATE TABLE IF NOT EXISTS access_grants (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  payment_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  module_key TEXT NOT NULL,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(grants).Error)
	return db
}

func sampleGrant(userID uuid.UUID, moduleKey string, validFrom, validUntil time.Time) *models.AccessGrant {
	return &models.AccessGrant{
		ID:         uuid.New(),
		UserID:     userID,
		PaymentID:  uuid.New(),
		ProductID:  "rp_001",
		ModuleKey:  moduleKey,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		Active:     true,
	}
}

func TestRepositoryFindActive(t *testing.T) {
	db := setupGrantsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, sampleGrant(userID, "report_broker_762686856", now.Add(-time.Hour), now.Add(time.Hour))))

	grant, err := repo.FindActive(ctx, userID, "report_broker_762686856", now)
	require.NoError(t, err)
	assert.Equal(t, userID, grant.UserID)
	assert.True(t, grant.Active)
}

func TestRepositoryFindActiveSkipsExpired(t *testing.T) {
	db := setupGrantsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, sampleGrant(userID, "report_broker_762686856", now.Add(-48*time.Hour), now.Add(-time.Hour))))

	_, err := repo.FindActive(ctx, userID, "report_broker_762686856", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindActiveWrongModule(t *testing.T) {
	db := setupGrantsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, sampleGrant(userID, "report_broker_762686856", now.Add(-time.Hour), now.Add(time.Hour))))

	_, err := repo.FindActive(ctx, userID, "report_broker_965880801", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByUser(t *testing.T) {
	db := setupGrantsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, sampleGrant(userID, "report_broker_762686856", now, now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleGrant(userID, "report_broker_965880801", now, now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleGrant(uuid.New(), "report_broker_762686856", now, now.Add(time.Hour))))

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
