package entitlements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
)

// Repository manages persistence for access grants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, grant *models.AccessGrant) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessGrant, error)
	FindActive(ctx context.Context, userID uuid.UUID, moduleKey string, now time.Time) (*models.AccessGrant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a grant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, grant *models.AccessGrant) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessGrant, error) {
	var rows []models.AccessGrant
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindActive(ctx context.Context, userID uuid.UUID, moduleKey string, now time.Time) (*models.AccessGrant, error) {
	var grant models.AccessGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_key = ? AND active = ? AND valid_from <= ? AND valid_until > ?",
			userID, moduleKey, true, now, now).
		Order("valid_until DESC").
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}
