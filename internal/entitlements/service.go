package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
)

// DefaultGrantDuration is how long a purchased report module stays
// accessible when no product-specific duration is configured.
const DefaultGrantDuration = 365 * 24 * time.Hour

// DeriveModuleKey names the module a broker-report purchase unlocks. The RUT
// is normalized so formatted and bare inputs map to the same grant.
func DeriveModuleKey(brokerRUT string) string {
	normalized := strings.NewReplacer(".", "", "-", "", " ", "").Replace(strings.TrimSpace(brokerRUT))
	return "report_broker_" + strings.ToUpper(normalized)
}

// Service issues and reads time-boxed access grants.
type Service interface {
	Grant(ctx context.Context, input GrantInput) (*models.AccessGrant, error)
	HasActive(ctx context.Context, userID uuid.UUID, moduleKey string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessGrant, error)
}

type service struct {
	repo     Repository
	duration time.Duration
	now      func() time.Time
}

// GrantInput captures the data required to issue one access grant.
type GrantInput struct {
	UserID    uuid.UUID
	PaymentID uuid.UUID
	ProductID string
	ModuleKey string
}

// NewService wires an entitlement service. A non-positive duration falls
// back to DefaultGrantDuration.
func NewService(repo Repository, duration time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("grant repository required")
	}
	if duration <= 0 {
		duration = DefaultGrantDuration
	}
	return &service{repo: repo, duration: duration, now: time.Now}, nil
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*models.AccessGrant, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.ModuleKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "module key is required")
	}

	now := s.now()
	grant := &models.AccessGrant{
		UserID:     input.UserID,
		PaymentID:  input.PaymentID,
		ProductID:  input.ProductID,
		ModuleKey:  input.ModuleKey,
		ValidFrom:  now,
		ValidUntil: now.Add(s.duration),
		Active:     true,
	}

	if err := s.repo.Create(ctx, grant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create access grant")
	}
	return grant, nil
}

// HasActive reports whether the user currently holds an unexpired grant for
// the module. Expiration is evaluated here at read time; rows are never
// deactivated eagerly.
func (s *service) HasActive(ctx context.Context, userID uuid.UUID, moduleKey string) (bool, error) {
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(moduleKey) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "module key is required")
	}

	_, err := s.repo.FindActive(ctx, userID, moduleKey, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup access grant")
	}
	return true, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessGrant, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list access grants")
	}
	return rows, nil
}
