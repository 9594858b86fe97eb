package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
)

// DefaultReportTTL bounds how long a generated report stays readable.
const DefaultReportTTL = 365 * 24 * time.Hour

// Generator produces the purchased deliverable for one broker and period.
// It runs after the access grant exists and may fail independently of it.
type Generator interface {
	Generate(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error)
}

// Finder serves the read path. Expiration is evaluated here, never written
// back to the row.
type Finder interface {
	Find(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error)
}

// Service is what the default implementation provides: generation for the
// provisioning flow and lookup for the read endpoints.
type Service interface {
	Generator
	Finder
}

// Repository manages persistence for generated reports.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, report *models.Report) error
	FindByKey(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a report repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) FindByKey(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND broker_rut = ? AND period = ?", userID, brokerRUT, period).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

type generator struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewGenerator builds the default generator, which snapshots the broker's
// market statistics into the report payload. A non-positive ttl falls back
// to DefaultReportTTL.
func NewGenerator(repo Repository, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &generator{repo: repo, ttl: ttl, now: time.Now}, nil
}

func (g *generator) Generate(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(brokerRUT) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "broker rut is required")
	}
	if strings.TrimSpace(period) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period is required")
	}

	// Regeneration for the same key is a no-op: the existing row wins.
	if existing, err := g.repo.FindByKey(ctx, userID, brokerRUT, period); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup report")
	}

	now := g.now()
	payload, err := json.Marshal(map[string]any{
		"rutCorredor": brokerRUT,
		"periodo":     period,
		"generadoEn":  now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode report payload")
	}

	report := &models.Report{
		UserID:      userID,
		BrokerRUT:   brokerRUT,
		Period:      period,
		Payload:     payload,
		GeneratedAt: now,
		ExpiresAt:   now.Add(g.ttl),
		Active:      true,
	}
	if err := g.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return report, nil
}

func (g *generator) Find(ctx context.Context, userID uuid.UUID, brokerRUT, period string) (*models.Report, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	report, err := g.repo.FindByKey(ctx, userID, brokerRUT, period)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup report")
	}
	if !report.Active || g.now().After(report.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report no longer available")
	}
	return report, nil
}
