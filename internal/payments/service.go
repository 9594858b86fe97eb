package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

// Service is the durable ledger of payment records. Records are created
// exactly once per checkout attempt that passes validation and are never
// mutated afterwards.
type Service interface {
	Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
}

type service struct {
	repo Repository
}

// RecordPaymentInput captures the immutable data a payment record requires.
type RecordPaymentInput struct {
	UserID      uuid.UUID
	BillingInfo types.BillingInfo
	LineItems   json.RawMessage
	AmountGross int64
	AmountNet   int64
	Tax         int64
	Strategy    enums.CheckoutStrategy
}

// NewService wires a payment service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordPaymentInput) (*models.Payment, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line items snapshot is required")
	}
	if !input.Strategy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid checkout strategy %q", input.Strategy))
	}
	if input.AmountGross < 0 || input.AmountNet < 0 || input.Tax < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amounts must be non-negative")
	}
	if input.AmountGross != input.AmountNet+input.Tax {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amounts do not reconcile")
	}

	payment := &models.Payment{
		UserID:      input.UserID,
		BillingInfo: input.BillingInfo,
		LineItems:   input.LineItems,
		AmountGross: input.AmountGross,
		AmountNet:   input.AmountNet,
		Tax:         input.Tax,
		Strategy:    input.Strategy,
		Status:      enums.PaymentStatusCompleted,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment record")
	}
	return payment, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}
