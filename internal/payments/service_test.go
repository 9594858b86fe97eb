package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

type fakeRepository struct {
	createFn func(ctx context.Context, payment *models.Payment) error
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Payment, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, payment *models.Payment) error {
	if f.createFn != nil {
		return f.createFn(ctx, payment)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func validInput() RecordPaymentInput {
	return RecordPaymentInput{
		UserID: uuid.New(),
		BillingInfo: types.BillingInfo{
			RUT:         "11.111.111-1",
			RazonSocial: "ACME",
			Direccion:   "Calle 1",
		},
		LineItems:   json.RawMessage(`[{"productId":"rp_001","cantidad":1}]`),
		AmountGross: 35688,
		AmountNet:   29990,
		Tax:         5698,
		Strategy:    enums.CheckoutStrategySingleItem,
	}
}

func TestServiceRecord(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.Payment
	repo.createFn = func(ctx context.Context, payment *models.Payment) error {
		created = payment
		return nil
	}

	input := validInput()
	got, err := svc.Record(context.Background(), input)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created == nil {
		t.Fatal("expected payment to be created")
	}
	if created.UserID != input.UserID || created.AmountGross != 35688 || created.Strategy != enums.CheckoutStrategySingleItem {
		t.Fatalf("unexpected payment data: %+v", created)
	}
	if created.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %s", created.Status)
	}
	if got != created {
		t.Fatal("service should return the created record")
	}
}

func TestServiceRecordValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	tests := []struct {
		name   string
		mutate func(*RecordPaymentInput)
	}{
		{"missing user", func(i *RecordPaymentInput) { i.UserID = uuid.Nil }},
		{"missing snapshot", func(i *RecordPaymentInput) { i.LineItems = nil }},
		{"invalid strategy", func(i *RecordPaymentInput) { i.Strategy = "bulk" }},
		{"negative amount", func(i *RecordPaymentInput) { i.AmountNet = -1 }},
		{"non-reconciling amounts", func(i *RecordPaymentInput) { i.Tax = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Record(context.Background(), input)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestServiceRecordRepoError(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, payment *models.Payment) error {
			return errors.New("insert failed")
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.Record(context.Background(), validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceGetByIDNotFound(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.GetByID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
