package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/internal/cart"
	"github.com/sgalleguillos/brokerpulse-backend/internal/entitlements"
	"github.com/sgalleguillos/brokerpulse-backend/internal/payments"
	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/metrics"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

// Service turns the current cart into a completed purchase. It records one
// payment, then provisions each line in order. Once the payment is recorded
// the purchase never rolls back; provisioning failures surface as warnings
// on the result instead.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

// Input identifies the purchasing user and their billing details.
type Input struct {
	UserID  uuid.UUID
	Billing types.BillingInfo
}

// Result is the completed purchase summary.
type Result struct {
	TransactionID string
	PaymentID     uuid.UUID
	Strategy      enums.CheckoutStrategy
	ItemsCount    int
	Warnings      []string
}

// Deps bundles everything a checkout needs.
type Deps struct {
	Cart     cart.Store
	Payments payments.Service
	Grants   entitlements.Service
	Reports  reports.Generator
	Retries  reports.RetryQueue
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

type service struct {
	deps Deps
	now  func() time.Time
}

// NewService validates the dependency set and returns the orchestrator.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart store required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payment service required")
	case deps.Grants == nil:
		return nil, fmt.Errorf("entitlement service required")
	case deps.Reports == nil:
		return nil, fmt.Errorf("report generator required")
	case deps.Retries == nil:
		return nil, fmt.Errorf("report retry queue required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{deps: deps, now: time.Now}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	state, err := s.deps.Cart.Snapshot(ctx, input.UserID.String())
	if err != nil {
		return nil, err
	}

	strategy := strategyFor(state)
	started := s.now()
	result, err := s.checkout(ctx, input, state, strategy)
	s.deps.Metrics.ObserveDuration(strategy.String(), s.now().Sub(started))
	if err != nil {
		s.deps.Metrics.IncCompleted(strategy.String(), "failure")
		return nil, err
	}
	s.deps.Metrics.IncCompleted(strategy.String(), "success")
	return result, nil
}

func (s *service) checkout(ctx context.Context, input Input, state cart.State, strategy enums.CheckoutStrategy) (*Result, error) {
	if state.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if missing := input.Billing.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("billing info incomplete: missing %s", strings.Join(missing, ", ")))
	}
	for _, item := range state.Items {
		if item.BrokerRUT() == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %s is missing %s metadata", item.ProductID, cart.MetaBrokerRUT))
		}
	}

	snapshot, err := json.Marshal(state.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode line items")
	}

	payment, err := s.deps.Payments.Record(ctx, payments.RecordPaymentInput{
		UserID:      input.UserID,
		BillingInfo: input.Billing,
		LineItems:   snapshot,
		AmountGross: state.TotalGross,
		AmountNet:   state.SubtotalNet,
		Tax:         state.TaxTotal,
		Strategy:    strategy,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithFields(ctx, map[string]any{
		"payment_id": payment.ID.String(),
		"strategy":   strategy.String(),
	})

	var warnings []string
	for _, item := range state.Items {
		warnings = append(warnings, s.provision(ctx, input.UserID, payment.ID, item)...)
	}

	if err := s.deps.Cart.Clear(ctx, input.UserID.String()); err != nil {
		s.deps.Logger.Error(ctx, "failed to clear cart after checkout", err)
		s.deps.Metrics.IncWarning("cart_clear")
		warnings = append(warnings, "cart could not be cleared, it may still show purchased items")
	}

	s.deps.Logger.Info(ctx, "checkout completed")
	return &Result{
		TransactionID: uuid.NewString(),
		PaymentID:     payment.ID,
		Strategy:      strategy,
		ItemsCount:    state.ItemCount,
		Warnings:      warnings,
	}, nil
}

// provision issues the access grant and generates the report for one line.
// Every failure here is non-fatal: the payment already exists, so the user
// keeps whatever could be provisioned and the rest becomes a warning.
func (s *service) provision(ctx context.Context, userID, paymentID uuid.UUID, item cart.LineItem) []string {
	brokerRUT := item.BrokerRUT()
	ctx = s.deps.Logger.WithBroker(ctx, brokerRUT)

	var warnings []string
	moduleKey := entitlements.DeriveModuleKey(brokerRUT)
	_, err := s.deps.Grants.Grant(ctx, entitlements.GrantInput{
		UserID:    userID,
		PaymentID: paymentID,
		ProductID: item.ProductID,
		ModuleKey: moduleKey,
	})
	if err != nil {
		s.deps.Logger.Error(ctx, "failed to issue access grant", err)
		s.deps.Metrics.IncWarning("grant")
		warnings = append(warnings,
			fmt.Sprintf("access grant for %s could not be issued", item.ProductID))
		// Without a grant the report would be unreadable anyway.
		return warnings
	}

	if _, err := s.deps.Reports.Generate(ctx, userID, brokerRUT, item.Period()); err != nil {
		s.deps.Logger.Error(ctx, "failed to generate report", err)
		s.deps.Metrics.IncWarning("report")
		warnings = append(warnings,
			fmt.Sprintf("report for broker %s will be generated shortly", brokerRUT))
		if qerr := s.deps.Retries.Enqueue(ctx, userID, brokerRUT, item.Period(), err); qerr != nil {
			s.deps.Logger.Error(ctx, "failed to enqueue report retry", qerr)
		}
	}
	return warnings
}

// strategyFor tags the purchase by cart shape. The tag only affects
// reporting and the response body, never the provisioning path.
func strategyFor(state cart.State) enums.CheckoutStrategy {
	if len(state.Items) == 1 {
		return enums.CheckoutStrategySingleItem
	}
	return enums.CheckoutStrategyMultiItem
}
