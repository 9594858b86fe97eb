package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/api/middleware"
	"github.com/sgalleguillos/brokerpulse-backend/api/responses"
	"github.com/sgalleguillos/brokerpulse-backend/api/validators"
	checkoutsvc "github.com/sgalleguillos/brokerpulse-backend/internal/checkout"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

type checkoutRequest struct {
	Billing types.BillingInfo `json:"datosFacturacion" validate:"required"`
}

// checkoutResponse is the client-durable purchase confirmation. Unlike the
// rest of the API it is not wrapped in the data envelope; the client reads
// these fields at the top level.
type checkoutResponse struct {
	Success       bool     `json:"success"`
	TransactionID string   `json:"transactionId"`
	PaymentID     string   `json:"pagoId"`
	Type          string   `json:"tipo"`
	ItemsCount    int      `json:"items_count"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Checkout submits the user's cart as a purchase.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			UserID:  userID,
			Billing: payload.Billing,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, checkoutResponse{
			Success:       true,
			TransactionID: result.TransactionID,
			PaymentID:     result.PaymentID.String(),
			Type:          result.Strategy.Tipo(),
			ItemsCount:    result.ItemsCount,
			Warnings:      result.Warnings,
		})
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
