package controllers

import (
	"net/http"

	"github.com/sgalleguillos/brokerpulse-backend/api/responses"
	"github.com/sgalleguillos/brokerpulse-backend/internal/entitlements"
	"github.com/sgalleguillos/brokerpulse-backend/internal/payments"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

// PurchaseHistory lists the user's recorded payments, newest first.
func PurchaseHistory(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// AccessGrants lists the access grants the user holds.
func AccessGrants(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
