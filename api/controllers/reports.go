package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sgalleguillos/brokerpulse-backend/api/responses"
	"github.com/sgalleguillos/brokerpulse-backend/internal/entitlements"
	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

// BrokerReport serves one purchased report. The caller must hold an active
// access grant for the broker's module; without it the row is not disclosed,
// not even its existence.
func BrokerReport(grants entitlements.Service, finder reports.Finder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if grants == nil || finder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report services unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brokerRUT := strings.TrimSpace(chi.URLParam(r, "rut"))
		period := strings.TrimSpace(chi.URLParam(r, "periodo"))
		if brokerRUT == "" || period == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "broker rut and period are required"))
			return
		}

		active, err := grants.HasActive(r.Context(), userID, entitlements.DeriveModuleKey(brokerRUT))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !active {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no active grant for this report"))
			return
		}

		report, err := finder.Find(r.Context(), userID, brokerRUT, period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
