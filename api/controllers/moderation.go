package controllers

import (
	"net/http"
	"strings"

	"github.com/swapmarket/backend/api/middleware"
	"github.com/swapmarket/backend/api/responses"
	"github.com/swapmarket/backend/api/validators"
	"github.com/swapmarket/backend/internal/listings"
	"github.com/swapmarket/backend/pkg/enums"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/pagination"
)

type moderationDecisionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Reason   string `json:"reason" validate:"max=1000"`
}

// ModerationQueue pages through listings awaiting review, oldest submissions
// surfacing through the cursor order.
func ModerationQueue(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		result, err := svc.ModerationQueue(r.Context(), role, limit, strings.TrimSpace(r.URL.Query().Get("cursor")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ModerationDecide applies a moderator verdict to a listing under review.
func ModerationDecide(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := routeUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moderationDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := listings.ParseDecision(req.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		dto, err := svc.Decide(r.Context(), callerID, role, listingID, listings.DecisionInput{
			Decision: decision,
			Reason:   req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
