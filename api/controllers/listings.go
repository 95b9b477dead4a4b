package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swapmarket/backend/api/middleware"
	"github.com/swapmarket/backend/api/responses"
	"github.com/swapmarket/backend/api/validators"
	"github.com/swapmarket/backend/internal/listings"
	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/pagination"
)

type listingRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Kind          string           `json:"kind" validate:"required,oneof=good service"`
	Description   string           `json:"description" validate:"max=5000"`
	Contacts      string           `json:"contacts" validate:"max=1000"`
	Condition     *int             `json:"condition"`
	PriceCurrency *decimal.Decimal `json:"price_currency"`
	PriceGifts    *int             `json:"price_gifts"`
	ReadyToChange bool             `json:"ready_to_change"`
	ImageIDs      []uuid.UUID      `json:"image_ids"`
}

func (req listingRequest) toInput() listings.ListingInput {
	input := listings.ListingInput{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		Kind:          enums.ListingKind(req.Kind),
		Description:   req.Description,
		Contacts:      req.Contacts,
		Condition:     req.Condition,
		PriceGifts:    models.NotReadyForSell,
		ReadyToChange: req.ReadyToChange,
		ImageIDs:      req.ImageIDs,
	}
	if req.PriceCurrency != nil {
		input.PriceCurrency = *req.PriceCurrency
	} else {
		input.PriceCurrency = decimal.NewFromInt(models.NotReadyForSell)
	}
	if req.PriceGifts != nil {
		input.PriceGifts = *req.PriceGifts
	}
	return input
}

// CreateListing saves a new listing. The action query parameter decides
// whether the listing stays a draft or enters the publication flow.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := listings.ParseCreateAction(r.URL.Query().Get("action"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req listingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), callerID, action, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// UpdateListing overwrites the listing fields and applies the requested
// publication action.
func UpdateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
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

		action, err := listings.ParseUpdateAction(r.URL.Query().Get("action"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req listingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), callerID, listingID, action, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// GetListing returns the listing as visible to the caller.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
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

		dto, err := svc.Get(r.Context(), callerID, listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListMyListings pages through the caller's own listings in every state.
func ListMyListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), callerID, limit, strings.TrimSpace(r.URL.Query().Get("cursor")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func callerFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func routeUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]string{key: "must be a valid uuid"})
	}
	return id, nil
}
