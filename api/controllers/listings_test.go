package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swapmarket/backend/api/middleware"
	"github.com/swapmarket/backend/internal/listings"
	"github.com/swapmarket/backend/pkg/enums"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/types"
)

type testListingsService struct {
	createFn func(ctx context.Context, ownerID uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error)
	updateFn func(ctx context.Context, callerID, listingID uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error)
	getFn    func(ctx context.Context, callerID, listingID uuid.UUID) (*listings.ListingDTO, error)
}

func (s *testListingsService) Create(ctx context.Context, ownerID uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, ownerID, action, input)
	}
	return &listings.ListingDTO{ID: uuid.New(), UserID: ownerID}, nil
}

func (s *testListingsService) Update(ctx context.Context, callerID, listingID uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, callerID, listingID, action, input)
	}
	return &listings.ListingDTO{ID: listingID, UserID: callerID}, nil
}

func (s *testListingsService) Get(ctx context.Context, callerID, listingID uuid.UUID) (*listings.ListingDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, callerID, listingID)
	}
	return &listings.ListingDTO{ID: listingID}, nil
}

func (s *testListingsService) List(ctx context.Context, ownerID uuid.UUID, limit int, cursor string) (*listings.ListResult, error) {
	return &listings.ListResult{}, nil
}

func (s *testListingsService) ModerationQueue(ctx context.Context, actorRole enums.UserRole, limit int, cursor string) (*listings.ListResult, error) {
	return &listings.ListResult{}, nil
}

func (s *testListingsService) Decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, listingID uuid.UUID, input listings.DecisionInput) (*listings.ListingDTO, error) {
	return &listings.ListingDTO{ID: listingID}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asCaller(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestCreateListingParsesActionAndBody(t *testing.T) {
	ownerID := uuid.New()
	var gotAction listings.Action
	var gotInput listings.ListingInput
	svc := &testListingsService{
		createFn: func(ctx context.Context, oid uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error) {
			if oid != ownerID {
				t.Fatalf("unexpected owner %s", oid)
			}
			gotAction = action
			gotInput = input
			return &listings.ListingDTO{ID: uuid.New(), UserID: oid}, nil
		},
	}

	body := `{"name":"Mountain bike","kind":"good","condition":4,"price_gifts":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/?action=publish", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asCaller(req, ownerID)

	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotAction != listings.ActionPublish {
		t.Fatalf("expected publish action got %s", gotAction)
	}
	if gotInput.Name != "Mountain bike" || gotInput.Kind != enums.ListingKindGood {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	if gotInput.Condition == nil || *gotInput.Condition != 4 {
		t.Fatalf("expected condition 4, got %v", gotInput.Condition)
	}
	if gotInput.PriceGifts != 2 {
		t.Fatalf("expected price_gifts 2, got %d", gotInput.PriceGifts)
	}
}

func TestCreateListingDefaultsPricesToSentinel(t *testing.T) {
	var gotInput listings.ListingInput
	svc := &testListingsService{
		createFn: func(ctx context.Context, oid uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error) {
			gotInput = input
			return &listings.ListingDTO{ID: uuid.New()}, nil
		},
	}

	body := `{"name":"Old books","kind":"good","condition":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/?action=draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asCaller(req, uuid.New())

	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.PriceGifts != -1 {
		t.Fatalf("expected gift price sentinel, got %d", gotInput.PriceGifts)
	}
	if !gotInput.PriceCurrency.Equal(decimal.NewFromInt(-1)) {
		t.Fatalf("expected currency price sentinel, got %s", gotInput.PriceCurrency)
	}
}

func TestCreateListingRejectsBadAction(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/?action=archive", strings.NewReader(`{}`))
	req = asCaller(req, uuid.New())

	resp := httptest.NewRecorder()
	CreateListing(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	details, ok := envelope.Error.Details.(map[string]any)
	if !ok || details["action"] != "action should be publish/draft" {
		t.Fatalf("expected action hint in details, got %v", envelope.Error.Details)
	}
}

func TestUpdateListingAllowsLifecycleActions(t *testing.T) {
	listingID := uuid.New()
	var gotAction listings.Action
	svc := &testListingsService{
		updateFn: func(ctx context.Context, callerID, lid uuid.UUID, action listings.Action, input listings.ListingInput) (*listings.ListingDTO, error) {
			gotAction = action
			return &listings.ListingDTO{ID: lid, UserID: callerID}, nil
		},
	}

	body := `{"name":"Sofa","kind":"good","condition":2}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/"+listingID.String()+"?action=sold", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asCaller(req, uuid.New())
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	UpdateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotAction != listings.ActionSold {
		t.Fatalf("expected sold action got %s", gotAction)
	}
}

func TestUpdateListingRejectsUnknownBodyFields(t *testing.T) {
	listingID := uuid.New()
	body := `{"name":"Sofa","kind":"good","owner_override":"x"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/"+listingID.String()+"?action=draft", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asCaller(req, uuid.New())
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	UpdateListing(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", resp.Code)
	}
}

func TestGetListingRequiresAuthContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+uuid.NewString(), nil)
	req = addRouteParam(req, "listingId", uuid.NewString())

	resp := httptest.NewRecorder()
	GetListing(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity got %d", resp.Code)
	}
}

func TestGetListingRejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/not-a-uuid", nil)
	req = asCaller(req, uuid.New())
	req = addRouteParam(req, "listingId", "not-a-uuid")

	resp := httptest.NewRecorder()
	GetListing(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id got %d", resp.Code)
	}
}
