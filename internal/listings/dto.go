package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
)

// ListingInput is the validated field payload shared by create and update.
type ListingInput struct {
	Name          string
	CategoryID    *uuid.UUID
	Kind          enums.ListingKind
	Description   string
	Contacts      string
	Condition     *int
	PriceCurrency decimal.Decimal
	PriceGifts    int
	ReadyToChange bool
	ImageIDs      []uuid.UUID
}

// ImageRef is the public reference to an attached image.
type ImageRef struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

// ListingDTO is the full listing representation returned to clients.
type ListingDTO struct {
	ID                       uuid.UUID          `json:"id"`
	UserID                   uuid.UUID          `json:"user_id"`
	CategoryID               *uuid.UUID         `json:"category_id"`
	Kind                     enums.ListingKind  `json:"kind"`
	State                    enums.PublishState `json:"state"`
	Name                     string             `json:"name"`
	Description              string             `json:"description"`
	Contacts                 string             `json:"contacts"`
	Condition                *int               `json:"condition"`
	PriceCurrency            decimal.Decimal    `json:"price_currency"`
	PriceGifts               int                `json:"price_gifts"`
	ReadyToChange            bool               `json:"ready_to_change"`
	ModerationDisallowReason string             `json:"moderation_disallow_reason,omitempty"`
	Images                   []ImageRef         `json:"images"`
	IsAuthor                 bool               `json:"is_author"`
	CreatedAt                time.Time          `json:"created_at"`
	UpdatedAt                time.Time          `json:"updated_at"`
}

// ImageURLBuilder resolves a storage key into a client-facing URL.
type ImageURLBuilder interface {
	PublicURL(storageKey string) string
}

// NewListingDTO builds the client representation for the given caller.
func NewListingDTO(listing *models.Listing, callerID uuid.UUID, urls ImageURLBuilder) *ListingDTO {
	if listing == nil {
		return nil
	}
	refs := make([]ImageRef, 0, len(listing.Images))
	for _, img := range listing.Images {
		ref := ImageRef{ID: img.ID}
		if urls != nil {
			ref.URL = urls.PublicURL(img.StorageKey)
		}
		refs = append(refs, ref)
	}
	return &ListingDTO{
		ID:                       listing.ID,
		UserID:                   listing.UserID,
		CategoryID:               listing.CategoryID,
		Kind:                     listing.Kind,
		State:                    listing.State,
		Name:                     listing.Name,
		Description:              listing.Description,
		Contacts:                 listing.Contacts,
		Condition:                listing.Condition,
		PriceCurrency:            listing.PriceCurrency,
		PriceGifts:               listing.PriceGifts,
		ReadyToChange:            listing.ReadyToChange,
		ModerationDisallowReason: listing.ModerationDisallowReason,
		Images:                   refs,
		IsAuthor:                 listing.UserID == callerID,
		CreatedAt:                listing.CreatedAt,
		UpdatedAt:                listing.UpdatedAt,
	}
}

// ListResult wraps a listing page with the cursor for the next page.
type ListResult struct {
	Items  []ListingDTO `json:"items"`
	Cursor string       `json:"cursor"`
}
