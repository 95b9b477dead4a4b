package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swapmarket/backend/pkg/enums"
)

// NotReadyForSell marks a price the owner does not accept: a listing can
// independently be unsellable for real currency and unsellable for gifts.
const NotReadyForSell = -1

// Listing is the canonical good/service offer. Rows are never hard-deleted;
// deletion is the "deleted" publish state.
type Listing struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	CategoryID *uuid.UUID         `gorm:"column:category_id;type:uuid"`
	Kind       enums.ListingKind  `gorm:"column:kind;not null"`
	State      enums.PublishState `gorm:"column:state;not null;default:'draft'"`

	Name        string `gorm:"column:name;not null"`
	Description string `gorm:"column:description"`
	Contacts    string `gorm:"column:contacts;not null"`

	// Condition grades a physical good from 1 (worn) to 5 (new). Required
	// for goods, absent for services.
	Condition *int `gorm:"column:condition"`

	PriceCurrency decimal.Decimal `gorm:"column:price_currency;type:numeric(10,2);not null"`
	PriceGifts    int             `gorm:"column:price_gifts;not null"`
	ReadyToChange bool            `gorm:"column:ready_to_change;not null;default:false"`

	// ModerationDisallowReason is written by the moderation decision only;
	// owners see it read-only.
	ModerationDisallowReason string `gorm:"column:moderation_disallow_reason"`

	Images []Image `gorm:"foreignKey:ListingID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Listing) TableName() string { return "listings" }
