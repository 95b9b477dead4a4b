package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swapmarket/backend/pkg/enums"
)

// User mirrors the account record owned by the identity provider. Only the
// fields the trading workflow reads are kept here.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PhoneNumber string         `gorm:"column:phone_number;not null;unique"`
	Name        string         `gorm:"column:name;not null"`
	TgChatID    int64          `gorm:"column:tg_chat_id"`
	Gifts       int            `gorm:"column:gifts;not null;default:0"`
	City        string         `gorm:"column:city"`
	Role        enums.UserRole `gorm:"column:role;not null;default:'user'"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
