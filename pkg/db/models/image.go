package models

import (
	"time"

	"github.com/google/uuid"
)

// Image captures metadata for an uploaded photo. The blob itself lives in the
// object store under StorageKey; ListingID stays null until the image is
// attached to a listing.
type Image struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	ListingID *uuid.UUID `gorm:"column:listing_id;type:uuid"`
	StorageKey string    `gorm:"column:storage_key;not null;unique"`
	FileName  string     `gorm:"column:file_name;not null"`
	MimeType  string     `gorm:"column:mime_type;not null"`
	SizeBytes int64      `gorm:"column:size_bytes;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
