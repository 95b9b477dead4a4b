package models

import "github.com/google/uuid"

// ListingCategory is one node of the self-referencing category taxonomy.
// Deleting a parent nulls the child references rather than cascading.
type ListingCategory struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	SortOrder int        `gorm:"column:sort_order;not null;default:0"`
	IsService bool       `gorm:"column:is_service;not null;default:false"`
}
