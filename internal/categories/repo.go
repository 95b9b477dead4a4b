package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
)

// Repository exposes read access to the category taxonomy.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a category repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a single category node.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ListingCategory, error) {
	var category models.ListingCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListAll returns every category ordered for deterministic tree building.
func (r *Repository) ListAll(ctx context.Context) ([]models.ListingCategory, error) {
	var rows []models.ListingCategory
	if err := r.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
