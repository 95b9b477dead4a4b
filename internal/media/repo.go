package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
)

// Repository exposes image metadata persistence operations. The transaction
// aware methods take an explicit tx so the reconciler can run inside the
// listing save transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an image repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create persists an image record.
func (r *Repository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

// FindByID retrieves an image record by ID.
func (r *Repository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Image, error) {
	var img models.Image
	if err := r.conn(tx).WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// ListByListing returns the images attached to a listing, oldest first.
func (r *Repository) ListByListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Image, error) {
	var rows []models.Image
	err := r.conn(tx).WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Attach points the image at the given listing. Reattaching moves the image,
// it never duplicates the row.
func (r *Repository) Attach(ctx context.Context, tx *gorm.DB, imageID, listingID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", imageID).
		UpdateColumn("listing_id", listingID).Error
}

// DeleteRow removes the image metadata row.
func (r *Repository) DeleteRow(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&models.Image{}).Error
}
