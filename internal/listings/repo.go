package listings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
	"github.com/swapmarket/backend/pkg/pagination"
)

// Repository exposes listing persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	Save(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindVisible(ctx context.Context, id, callerID uuid.UUID) (*models.Listing, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Listing, *pagination.Cursor, error)
	ListByState(ctx context.Context, state enums.PublishState, limit int, cursor *pagination.Cursor) ([]models.Listing, *pagination.Cursor, error)
	UpdateStateFrom(ctx context.Context, id uuid.UUID, from, to enums.PublishState, disallowReason string) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a listing repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) preloadImages(query *gorm.DB) *gorm.DB {
	return query.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

func (r *repositoryImpl) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// Save writes the full listing row back. Associations are never touched here;
// image attachment is the reconciler's job.
func (r *repositoryImpl) Save(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).
		Omit("Images").
		Save(listing).Error
}

// FindByID loads a listing with its images regardless of state or owner.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := r.preloadImages(r.db.WithContext(ctx))
	if err := query.First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindVisible loads the listing as seen by the caller: the owner sees every
// state, everyone else only published rows. Anything else reads as absent.
func (r *repositoryImpl) FindVisible(ctx context.Context, id, callerID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := r.preloadImages(r.db.WithContext(ctx))
	err := query.First(&listing, "id = ? AND user_id = ?", id, callerID).Error
	if err == nil {
		return &listing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	query = r.preloadImages(r.db.WithContext(ctx))
	if err := query.First(&listing, "id = ? AND state = ?", id, enums.PublishStatePublished).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

type listQuery struct {
	OwnerID uuid.UUID
	State   enums.PublishState
	Limit   int
	Cursor  *pagination.Cursor
}

func (r *repositoryImpl) list(ctx context.Context, params listQuery) ([]models.Listing, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Listing{})
	if params.OwnerID != uuid.Nil {
		query = query.Where("user_id = ?", params.OwnerID)
	}
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Listing
	query = r.preloadImages(query)
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// ListOwned returns the owner's listings newest first, cursor paginated.
func (r *repositoryImpl) ListOwned(ctx context.Context, ownerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Listing, *pagination.Cursor, error) {
	return r.list(ctx, listQuery{OwnerID: ownerID, Limit: limit, Cursor: cursor})
}

// ListByState returns listings in the given state, cursor paginated.
func (r *repositoryImpl) ListByState(ctx context.Context, state enums.PublishState, limit int, cursor *pagination.Cursor) ([]models.Listing, *pagination.Cursor, error) {
	return r.list(ctx, listQuery{State: state, Limit: limit, Cursor: cursor})
}

// UpdateStateFrom transitions the listing between states with an optimistic
// guard on the previously read state. Returns false when the row moved on
// concurrently.
func (r *repositoryImpl) UpdateStateFrom(ctx context.Context, id uuid.UUID, from, to enums.PublishState, disallowReason string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]any{
			"state":                      to,
			"moderation_disallow_reason": disallowReason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
