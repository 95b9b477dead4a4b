package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
)

// Reconciler syncs a listing's attached images with the requested id set
// inside the caller's transaction. Removed blobs are deleted from the object
// store by the caller after commit.
type Reconciler interface {
	Reconcile(ctx context.Context, tx *gorm.DB, listing *models.Listing, ownerID uuid.UUID, requestedIDs []uuid.UUID) (changed bool, removedKeys []string, err error)
}

type imageRepository interface {
	ListByListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Image, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Image, error)
	Attach(ctx context.Context, tx *gorm.DB, imageID, listingID uuid.UUID) error
	DeleteRow(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type reconciler struct {
	repo imageRepository
}

// NewReconciler constructs the shared helper used by the listing service.
func NewReconciler(repo imageRepository) (Reconciler, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image repository required")
	}
	return &reconciler{repo: repo}, nil
}

func (r *reconciler) Reconcile(ctx context.Context, tx *gorm.DB, listing *models.Listing, ownerID uuid.UUID, requestedIDs []uuid.UUID) (bool, []string, error) {
	if listing == nil || listing.ID == uuid.Nil {
		return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "listing required")
	}
	if ownerID == uuid.Nil {
		return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "owner required")
	}
	if tx == nil {
		return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}

	current, err := r.repo.ListByListing(ctx, tx, listing.ID)
	if err != nil {
		return false, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attached images")
	}

	currentSet := make(map[uuid.UUID]struct{}, len(current))
	for _, img := range current {
		currentSet[img.ID] = struct{}{}
	}
	requestedSet := make(map[uuid.UUID]struct{}, len(requestedIDs))
	for _, id := range requestedIDs {
		if id == uuid.Nil {
			continue
		}
		requestedSet[id] = struct{}{}
	}

	var toAttach []uuid.UUID
	for _, id := range requestedIDs {
		if id == uuid.Nil {
			continue
		}
		if _, ok := currentSet[id]; !ok {
			if contains(toAttach, id) {
				continue
			}
			toAttach = append(toAttach, id)
		}
	}

	var removedKeys []string
	detached := false
	for _, img := range current {
		if _, ok := requestedSet[img.ID]; ok {
			continue
		}
		if err := r.repo.DeleteRow(ctx, tx, img.ID); err != nil {
			return false, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach image")
		}
		removedKeys = append(removedKeys, img.StorageKey)
		detached = true
	}

	for _, id := range toAttach {
		img, err := r.repo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "image not found").
					WithDetails(map[string]string{"image_ids": "unknown image id " + id.String()})
			}
			return false, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image")
		}
		if img.UserID != ownerID {
			return false, nil, pkgerrors.New(pkgerrors.CodeValidation, "image belongs to another user").
				WithDetails(map[string]string{"image_ids": "image " + id.String() + " is not yours"})
		}
		if err := r.repo.Attach(ctx, tx, id, listing.ID); err != nil {
			return false, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach image")
		}
	}

	return detached || len(toAttach) > 0, removedKeys, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
