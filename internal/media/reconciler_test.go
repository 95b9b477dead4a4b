package media

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
)

type stubImageRepo struct {
	images map[uuid.UUID]*models.Image

	attached []uuid.UUID
	deleted  []uuid.UUID
}

func newStubImageRepo() *stubImageRepo {
	return &stubImageRepo{images: make(map[uuid.UUID]*models.Image)}
}

func (r *stubImageRepo) add(img models.Image) {
	stored := img
	r.images[img.ID] = &stored
}

func (r *stubImageRepo) ListByListing(ctx context.Context, tx *gorm.DB, listingID uuid.UUID) ([]models.Image, error) {
	var out []models.Image
	for _, img := range r.images {
		if img.ListingID != nil && *img.ListingID == listingID {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (r *stubImageRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Image, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *img
	return &copied, nil
}

func (r *stubImageRepo) Attach(ctx context.Context, tx *gorm.DB, imageID, listingID uuid.UUID) error {
	img, ok := r.images[imageID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	target := listingID
	img.ListingID = &target
	r.attached = append(r.attached, imageID)
	return nil
}

func (r *stubImageRepo) DeleteRow(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(r.images, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func reconcilerFixture(t *testing.T) (*stubImageRepo, Reconciler, *models.Listing, uuid.UUID) {
	t.Helper()
	repo := newStubImageRepo()
	rec, err := NewReconciler(repo)
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	owner := uuid.New()
	listing := &models.Listing{ID: uuid.New(), UserID: owner}
	return repo, rec, listing, owner
}

func attachedImage(owner, listingID uuid.UUID, key string) models.Image {
	target := listingID
	return models.Image{ID: uuid.New(), UserID: owner, ListingID: &target, StorageKey: key}
}

func TestReconcileSameSetIsNoop(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	img := attachedImage(owner, listing.ID, "images/a/a.png")
	repo.add(img)

	tx := &gorm.DB{}
	changed, removed, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{img.ID})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if changed {
		t.Fatal("expected no change for identical set")
	}
	if len(removed) != 0 {
		t.Fatalf("expected no removals, got %v", removed)
	}
}

func TestReconcileDuplicatesCollapse(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	img := models.Image{ID: uuid.New(), UserID: owner, StorageKey: "images/b/b.png"}
	repo.add(img)

	tx := &gorm.DB{}
	changed, _, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{img.ID, img.ID})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !changed {
		t.Fatal("expected attach to report change")
	}
	if len(repo.attached) != 1 {
		t.Fatalf("expected a single attach, got %d", len(repo.attached))
	}
}

func TestReconcileReplacesDisjointSet(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	old := attachedImage(owner, listing.ID, "images/old/old.png")
	repo.add(old)
	fresh := models.Image{ID: uuid.New(), UserID: owner, StorageKey: "images/new/new.png"}
	repo.add(fresh)

	tx := &gorm.DB{}
	changed, removed, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{fresh.ID})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	if len(removed) != 1 || removed[0] != "images/old/old.png" {
		t.Fatalf("expected old storage key collected, got %v", removed)
	}
	if _, ok := repo.images[old.ID]; ok {
		t.Fatal("expected detached row deleted")
	}
}

func TestReconcileEmptySetDetachesAll(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	a := attachedImage(owner, listing.ID, "images/1/1.png")
	b := attachedImage(owner, listing.ID, "images/2/2.png")
	repo.add(a)
	repo.add(b)

	tx := &gorm.DB{}
	changed, removed, err := rec.Reconcile(context.Background(), tx, listing, owner, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !changed || len(removed) != 2 {
		t.Fatalf("expected both keys removed, got changed=%v removed=%v", changed, removed)
	}
}

func TestReconcileDanglingIDAborts(t *testing.T) {
	_, rec, listing, owner := reconcilerFixture(t)

	tx := &gorm.DB{}
	_, _, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for dangling id, got %v", err)
	}
}

func TestReconcileForeignImageRejected(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	foreign := models.Image{ID: uuid.New(), UserID: uuid.New(), StorageKey: "images/f/f.png"}
	repo.add(foreign)

	tx := &gorm.DB{}
	_, _, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{foreign.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for foreign image, got %v", err)
	}
}

func TestReconcileMoveBetweenListings(t *testing.T) {
	repo, rec, listing, owner := reconcilerFixture(t)
	otherListing := uuid.New()
	img := attachedImage(owner, otherListing, "images/m/m.png")
	repo.add(img)

	tx := &gorm.DB{}
	changed, removed, err := rec.Reconcile(context.Background(), tx, listing, owner, []uuid.UUID{img.ID})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	if len(removed) != 0 {
		t.Fatalf("expected a move, not a removal, got %v", removed)
	}
	stored := repo.images[img.ID]
	if stored.ListingID == nil || *stored.ListingID != listing.ID {
		t.Fatalf("expected image moved to %s, got %v", listing.ID, stored.ListingID)
	}
}
