package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
)

type stubBlobStore struct {
	put    []string
	remove []string
	putErr error
}

func (s *stubBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.put = append(s.put, key)
	return nil
}

func (s *stubBlobStore) Remove(ctx context.Context, key string) error {
	s.remove = append(s.remove, key)
	return nil
}

func (s *stubBlobStore) PublicURL(key string) string { return "https://cdn.test/" + key }

type stubImageStore struct {
	rows      map[uuid.UUID]*models.Image
	createErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{rows: make(map[uuid.UUID]*models.Image)}
}

func (s *stubImageStore) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	stored := *image
	s.rows[image.ID] = &stored
	return image, nil
}

func (s *stubImageStore) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Image, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubImageStore) DeleteRow(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	delete(s.rows, id)
	return nil
}

type stubListingReader struct {
	listing *models.Listing
	err     error
}

func (s *stubListingReader) FindVisible(ctx context.Context, id, callerID uuid.UUID) (*models.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listing, nil
}

func mediaFixture(t *testing.T) (Service, *stubImageStore, *stubBlobStore, *stubListingReader) {
	t.Helper()
	repo := newStubImageStore()
	blobs := &stubBlobStore{}
	listings := &stubListingReader{err: gorm.ErrRecordNotFound}
	logg := logger.New(logger.Options{ServiceName: "test"})

	svc, err := NewService(repo, listings, blobs, logg, 1<<20)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, blobs, listings
}

// pngPayload is a minimal PNG signature padded out to the requested size.
func pngPayload(size int) []byte {
	payload := make([]byte, size)
	copy(payload, "\x89PNG\r\n\x1a\n")
	return payload
}

func TestUploadStoresBlobAndRow(t *testing.T) {
	svc, repo, blobs, _ := mediaFixture(t)
	userID := uuid.New()

	out, err := svc.Upload(context.Background(), userID, UploadInput{
		FileName:  "bike photo.png",
		SizeBytes: 512,
		Body:      bytes.NewReader(pngPayload(512)),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if out.ID == uuid.Nil || out.URL == "" {
		t.Fatalf("expected id and url, got %+v", out)
	}
	if len(blobs.put) != 1 {
		t.Fatalf("expected one blob write, got %v", blobs.put)
	}

	row, ok := repo.rows[out.ID]
	if !ok {
		t.Fatal("expected image row persisted")
	}
	if row.ListingID != nil {
		t.Fatal("expected uploaded image to start unattached")
	}
	if row.FileName != "bike-photo.png" {
		t.Fatalf("expected sanitized file name, got %q", row.FileName)
	}
	if row.MimeType != "image/png" {
		t.Fatalf("expected sniffed png type, got %q", row.MimeType)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, _, _ := mediaFixture(t)
	userID := uuid.New()

	t.Run("pdfPayloadRejected", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), userID, UploadInput{
			FileName:  "doc.pdf",
			SizeBytes: 100,
			Body:      bytes.NewReader([]byte("%PDF-1.7 not an image")),
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("renamedTextPayloadRejected", func(t *testing.T) {
		// a .png extension must not get plain text past the byte sniffing
		_, err := svc.Upload(context.Background(), userID, UploadInput{
			FileName:  "totally-a-photo.png",
			SizeBytes: 24,
			Body:      bytes.NewReader([]byte("hello, definitely a png")),
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("tooLarge", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), userID, UploadInput{
			FileName:  "big.png",
			SizeBytes: 2 << 20,
			Body:      bytes.NewReader(nil),
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestUploadStorageKeyCollisionReadsConflict(t *testing.T) {
	svc, repo, blobs, _ := mediaFixture(t)
	repo.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "images_storage_key_key" (SQLSTATE 23505)`)

	_, err := svc.Upload(context.Background(), uuid.New(), UploadInput{
		FileName:  "photo.png",
		SizeBytes: 512,
		Body:      bytes.NewReader(pngPayload(512)),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	// the colliding key belongs to the existing row, the blob must survive
	if len(blobs.remove) != 0 {
		t.Fatalf("expected no blob cleanup on collision, got %v", blobs.remove)
	}
}

func TestListForListingFollowsVisibility(t *testing.T) {
	svc, _, _, listings := mediaFixture(t)

	t.Run("hiddenListingReads404", func(t *testing.T) {
		listings.err = gorm.ErrRecordNotFound
		_, err := svc.ListForListing(context.Background(), uuid.New(), uuid.New())
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("visibleListingReturnsRefs", func(t *testing.T) {
		listings.err = nil
		listings.listing = &models.Listing{
			ID: uuid.New(),
			Images: []models.Image{
				{ID: uuid.New(), StorageKey: "images/x/x.png", FileName: "x.png", MimeType: "image/png"},
			},
		}
		refs, err := svc.ListForListing(context.Background(), uuid.New(), listings.listing.ID)
		if err != nil {
			t.Fatalf("ListForListing: %v", err)
		}
		if len(refs) != 1 || refs[0].URL != "https://cdn.test/images/x/x.png" {
			t.Fatalf("unexpected refs %v", refs)
		}
	})
}

func TestDeleteOwnership(t *testing.T) {
	svc, repo, blobs, _ := mediaFixture(t)
	owner := uuid.New()

	img := models.Image{ID: uuid.New(), UserID: owner, StorageKey: "images/d/d.png"}
	repo.rows[img.ID] = &img

	t.Run("strangerForbidden", func(t *testing.T) {
		err := svc.Delete(context.Background(), uuid.New(), img.ID)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("attachedImageRefused", func(t *testing.T) {
		listingID := uuid.New()
		attached := models.Image{ID: uuid.New(), UserID: owner, ListingID: &listingID, StorageKey: "images/a/a.png"}
		repo.rows[attached.ID] = &attached

		err := svc.Delete(context.Background(), owner, attached.ID)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected state conflict, got %v", err)
		}
		if _, ok := repo.rows[attached.ID]; !ok {
			t.Fatal("expected attached row to survive")
		}
		if len(blobs.remove) != 0 {
			t.Fatalf("expected blob untouched, got %v", blobs.remove)
		}
	})

	t.Run("ownerDeletesRowAndBlob", func(t *testing.T) {
		if err := svc.Delete(context.Background(), owner, img.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, ok := repo.rows[img.ID]; ok {
			t.Fatal("expected row deleted")
		}
		if len(blobs.remove) != 1 || blobs.remove[0] != "images/d/d.png" {
			t.Fatalf("expected blob removed, got %v", blobs.remove)
		}
	})

	t.Run("missingImage404", func(t *testing.T) {
		err := svc.Delete(context.Background(), owner, uuid.New())
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
