package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db"
	"github.com/swapmarket/backend/pkg/db/models"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
)

type imageStore interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Image, error)
	DeleteRow(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type blobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

type listingReader interface {
	FindVisible(ctx context.Context, id, callerID uuid.UUID) (*models.Listing, error)
}

// Service exposes image upload/list/delete semantics.
type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*UploadOutput, error)
	ListForListing(ctx context.Context, callerID, listingID uuid.UUID) ([]ImageDTO, error)
	Delete(ctx context.Context, callerID, imageID uuid.UUID) error
}

type service struct {
	repo           imageStore
	listings       listingReader
	blobs          blobStore
	logg           *logger.Logger
	maxUploadBytes int64
}

// NewService constructs a media service backed by the image repository and
// the object store.
func NewService(repo imageStore, listings listingReader, blobs blobStore, logg *logger.Logger, maxUploadBytes int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("image repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing reader required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload bytes must be positive")
	}
	return &service{
		repo:           repo,
		listings:       listings,
		blobs:          blobs,
		logg:           logg,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

// UploadInput models one multipart image upload. The content type is sniffed
// from the payload itself, never taken from the request.
type UploadInput struct {
	FileName  string
	SizeBytes int64
	Body      io.Reader
}

// UploadOutput is returned to the client after a successful upload.
type UploadOutput struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

// ImageDTO is the public reference for an attached image.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	FileName string    `json:"file_name"`
	MimeType string    `json:"mime_type"`
}

func (s *service) Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*UploadOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file payload required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file size must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds the %d byte limit", s.maxUploadBytes))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upload payload")
	}
	head = head[:n]

	mimeType := sniffMimeType(head)
	if !isAllowedMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]string{"file": "allowed types: " + allowedMimeDescription()})
	}
	body := io.MultiReader(bytes.NewReader(head), input.Body)

	fileName := sanitizeFileName(input.FileName)
	imageID := uuid.New()
	key := buildStorageKey(imageID, fileName)

	if err := s.blobs.Put(ctx, key, body, input.SizeBytes, mimeType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image blob")
	}

	row := &models.Image{
		ID:         imageID,
		UserID:     userID,
		StorageKey: key,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  input.SizeBytes,
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		// on a storage key collision the blob belongs to the existing row,
		// so it must not be cleaned up here
		if db.IsUniqueViolation(err, "images_storage_key_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "storage key already in use")
		}
		if removeErr := s.blobs.Remove(ctx, key); removeErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", key), "orphan blob cleanup failed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist image row")
	}

	return &UploadOutput{ID: imageID, URL: s.blobs.PublicURL(key)}, nil
}

func (s *service) ListForListing(ctx context.Context, callerID, listingID uuid.UUID) ([]ImageDTO, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	listing, err := s.listings.FindVisible(ctx, listingID, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	out := make([]ImageDTO, 0, len(listing.Images))
	for _, img := range listing.Images {
		out = append(out, ImageDTO{
			ID:       img.ID,
			URL:      s.blobs.PublicURL(img.StorageKey),
			FileName: img.FileName,
			MimeType: img.MimeType,
		})
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, callerID, imageID uuid.UUID) error {
	if imageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "image id required")
	}

	img, err := s.repo.FindByID(ctx, nil, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image")
	}
	if img.UserID != callerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "image belongs to another user")
	}
	// attached images are removed through the listing update workflow so the
	// re-moderation rules apply; direct deletion covers pre-upload leftovers
	if img.ListingID != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "image is attached to a listing, detach it via listing update")
	}

	if err := s.repo.DeleteRow(ctx, nil, imageID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image row")
	}

	if err := s.blobs.Remove(ctx, img.StorageKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "storage_key", img.StorageKey), "blob removal failed")
	}
	return nil
}

func buildStorageKey(id uuid.UUID, fileName string) string {
	if fileName == "" {
		fileName = id.String()
	}
	return fmt.Sprintf("images/%s/%s", id.String(), fileName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
