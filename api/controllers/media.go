package controllers

import (
	"errors"
	"net/http"

	"github.com/swapmarket/backend/api/responses"
	"github.com/swapmarket/backend/internal/media"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
)

const uploadFieldName = "file"

// UploadImage accepts one multipart image and stores it unattached. The
// returned id is what a later listing save references in image_ids.
func UploadImage(svc media.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Leave headroom for the multipart framing around the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(64<<10))
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required").
				WithDetails(map[string]string{"file": "multipart field \"file\" is required"}))
			return
		}
		defer file.Close()

		out, err := svc.Upload(r.Context(), callerID, media.UploadInput{
			FileName:  header.Filename,
			SizeBytes: header.Size,
			Body:      file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// ListListingImages returns the image references attached to a listing the
// caller is allowed to see.
func ListListingImages(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := routeUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refs, err := svc.ListForListing(r.Context(), callerID, listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"images": refs})
	}
}

// DeleteImage removes an unattached uploaded image the caller owns. Attached
// images go through the listing update workflow instead.
func DeleteImage(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imageID, err := routeUUID(r, "imageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), callerID, imageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
