package controllers

import (
	"net/http"

	"github.com/swapmarket/backend/api/responses"
	"github.com/swapmarket/backend/internal/categories"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
)

// CategoryTree returns the full category taxonomy as nested nodes.
func CategoryTree(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "categories service unavailable"))
			return
		}

		tree, err := svc.Tree(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": tree})
	}
}
