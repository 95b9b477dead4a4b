package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapmarket/backend/api/controllers"
	"github.com/swapmarket/backend/api/middleware"
	"github.com/swapmarket/backend/internal/categories"
	"github.com/swapmarket/backend/internal/listings"
	"github.com/swapmarket/backend/internal/media"
	"github.com/swapmarket/backend/internal/notifications"
	"github.com/swapmarket/backend/pkg/auth/session"
	"github.com/swapmarket/backend/pkg/config"
	"github.com/swapmarket/backend/pkg/db"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/metrics"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	DB      db.Pinger
	Redis   db.Pinger
	Storage db.Pinger

	Sessions session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics

	Listings      listings.Service
	Media         media.Service
	Notifications notifications.Service
	Categories    categories.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
			"storage":  deps.Storage,
		}))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/categories", controllers.CategoryTree(deps.Categories, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.CreateListing(deps.Listings, logg))
			r.Get("/my", controllers.ListMyListings(deps.Listings, logg))
			r.Get("/{listingId}", controllers.GetListing(deps.Listings, logg))
			r.Put("/{listingId}", controllers.UpdateListing(deps.Listings, logg))
			r.Get("/{listingId}/images", controllers.ListListingImages(deps.Media, logg))
		})

		r.Route("/images", func(r chi.Router) {
			r.Post("/", controllers.UploadImage(deps.Media, cfg.Media.MaxUploadBytes(), logg))
			r.Delete("/{imageId}", controllers.DeleteImage(deps.Media, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireModerator(logg))
			r.Get("/queue", controllers.ModerationQueue(deps.Listings, logg))
			r.Post("/listings/{listingId}/decision", controllers.ModerationDecide(deps.Listings, logg))
		})
	})

	return r
}
