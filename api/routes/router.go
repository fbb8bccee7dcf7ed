package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/nutritrack-backend/api/controllers"
	"github.com/angelmondragon/nutritrack-backend/api/middleware"
	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
)

// Dependencies are the collaborators the router hands to controllers.
type Dependencies struct {
	Hub      controllers.NotificationHub
	Pingers  map[string]controllers.Pinger
	Registry *prometheus.Registry
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/session", func(r chi.Router) {
			r.Post("/", controllers.SessionSignIn(deps.Hub, logg))
			r.Delete("/", controllers.SessionSignOut(deps.Hub, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Hub, logg))
			r.Post("/", controllers.AddNotification(deps.Hub, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Hub, logg))
			r.Post("/refresh", controllers.RefreshNotifications(deps.Hub, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Hub, logg))
		})
	})

	return r
}
