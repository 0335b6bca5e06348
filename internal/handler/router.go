package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/walletshop/walletshop/internal/middleware"
)

// RouterConfig carries the handlers and middleware settings for NewRouter.
type RouterConfig struct {
	Logger *slog.Logger

	Health        *HealthHandler
	Notifications *NotificationHandler
	Email         *EmailHandler
	Discounts     *DiscountHandler
	Users         *UserHandler
	Admin         *AdminHandler

	// Metrics serves the Prometheus exposition. Nil leaves /metrics unrouted.
	Metrics http.Handler

	AdminAuth     middleware.AdminAuthConfig
	RateLimit     middleware.RateLimitConfig
	CORS          middleware.CORSConfig
	Security      middleware.SecurityConfig
	MaxBodyBytes  int64
	TrustForwards bool
}

// NewRouter wires every route and middleware of the API.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if cfg.TrustForwards {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health", cfg.Health.Health)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
		r.Use(middleware.RequireJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(cfg.RateLimit))

			r.Post("/notifications/send", cfg.Notifications.Send)
			r.Post("/notifications/send-to-admins", cfg.Notifications.SendToAdmins)
			r.Post("/send-email", cfg.Email.Send)
		})

		r.Post("/notifications/identity", cfg.Notifications.BindIdentity)

		r.Get("/products/{productId}/price", cfg.Discounts.Price)
		r.Get("/products/{productId}/discount", cfg.Discounts.Active)
		r.Get("/discounts", cfg.Discounts.List)

		r.Post("/users/sync", cfg.Users.Sync)
		r.Get("/users/{firebaseUid}", cfg.Users.Get)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.AdminAuth))
			r.Use(middleware.RateLimitAdmin(cfg.RateLimit))

			r.Post("/discounts", cfg.Admin.CreateDiscount)
			r.Get("/users", cfg.Admin.ListUsers)
			r.Patch("/users/{id}/role", cfg.Admin.SetUserRole)
			r.Get("/stats", cfg.Admin.Stats)
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
