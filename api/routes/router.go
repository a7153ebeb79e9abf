package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/visadesk-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/visadesk-backend/api/controllers/webhooks"
	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/internal/cart"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/visadesk-backend/internal/checkout"
	"github.com/angelmondragon/visadesk-backend/internal/notifications"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	"github.com/angelmondragon/visadesk-backend/internal/quotes"
	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	"github.com/angelmondragon/visadesk-backend/pkg/config"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs. Nil services answer
// with an internal error so partially wired environments still boot.
type Dependencies struct {
	Pingers map[string]controllers.Pinger

	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Gatherer    prometheus.Gatherer
	HTTPMetrics middleware.RequestObserver

	Catalog       catalog.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Quotes        quotes.Service
	Notifications notifications.Service
	Uploads       uploads.Service

	StripeClient  webhookcontrollers.StripeEventVerifier
	StripeWebhook webhookcontrollers.StripeWebhookService
	WebhookGuard  webhookcontrollers.StripeWebhookGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	maxUpload := cfg.Storage.MaxUploadBytes()
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit)
	quotePolicy := middleware.NewRateLimitPolicy("quotes", cfg.RateLimit.QuoteWindow, cfg.RateLimit.QuoteLimit)
	idempotent := middleware.Idempotency(deps.Idempotency, controllers.MaxFormBytes(maxUpload), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/services", func(r chi.Router) {
		r.Get("/", controllers.ListServices(deps.Catalog, logg))
		r.Get("/{serviceId}", controllers.GetService(deps.Catalog, logg))
		r.Get("/{serviceId}/questions", controllers.ServiceQuestions(deps.Catalog, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.With(idempotent).Post("/add", controllers.CartAdd(deps.Cart, deps.Uploads, maxUpload, logg))
			r.Put("/update/{itemId}", controllers.CartUpdate(deps.Cart, logg))
			r.Delete("/remove/{itemId}", controllers.CartRemove(deps.Cart, logg))
			r.Delete("/clear", controllers.CartClear(deps.Cart, logg))
			r.Get("/requirements", controllers.CartRequirements(deps.Cart, logg))
		})

		r.Post("/uploads", controllers.StageUpload(deps.Uploads, maxUpload, logg))

		r.Route("/checkout", func(r chi.Router) {
			limited := middleware.RateLimit(checkoutPolicy, deps.RateLimiter, logg)
			createIntent := controllers.CheckoutCreateIntent(deps.Checkout, logg)
			r.With(limited, idempotent).Post("/success", createIntent)
			r.With(limited, idempotent).Post("/intent", createIntent)
			r.With(limited, idempotent).Post("/initiate", createIntent)
			r.Post("/confirm", controllers.CheckoutConfirm(deps.Orders, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Use(middleware.RateLimit(quotePolicy, deps.RateLimiter, logg))
			r.With(idempotent).Post("/custom", controllers.CreateCustomQuote(deps.Quotes, logg))
			r.With(idempotent).Post("/service", controllers.CreateServiceQuote(deps.Quotes, deps.Uploads, maxUpload, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.With(idempotent).Post("/{orderId}/complete", controllers.AdminCompleteOrder(deps.Orders, logg))
		})
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/custom", controllers.AdminListCustomQuotes(deps.Quotes, logg))
			r.Get("/service", controllers.AdminListServiceQuotes(deps.Quotes, logg))
			r.Get("/{quoteId}", controllers.AdminGetQuote(deps.Quotes, logg))
			r.Delete("/{quoteId}", controllers.AdminDeleteQuote(deps.Quotes, logg))
		})
	})

	return r
}
