package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/visadesk-backend/api"
	"github.com/angelmondragon/visadesk-backend/api/controllers"
	"github.com/angelmondragon/visadesk-backend/api/routes"
	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/cart"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/internal/checkout"
	"github.com/angelmondragon/visadesk-backend/internal/notifications"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	"github.com/angelmondragon/visadesk-backend/internal/quotes"
	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	stripewebhook "github.com/angelmondragon/visadesk-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/visadesk-backend/pkg/config"
	"github.com/angelmondragon/visadesk-backend/pkg/db"
	"github.com/angelmondragon/visadesk-backend/pkg/idempotency"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/metrics"
	"github.com/angelmondragon/visadesk-backend/pkg/migrate"
	"github.com/angelmondragon/visadesk-backend/pkg/outbox"
	"github.com/angelmondragon/visadesk-backend/pkg/redis"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
	"github.com/angelmondragon/visadesk-backend/pkg/storage/gcs"
	"github.com/angelmondragon/visadesk-backend/pkg/storage/local"
	"github.com/angelmondragon/visadesk-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pingers := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	store, err := buildStore(ctx, cfg, logg, pingers)
	if err != nil {
		return err
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	gateway, err := stripe.NewGateway(stripeClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, store, stripeClient, gateway, checkoutMetrics)
	if err != nil {
		return err
	}
	deps.Pingers = pingers
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)

	addr := api.Addr(cfg, os.Getenv("PORT"))
	server := api.NewServer(addr, routes.NewRouter(cfg, logg, deps))

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
		"storage":    cfg.Storage.Driver,
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, pingers map[string]controllers.Pinger) (storage.Store, error) {
	if cfg.Storage.IsGCS() {
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, err
		}
		pingers["gcs"] = client
		return client, nil
	}
	return local.New(cfg.Storage.LocalRoot, cfg.Storage.PublicBaseURL)
}

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	store storage.Store,
	stripeClient *stripe.Client,
	gateway *stripe.Gateway,
	checkoutMetrics *metrics.CheckoutMetrics,
) (routes.Dependencies, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	answerSvc, err := answers.NewService(answers.NewRepository(conn), catalogRepo, store, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn), outboxSvc)
	if err != nil {
		return routes.Dependencies{}, err
	}
	uploadSvc, err := uploads.NewService(store, cfg.Storage.MaxUploadBytes(), logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartSvc, err := cart.NewService(cart.NewRepository(conn), dbClient, catalogSvc, catalogRepo, answerSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	ordersRepo := orders.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(
		dbClient,
		ordersRepo,
		catalogSvc,
		catalogRepo,
		answerSvc,
		gateway,
		outboxSvc,
		notificationSvc,
		checkoutMetrics,
		logg,
		checkout.Options{
			Currency:          stripeClient.Currency(),
			ReferenceAttempts: cfg.Checkout.ReferenceAttempts,
		},
	)
	if err != nil {
		return routes.Dependencies{}, err
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, gateway, outboxSvc, notificationSvc, answerSvc, checkoutMetrics, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	quotesSvc, err := quotes.NewService(quotes.NewRepository(conn), dbClient, catalogSvc, catalogRepo, answerSvc, outboxSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	webhookSvc, err := stripewebhook.NewService(ordersSvc, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	guard, err := idempotency.NewClaims(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Idempotency:   redisClient,
		RateLimiter:   redisClient,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Checkout:      checkoutSvc,
		Orders:        ordersSvc,
		Quotes:        quotesSvc,
		Notifications: notificationSvc,
		Uploads:       uploadSvc,
		StripeClient:  stripeClient,
		StripeWebhook: webhookSvc,
		WebhookGuard:  guard,
	}, nil
}
