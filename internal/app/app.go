// Package app wires configuration, storage, domain services, and the HTTP
// server into a running API process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/sellora/storefront/internal/auth"
	"github.com/sellora/storefront/internal/domain/cart"
	"github.com/sellora/storefront/internal/domain/catalog"
	"github.com/sellora/storefront/internal/domain/coupon"
	"github.com/sellora/storefront/internal/domain/order"
	"github.com/sellora/storefront/internal/domain/review"
	"github.com/sellora/storefront/internal/handler"
	"github.com/sellora/storefront/internal/mail"
	"github.com/sellora/storefront/internal/payment"
	"github.com/sellora/storefront/internal/storage/postgres"
	"github.com/sellora/storefront/pkg/health"
	"github.com/sellora/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Stores.
	documents := postgres.NewDocumentStore(pool)
	products := postgres.NewProductStore(pool)
	carts := postgres.NewCartStore(pool)
	users := postgres.NewUserStore(pool)
	sessions := postgres.NewSessionStore(pool)
	coupons := postgres.NewCouponStore(pool)
	orders := postgres.NewOrderStore(pool)
	reviews := postgres.NewReviewStore(pool)

	// Fees are validated by LoadConfig.
	tax, _ := cfg.Fees.TaxAmount()
	shipping, _ := cfg.Fees.ShippingAmount()

	// Domain services.
	couponValidator := coupon.NewRepoValidator(coupons)
	cartService := cart.NewService(carts, catalog.PriceSource{Products: products}, couponValidator)
	orderService := order.NewService(carts, orders, payment.NewStubGateway(lg), order.Fees{Tax: tax, Shipping: shipping})
	reviewService := review.NewService(reviews, products)
	authService := auth.NewService(users, sessions, mail.NewLogMailer(lg), cfg.PasswordPepper, cfg.Token.TTL)

	// HTTP surface.
	verbose := cfg.Verbose()
	api := handler.NewRouter(handler.Deps{
		Store:      documents,
		Auth:       handler.NewAuthHandlers(authService, verbose),
		AuthMW:     auth.NewMiddleware(authService, verbose),
		Cart:       handler.NewCartHandlers(cartService, verbose),
		Orders:     handler.NewOrderHandlers(orderService, users, verbose),
		Users:      handler.NewUserHandlers(users, verbose),
		AdminUsers: handler.NewAdminUserHandlers(authService, users, verbose),
		Reviews:    handler.NewReviewHandlers(reviewService, reviews, verbose),
		Verbose:    verbose,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "storefront-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
