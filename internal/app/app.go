package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/sale"
	"github.com/xenking/workshop-pos/internal/domain/settings"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
	"github.com/xenking/workshop-pos/internal/handler"
	"github.com/xenking/workshop-pos/internal/receipt"
	"github.com/xenking/workshop-pos/internal/repository"
	"github.com/xenking/workshop-pos/pkg/health"
	"github.com/xenking/workshop-pos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the background
// loops, and handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	rates := settings.NewTaxRateSource(settingsRepo, cfg.TaxRate)

	guard := catalog.NewGuard(catalogRepo)
	if n, err := guard.Refresh(ctx); err != nil {
		lg.Warn("Initial catalog filter refresh failed", zap.Error(err))
	} else {
		lg.Info("Catalog filter loaded", zap.Int("items", n))
	}

	// Domain services.
	finalizer, err := transaction.NewFinalizer(transactionRepo,
		transaction.WithSink(&receipt.Sink{Header: cfg.Receipt.Header, Dir: cfg.Receipt.Dir}),
		transaction.WithTracerProvider(m.TracerProvider()),
		transaction.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create finalizer")
	}
	sales := sale.NewRegistry(sale.Deps{
		Catalog:   guard,
		Rates:     rates,
		Finalizer: finalizer,
	}, cfg.SessionTTL)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddReadinessCheck("catalog", time.Second,
		health.FreshnessCheck(guard.RefreshedAt, 3*cfg.CatalogRefresh, time.Now),
		health.WithThresholds(1, 1),
	)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Router: health endpoints + API routes on one server.
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		chimw.RealIP,
		httpmiddleware.LogRequests(),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Group(func(r chi.Router) {
		r.Use(chimw.Throttle(cfg.Throttle))
		handler.NewHandler(guard, sales, transactionRepo, settingsRepo, rates).RegisterRoutes(r)
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(r, "workshop-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return guard.Run(gctx, cfg.CatalogRefresh)
	})
	g.Go(func() error {
		return sales.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
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
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
