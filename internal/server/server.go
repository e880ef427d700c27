package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"oeo-pos/internal/cache"
	"oeo-pos/internal/config"
	"oeo-pos/internal/events"
	"oeo-pos/internal/metrics"
	custommiddleware "oeo-pos/internal/middleware"
	"oeo-pos/internal/render"
	"oeo-pos/internal/repository"
	"oeo-pos/internal/service"
	"oeo-pos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the connections owned by the server once constructed
type Deps struct {
	Store     *repository.Store
	Redis     *redis.Client // optional
	Publisher events.Publisher
	Metrics   *metrics.Metrics
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewDefault()
	}

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.TenantMiddleware(cfg.Tenant.Default, cfg.Tenant.JWTSecret, logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware(deps.Metrics))
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	s := &Server{
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	router.Get("/", s.banner)
	router.Get("/health", s.health)
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	var catalogCache cache.CatalogCache = cache.NoopCache{}
	if deps.Redis != nil {
		catalogCache = cache.NewRedisCache(deps.Redis, cfg.POS.CatalogCacheTTL)
	}

	store := deps.Store
	catalog := service.NewCatalogService(store.Products, store.Tx, catalogCache, deps.Metrics, logger)
	carts := service.NewCartService(store.Products, store.Carts, store.Tx, deps.Metrics, logger)
	checkout := service.NewCheckoutService(service.CheckoutDeps{
		Products:  store.Products,
		Carts:     store.Carts,
		Receipts:  store.Receipts,
		Tx:        store.Tx,
		Catalog:   catalog,
		Publisher: deps.Publisher,
		Metrics:   deps.Metrics,
		Logger:    logger,
		Cashier:   cfg.POS.Cashier,
	})
	receipts := service.NewReceiptService(store.Receipts, render.PDF{})

	posHandler := transport.NewPOSHandler(catalog, carts, checkout, receipts, logger)

	router.Group(func(r chi.Router) {
		if deps.Redis != nil {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "ratelimit",
			}, logger))
		}
		posHandler.RegisterRoutes(r)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(router, "oeo-pos"),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
	}

	return s
}

func (s *Server) banner(w http.ResponseWriter, r *http.Request) {
	tenant, ok := custommiddleware.GetTenant(r.Context())
	name := "unknown"
	if ok {
		name = tenant.String()
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"msg":    "OEO API LIVE",
		"port":   s.config.Server.Port,
		"tenant": name,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{"status": "ok", "store": "up"}

	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("Store health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		report["status"] = "degraded"
		report["store"] = "down"
	}

	if s.deps.Redis != nil {
		report["redis"] = "up"
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn("Redis health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			report["status"] = "degraded"
			report["redis"] = "down"
		}
	}

	custommiddleware.RespondWithJSON(w, status, report)
}

// Close releases the store, Redis and the event publisher
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Closing server resources")

	var errs []error
	if err := s.deps.Publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
		errs = append(errs, err)
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis client", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Close(ctx); err != nil {
			s.logger.Error("Failed to close store", zap.Error(err))
			errs = append(errs, err)
		}
	}

	s.logger.Sync()
	return errors.Join(errs...)
}
