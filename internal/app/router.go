package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/noah-isme/omnipay-inventory/internal/auth"
	"github.com/noah-isme/omnipay-inventory/internal/catalog"
	"github.com/noah-isme/omnipay-inventory/internal/checkout"
	"github.com/noah-isme/omnipay-inventory/internal/health"
	"github.com/noah-isme/omnipay-inventory/internal/invoice"
	"github.com/noah-isme/omnipay-inventory/internal/loyalty"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
	"github.com/noah-isme/omnipay-inventory/internal/reports"
	"github.com/noah-isme/omnipay-inventory/internal/security"
	"github.com/noah-isme/omnipay-inventory/internal/tasks"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Catalog  *catalog.Handler
	Checkout *checkout.Handler
	Reports  *reports.Handler
	Loyalty  *loyalty.Handler
	Invoices *invoice.Handler
	Auth     *auth.Handler
	Tasks    *tasks.Handler
	AuthMW   auth.Middleware
	Health   health.Handler
}

// RouterConfig carries the cross-cutting middleware. Nil middleware is skipped.
type RouterConfig struct {
	Logger         zerolog.Logger
	Metrics        *obs.HTTPMetrics
	MetricsHandler http.Handler
	Debug          http.Handler
	Tracing        bool
	CORSOrigins    []string
	BodyLimit      int64
	Headers        security.Headers
	IPLimit        func(http.Handler) http.Handler
	LoginLimit     func(http.Handler) http.Handler
	Idempotency    func(http.Handler) http.Handler
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// NewRouter assembles the API.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Tracing {
		r.Use(obs.Tracing("omnipay-api"))
	}
	r.Use(obs.HTTPObs{Metrics: cfg.Metrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))
	r.Use(cfg.Headers.Middleware)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Debug != nil {
		r.Mount("/debug/pprof", cfg.Debug)
	}
	r.Get("/health/live", h.Health.Live)
	r.Get("/health/ready", h.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(optional(cfg.IPLimit))
		v.Use(security.BodyLimit{Max: cfg.BodyLimit}.Middleware)

		h.Catalog.Routes(v)
		v.Post("/pricing/line", h.Checkout.Line)
		v.Post("/pricing/batch", h.Checkout.Batch)
		v.Post("/checkout/bill", h.Checkout.Bill)
		v.Post("/loyalty/coins", h.Loyalty.Coins)

		v.Route("/reports", func(rp chi.Router) {
			rp.Post("/hourly", h.Reports.Hourly)
			rp.Post("/flash", h.Reports.Flash)
			rp.Post("/sales-history", h.Reports.SalesHistory)
			rp.Post("/inventory-tracking", h.Reports.InventoryTracking)
			rp.With(h.AuthMW.RequireAuth).Post("/hourly/warm", h.Tasks.WarmHourly)
		})

		v.Route("/auth", func(a chi.Router) {
			a.With(optional(cfg.LoginLimit)).Post("/login", h.Auth.Login)
			a.With(h.AuthMW.RequireAuth).Get("/me", h.Auth.Me)
		})

		v.Group(func(staff chi.Router) {
			staff.Use(h.AuthMW.RequireAuth)
			staff.Post("/products", h.Catalog.CreateProduct)
			staff.Put("/bulk-pricing/{itemId}", h.Catalog.ReplaceBulkTiers)
			staff.With(optional(cfg.Idempotency)).Post("/invoices/next-code", h.Invoices.NextCode)
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
