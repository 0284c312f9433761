package app

import (
	"fmt"
	"time"

	"github.com/noah-isme/omnipay-inventory/internal/auth"
	"github.com/noah-isme/omnipay-inventory/internal/catalog"
	"github.com/noah-isme/omnipay-inventory/internal/checkout"
	"github.com/noah-isme/omnipay-inventory/internal/config"
	"github.com/noah-isme/omnipay-inventory/internal/health"
	"github.com/noah-isme/omnipay-inventory/internal/invoice"
	"github.com/noah-isme/omnipay-inventory/internal/lock"
	"github.com/noah-isme/omnipay-inventory/internal/loyalty"
	"github.com/noah-isme/omnipay-inventory/internal/reports"
	"github.com/noah-isme/omnipay-inventory/internal/tasks"
)

// Modules holds the domain services built on top of Dependencies.
type Modules struct {
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Loyalty  *loyalty.Service
	Invoices *invoice.Service
	Reports  *reports.Service
	Auth     *auth.Service
}

// NewModules wires every domain service.
func NewModules(cfg *config.Config, deps *Dependencies) (*Modules, error) {
	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Queries: deps.Store,
		Cache:   catalog.NewCache(deps.Redis, cfg.CatalogCache),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	loyaltySvc := loyalty.NewService(deps.Store)

	authSvc, err := auth.NewService(auth.Config{
		Queries:        deps.Store,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		ClockSkew:      30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &Modules{
		Catalog: catalogSvc,
		Checkout: &checkout.Service{
			Items:          catalogSvc,
			Tiers:          catalogSvc,
			Taxes:          catalogSvc,
			Loyalty:        loyaltySvc,
			DefaultTaxRate: cfg.DefaultTaxRate,
		},
		Loyalty: loyaltySvc,
		Invoices: &invoice.Service{
			Store:  invoice.PGStore{DB: deps.Store},
			Locker: lock.Locker{R: deps.Redis, Prefix: "lock:"},
			TTL:    cfg.InvoiceLockTTL,
		},
		Reports: &reports.Service{
			Q:        deps.Store,
			R:        deps.Redis,
			TTL:      cfg.ReportCacheTTL,
			Location: cfg.ReportTimezone,
		},
		Auth: authSvc,
	}, nil
}

// Handlers returns the HTTP handlers for the modules. queue may be nil when
// no task queue is available.
func (m *Modules) Handlers(deps *Dependencies, queue tasks.Enqueuer) Handlers {
	return Handlers{
		Catalog:  catalog.NewHandler(catalog.HandlerConfig{Service: m.Catalog, Validator: deps.Validator}),
		Checkout: &checkout.Handler{Svc: m.Checkout, Validate: deps.Validator},
		Reports:  &reports.Handler{Svc: m.Reports, Validate: deps.Validator},
		Loyalty:  &loyalty.Handler{Service: m.Loyalty, Validate: deps.Validator},
		Invoices: &invoice.Handler{Service: m.Invoices, Validate: deps.Validator},
		Auth:     &auth.Handler{Service: m.Auth, Validate: deps.Validator},
		Tasks:    &tasks.Handler{Queue: queue, Validate: deps.Validator, Location: m.Reports.Location},
		AuthMW:   auth.Middleware{Service: m.Auth},
		Health: health.Handler{
			Checker: health.Probes{DB: deps.Store, Redis: deps.Redis},
		},
	}
}
