// Package app assembles the services over a storage backend and manages
// their lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/assetops/sga/internal/app/scheduler"
	"github.com/assetops/sga/internal/app/services/assets"
	"github.com/assetops/sga/internal/app/services/audits"
	"github.com/assetops/sga/internal/app/services/labels"
	"github.com/assetops/sga/internal/app/services/locations"
	maintenancesvc "github.com/assetops/sga/internal/app/services/maintenance"
	"github.com/assetops/sga/internal/app/services/purchases"
	"github.com/assetops/sga/internal/app/services/reports"
	"github.com/assetops/sga/internal/app/services/users"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/internal/app/storage/memory"
	"github.com/assetops/sga/internal/app/system"
	"github.com/assetops/sga/pkg/logger"
)

// Stores lists the storage interfaces the application depends on. Any nil
// field falls back to a shared in-memory store, which keeps local development
// and tests database-free.
type Stores struct {
	Users       storage.UserStore
	Locations   storage.LocationStore
	Purchases   storage.PurchaseStore
	Assets      storage.AssetStore
	Maintenance storage.MaintenanceStore
	Audits      storage.AuditStore
}

// Options carries application-level tunables.
type Options struct {
	LabelBaseURL string
	QRSize       int
	QRBorder     bool
	PerPage      int
	MaxPerPage   int
	// StaleAuditAge is how long an audit may stay in progress before the
	// sweeper cancels it. Zero disables the sweep job.
	StaleAuditAge time.Duration
	// FleetMetricsSpec is the cron descriptor for the valuation refresh.
	FleetMetricsSpec string
	// FleetCounts, when non-nil, receives per-status asset counts on every
	// valuation refresh tick.
	FleetCounts func(status string, count int)
}

// Application bundles every domain service behind one lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Users       *users.Service
	Locations   *locations.Service
	Purchases   *purchases.Service
	Assets      *assets.Service
	Maintenance *maintenancesvc.Service
	Audits      *audits.Service
	Reports     *reports.Service
	Labels      *labels.Service
	Scheduler   *scheduler.Scheduler
}

// New wires the services together. fleetGauge, when non-nil, receives the
// recomputed fleet book value on every scheduler tick.
func New(stores Stores, opts Options, fleetGauge func(total float64), log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Locations == nil {
		stores.Locations = mem
	}
	if stores.Purchases == nil {
		stores.Purchases = mem
	}
	if stores.Assets == nil {
		stores.Assets = mem
	}
	if stores.Maintenance == nil {
		stores.Maintenance = mem
	}
	if stores.Audits == nil {
		stores.Audits = mem
	}

	manager := system.NewManager()

	userSvc := users.New(stores.Users, log)
	locationSvc := locations.New(stores.Locations, log)
	purchaseSvc := purchases.New(stores.Purchases, stores.Users, log)
	assetSvc := assets.New(stores.Assets, stores.Locations, stores.Users, stores.Purchases, assets.Options{
		LabelBaseURL: opts.LabelBaseURL,
		PerPage:      opts.PerPage,
		MaxPerPage:   opts.MaxPerPage,
	}, log)
	maintenanceSvc := maintenancesvc.New(stores.Maintenance, stores.Assets, stores.Users, log)
	auditSvc := audits.New(stores.Audits, stores.Assets, stores.Locations, stores.Users, log)
	reportSvc := reports.New(stores.Assets, stores.Locations, stores.Users, stores.Audits, log)
	labelSvc := labels.New(assetSvc, labels.Options{Size: opts.QRSize, Border: opts.QRBorder}, log)

	sched := scheduler.New(log)
	if fleetGauge != nil || opts.FleetCounts != nil {
		spec := opts.FleetMetricsSpec
		if spec == "" {
			spec = "@every 15m"
		}
		err := sched.Add(scheduler.Job{
			Name: "fleet-valuation",
			Spec: spec,
			Run: func(ctx context.Context) error {
				if fleetGauge != nil {
					total, _, err := reportSvc.TotalBookValue(ctx)
					if err != nil {
						return err
					}
					fleetGauge(total)
				}
				if opts.FleetCounts != nil {
					stats, err := assetSvc.Stats(ctx)
					if err != nil {
						return err
					}
					for status, count := range stats.ByStatus {
						opts.FleetCounts(string(status), count)
					}
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}
	if opts.StaleAuditAge > 0 {
		maxAge := opts.StaleAuditAge
		err := sched.Add(scheduler.Job{
			Name: "stale-audit-sweep",
			Spec: "@every 1h",
			Run: func(ctx context.Context) error {
				_, err := auditSvc.SweepStale(ctx, maxAge)
				return err
			},
		})
		if err != nil {
			return nil, err
		}
	}
	if err := manager.Register(sched); err != nil {
		return nil, fmt.Errorf("register scheduler: %w", err)
	}

	return &Application{
		manager:     manager,
		log:         log,
		Users:       userSvc,
		Locations:   locationSvc,
		Purchases:   purchaseSvc,
		Assets:      assetSvc,
		Maintenance: maintenanceSvc,
		Audits:      auditSvc,
		Reports:     reportSvc,
		Labels:      labelSvc,
		Scheduler:   sched,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
