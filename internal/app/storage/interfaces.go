package storage

import (
	"context"
	"errors"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/maintenance"
	"github.com/assetops/sga/internal/app/domain/purchase"
	"github.com/assetops/sga/internal/app/domain/user"
)

// ErrNotFound is returned by every store when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint is violated.
var ErrConflict = errors.New("record already exists")

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// LocationStore persists locations.
type LocationStore interface {
	CreateLocation(ctx context.Context, loc location.Location) (location.Location, error)
	UpdateLocation(ctx context.Context, loc location.Location) (location.Location, error)
	GetLocation(ctx context.Context, id string) (location.Location, error)
	GetLocationByName(ctx context.Context, name string) (location.Location, error)
	ListLocations(ctx context.Context) ([]location.Location, error)
}

// PurchaseStore persists purchases.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, p purchase.Purchase) (purchase.Purchase, error)
	GetPurchase(ctx context.Context, id string) (purchase.Purchase, error)
	ListPurchases(ctx context.Context) ([]purchase.Purchase, error)
}

// AssetStore persists assets and their movement history.
type AssetStore interface {
	CreateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error)
	UpdateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error)
	GetAsset(ctx context.Context, id string) (asset.Asset, error)
	GetAssetByCode(ctx context.Context, code string) (asset.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
	// ListAssets pages assets ordered by code, returning the total match
	// count alongside the requested page.
	ListAssets(ctx context.Context, f asset.Filter) ([]asset.Asset, int, error)
	ListAssetsByLocation(ctx context.Context, locationID string) ([]asset.Asset, error)
	SearchAssets(ctx context.Context, query string, limit int) ([]asset.Asset, error)
	AssetStats(ctx context.Context) (asset.Stats, error)

	CreateMovement(ctx context.Context, m asset.Movement) (asset.Movement, error)
	ListMovements(ctx context.Context, assetID string) ([]asset.Movement, error)
}

// MaintenanceStore persists maintenance records.
type MaintenanceStore interface {
	CreateMaintenance(ctx context.Context, rec maintenance.Record) (maintenance.Record, error)
	ListMaintenance(ctx context.Context, assetID string) ([]maintenance.Record, error)
}

// AuditStore persists audits and their scans.
type AuditStore interface {
	CreateAudit(ctx context.Context, a audit.Audit) (audit.Audit, error)
	UpdateAudit(ctx context.Context, a audit.Audit) (audit.Audit, error)
	GetAudit(ctx context.Context, id string) (audit.Audit, error)
	ListAudits(ctx context.Context, f audit.Filter) ([]audit.Audit, error)

	CreateScan(ctx context.Context, s audit.Scan) (audit.Scan, error)
	ListScans(ctx context.Context, auditID string) ([]audit.Scan, error)
}
