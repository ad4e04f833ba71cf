//go:build integration && postgres

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/internal/platform/migrations"
)

// Integration test against Postgres to ensure migrations + core store flows
// work with real persistence.
func TestIntegrationPostgresStore(t *testing.T) {
	_ = godotenv.Load() // allow .env for local runs
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)

	u, err := store.CreateUser(ctx, user.User{
		FullName: "Integración Prueba",
		Email:    "integ" + time.Now().Format("150405.000") + "@example.com",
		Role:     user.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	loc, err := store.CreateLocation(ctx, location.Location{
		Name:        "Bodega Integración " + time.Now().Format(time.RFC3339Nano),
		Description: "creada por test",
	})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	code := "IT-" + time.Now().Format("20060102150405.000")
	a, err := store.CreateAsset(ctx, asset.Asset{
		Code:             code,
		Name:             "Laptop de integración",
		Status:           asset.StatusInStorage,
		AcquiredAt:       dates.New(time.Now().AddDate(-1, 0, 0)),
		Cost:             1200,
		UsefulLifeMonths: 36,
		ResidualValue:    120,
		LocationID:       loc.ID,
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	got, err := store.GetAssetByCode(ctx, code)
	if err != nil {
		t.Fatalf("get asset by code: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("get by code returned %s, want %s", got.ID, a.ID)
	}

	if _, err := store.CreateAsset(ctx, asset.Asset{Code: code, Name: "dup", Status: asset.StatusInStorage, AcquiredAt: dates.New(time.Now())}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate code err = %v, want ErrConflict", err)
	}

	a.Status = asset.StatusActive
	a.AssigneeID = u.ID
	if _, err := store.UpdateAsset(ctx, a); err != nil {
		t.Fatalf("update asset: %v", err)
	}

	if _, err := store.CreateMovement(ctx, asset.Movement{
		AssetID: a.ID, UserID: u.ID, Field: "status",
		OldValue: string(asset.StatusInStorage), NewValue: string(asset.StatusActive),
	}); err != nil {
		t.Fatalf("create movement: %v", err)
	}
	moves, err := store.ListMovements(ctx, a.ID)
	if err != nil || len(moves) == 0 {
		t.Fatalf("list movements: %v (%d rows)", err, len(moves))
	}

	items, total, err := store.ListAssets(ctx, asset.Filter{Search: code, Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list assets: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("list assets returned %d/%d, want 1/1", len(items), total)
	}

	aud, err := store.CreateAudit(ctx, audit.Audit{
		LocationID: loc.ID,
		AuditorID:  u.ID,
		Status:     audit.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("create audit: %v", err)
	}
	if _, err := store.CreateScan(ctx, audit.Scan{
		AuditID: aud.ID, AssetID: a.ID, AssetCode: a.Code, Result: audit.ScanOK,
	}); err != nil {
		t.Fatalf("create scan: %v", err)
	}
	scans, err := store.ListScans(ctx, aud.ID)
	if err != nil || len(scans) != 1 {
		t.Fatalf("list scans: %v (%d rows)", err, len(scans))
	}

	now := time.Now().UTC()
	aud.Status = audit.StatusCompleted
	aud.FinishedAt = &now
	aud.Summary = "1 OK"
	if _, err := store.UpdateAudit(ctx, aud); err != nil {
		t.Fatalf("complete audit: %v", err)
	}

	if err := store.DeleteAsset(ctx, a.ID); err != nil {
		t.Fatalf("delete asset: %v", err)
	}
	if _, err := store.GetAsset(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted asset err = %v, want ErrNotFound", err)
	}
}
