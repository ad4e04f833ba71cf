package reports

import (
	"context"
	"testing"
	"time"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage/memory"
)

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	loc, err := store.CreateLocation(ctx, location.Location{Name: "Bodega"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	u, err := store.CreateUser(ctx, user.User{FullName: "Carla Mota", Email: "carla@example.com", Role: user.RoleAccountant})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	acquired := dates.New(time.Now().AddDate(-10, 0, 0))
	mk := func(code string, status asset.Status, cost, residual float64) {
		_, err := store.CreateAsset(ctx, asset.Asset{
			Code: code, Name: "Equipo " + code, Status: status,
			AcquiredAt: acquired, Cost: cost,
			UsefulLifeMonths: 12, ResidualValue: residual,
			LocationID: loc.ID,
		})
		if err != nil {
			t.Fatalf("create asset %s: %v", code, err)
		}
	}
	// fully depreciated, so book value equals the residual
	mk("EQ-1", asset.StatusActive, 1000, 100)
	mk("EQ-2", asset.StatusInStorage, 500, 50)
	mk("EQ-3", asset.StatusRetired, 900, 0)

	if _, err := store.CreateAudit(ctx, audit.Audit{
		LocationID: loc.ID, AuditorID: u.ID,
		StartedAt: time.Now(), Status: audit.StatusInProgress,
	}); err != nil {
		t.Fatalf("create audit: %v", err)
	}
}

func TestService_Dashboard(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := New(store, store, store, store, nil)

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Total != 3 {
		t.Fatalf("total = %d, want 3", dash.Total)
	}
	if dash.ByStatus[asset.StatusRetired] != 1 {
		t.Fatalf("retired count = %d, want 1", dash.ByStatus[asset.StatusRetired])
	}
	if dash.AuditsInProgress != 1 {
		t.Fatalf("audits in progress = %d, want 1", dash.AuditsInProgress)
	}
	// retired assets are excluded from the valuation
	if dash.TotalBookValue != 150 {
		t.Fatalf("total book value = %v, want 150", dash.TotalBookValue)
	}
}

func TestService_BookValue(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := New(store, store, store, store, nil)

	report, err := svc.BookValue(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("book value: %v", err)
	}
	if len(report.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(report.Lines))
	}
	if report.Total != 150 {
		t.Fatalf("total = %v, want 150", report.Total)
	}
	for _, line := range report.Lines {
		if line.Code == "EQ-3" {
			t.Fatal("retired asset included in report")
		}
	}
}

func TestService_Search(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := New(store, store, store, store, nil)
	ctx := context.Background()

	results, err := svc.Search(ctx, "eq-1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results.Assets) != 1 || results.Assets[0].Code != "EQ-1" {
		t.Fatalf("asset results: %#v", results.Assets)
	}

	results, err = svc.Search(ctx, "bodega")
	if err != nil {
		t.Fatalf("search location: %v", err)
	}
	if len(results.Locations) != 1 {
		t.Fatalf("location results: %#v", results.Locations)
	}

	results, err = svc.Search(ctx, "carla")
	if err != nil {
		t.Fatalf("search user: %v", err)
	}
	if len(results.Users) != 1 {
		t.Fatalf("user results: %#v", results.Users)
	}

	if _, err := svc.Search(ctx, "   "); err == nil {
		t.Fatal("blank query accepted")
	}
}
