package audits

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/internal/app/storage/memory"
)

type fixture struct {
	store   *memory.Store
	svc     *Service
	auditor user.User
	bodega  location.Location
	oficina location.Location
	inPlace asset.Asset
	moved   asset.Asset
	missing asset.Asset
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	auditor, err := store.CreateUser(ctx, user.User{FullName: "Luis", Email: "luis@example.com", Role: user.RoleAuditor})
	if err != nil {
		t.Fatalf("create auditor: %v", err)
	}
	bodega, err := store.CreateLocation(ctx, location.Location{Name: "Bodega Central"})
	if err != nil {
		t.Fatalf("create bodega: %v", err)
	}
	oficina, err := store.CreateLocation(ctx, location.Location{Name: "Oficina 2"})
	if err != nil {
		t.Fatalf("create oficina: %v", err)
	}

	mk := func(code, locID string) asset.Asset {
		a, err := store.CreateAsset(ctx, asset.Asset{
			Code: code, Name: "Equipo " + code, Status: asset.StatusActive,
			AcquiredAt: dates.New(time.Now()), LocationID: locID,
		})
		if err != nil {
			t.Fatalf("create asset %s: %v", code, err)
		}
		return a
	}

	return fixture{
		store:   store,
		svc:     New(store, store, store, store, nil),
		auditor: auditor,
		bodega:  bodega,
		oficina: oficina,
		inPlace: mk("EQ-1", bodega.ID),
		moved:   mk("EQ-2", oficina.ID),
		missing: mk("EQ-3", bodega.ID),
	}
}

func TestService_AuditLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	started, err := f.svc.Start(ctx, f.bodega.ID, f.auditor.ID)
	if err != nil {
		t.Fatalf("start audit: %v", err)
	}
	if started.Status != audit.StatusInProgress {
		t.Fatalf("status = %s, want in progress", started.Status)
	}

	// second audit on the same location is rejected
	if _, err := f.svc.Start(ctx, f.bodega.ID, f.auditor.ID); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second start err = %v, want ErrConflict", err)
	}

	okScan, err := f.svc.RecordScan(ctx, started.ID, "eq-1", "")
	if err != nil {
		t.Fatalf("scan eq-1: %v", err)
	}
	if okScan.Result != audit.ScanOK {
		t.Fatalf("eq-1 result = %s, want OK", okScan.Result)
	}

	wrongScan, err := f.svc.RecordScan(ctx, started.ID, "EQ-2", "")
	if err != nil {
		t.Fatalf("scan eq-2: %v", err)
	}
	if wrongScan.Result != audit.ScanWrongLocation {
		t.Fatalf("eq-2 result = %s, want wrong location", wrongScan.Result)
	}

	unknownScan, err := f.svc.RecordScan(ctx, started.ID, "ZZ-99", "etiqueta suelta")
	if err != nil {
		t.Fatalf("scan zz-99: %v", err)
	}
	if unknownScan.Result != audit.ScanUnknownAsset || unknownScan.AssetID != "" {
		t.Fatalf("zz-99 scan = %#v", unknownScan)
	}

	// scanning the same asset twice is rejected
	if _, err := f.svc.RecordScan(ctx, started.ID, "EQ-1", ""); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate scan err = %v, want ErrConflict", err)
	}

	// scans stamp the asset's last-audit fields
	stamped, err := f.store.GetAsset(ctx, f.inPlace.ID)
	if err != nil {
		t.Fatalf("get stamped asset: %v", err)
	}
	if stamped.LastAuditAt == nil || stamped.LastAuditByID != f.auditor.ID {
		t.Fatalf("last audit not stamped: %#v", stamped)
	}

	completed, err := f.svc.Complete(ctx, started.ID)
	if err != nil {
		t.Fatalf("complete audit: %v", err)
	}
	if completed.Status != audit.StatusCompleted || completed.FinishedAt == nil {
		t.Fatalf("completed audit = %#v", completed)
	}
	if !strings.Contains(completed.Summary, "1 OK") || !strings.Contains(completed.Summary, "1 no encontrados") {
		t.Fatalf("summary = %q", completed.Summary)
	}

	scans, err := f.svc.Scans(ctx, started.ID)
	if err != nil {
		t.Fatalf("list scans: %v", err)
	}
	// EQ-1 ok, EQ-2 wrong location, ZZ-99 unknown, EQ-3 synthesized missing
	if len(scans) != 4 {
		t.Fatalf("expected 4 scans, got %d", len(scans))
	}
	var sawMissing bool
	for _, sc := range scans {
		if sc.AssetID == f.missing.ID && sc.Result == audit.ScanNotFound {
			sawMissing = true
		}
	}
	if !sawMissing {
		t.Fatalf("missing asset row not synthesized: %#v", scans)
	}

	// completed audits accept no further work
	if _, err := f.svc.RecordScan(ctx, started.ID, "EQ-3", ""); err == nil {
		t.Fatal("scan on completed audit succeeded")
	}
	if _, err := f.svc.Complete(ctx, started.ID); err == nil {
		t.Fatal("double complete succeeded")
	}
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	started, err := f.svc.Start(ctx, f.bodega.ID, f.auditor.ID)
	if err != nil {
		t.Fatalf("start audit: %v", err)
	}
	cancelled, err := f.svc.Cancel(ctx, started.ID)
	if err != nil {
		t.Fatalf("cancel audit: %v", err)
	}
	if cancelled.Status != audit.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// cancellation writes no missing-asset rows
	scans, err := f.svc.Scans(ctx, started.ID)
	if err != nil {
		t.Fatalf("list scans: %v", err)
	}
	if len(scans) != 0 {
		t.Fatalf("expected 0 scans, got %d", len(scans))
	}

	// the location is free for a new audit
	if _, err := f.svc.Start(ctx, f.bodega.ID, f.auditor.ID); err != nil {
		t.Fatalf("restart after cancel: %v", err)
	}
}

func TestService_StartValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Start(ctx, "", f.auditor.ID); err == nil {
		t.Fatal("empty location accepted")
	}
	if _, err := f.svc.Start(ctx, f.bodega.ID, ""); err == nil {
		t.Fatal("empty auditor accepted")
	}
	if _, err := f.svc.Start(ctx, "missing", f.auditor.ID); err == nil {
		t.Fatal("unknown location accepted")
	}

	emp, err := f.store.CreateUser(ctx, user.User{FullName: "Eva", Email: "eva@example.com", Role: user.RoleEmployee})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.bodega.ID, emp.ID); err == nil {
		t.Fatal("employee allowed to run audit")
	}
}

func TestService_SweepStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stale, err := f.store.CreateAudit(ctx, audit.Audit{
		LocationID: f.bodega.ID,
		AuditorID:  f.auditor.ID,
		StartedAt:  time.Now().Add(-48 * time.Hour),
		Status:     audit.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("create stale audit: %v", err)
	}
	fresh, err := f.store.CreateAudit(ctx, audit.Audit{
		LocationID: f.oficina.ID,
		AuditorID:  f.auditor.ID,
		StartedAt:  time.Now(),
		Status:     audit.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("create fresh audit: %v", err)
	}

	n, err := f.svc.SweepStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d audits, want 1", n)
	}

	got, _ := f.store.GetAudit(ctx, stale.ID)
	if got.Status != audit.StatusCancelled {
		t.Fatalf("stale audit status = %s, want cancelled", got.Status)
	}
	got, _ = f.store.GetAudit(ctx, fresh.ID)
	if got.Status != audit.StatusInProgress {
		t.Fatalf("fresh audit status = %s, want in progress", got.Status)
	}
}
