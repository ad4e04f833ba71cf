package labels

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/services/assets"
	"github.com/assetops/sga/internal/app/storage/memory"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestService_AssetPNG(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	assetSvc := assets.New(store, store, store, store, assets.Options{LabelBaseURL: "https://activos.example.com"}, nil)
	svc := New(assetSvc, Options{Size: 128, Border: true}, nil)

	a, err := assetSvc.Create(ctx, assets.Input{Code: "EQ-1", Name: "Equipo", AcquiredAt: dates.New(time.Now())}, "")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	png, got, err := svc.AssetPNG(ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("render label: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("output is not a png: % x", png[:8])
	}
	if got.Code != "EQ-1" {
		t.Fatalf("asset code = %q", got.Code)
	}

	if _, _, err := svc.AssetPNG(ctx, "missing", 0); err == nil {
		t.Fatal("missing asset rendered")
	}
}

func TestService_Sheet(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	assetSvc := assets.New(store, store, store, store, assets.Options{LabelBaseURL: "https://activos.example.com"}, nil)
	svc := New(assetSvc, Options{}, nil)

	a, err := assetSvc.Create(ctx, assets.Input{Code: "EQ-1", Name: "Equipo 1", AcquiredAt: dates.New(time.Now())}, "")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	b, err := assetSvc.Create(ctx, assets.Input{Code: "EQ-2", Name: "Equipo 2", AcquiredAt: dates.New(time.Now())}, "")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	// stale ids are skipped, not fatal
	sheet, err := svc.Sheet(ctx, []string{a.ID, "missing", b.ID}, 64)
	if err != nil {
		t.Fatalf("render sheet: %v", err)
	}
	if len(sheet) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(sheet))
	}
	for _, label := range sheet {
		if label.PNG == "" || label.QRURL == "" {
			t.Fatalf("incomplete label: %#v", label)
		}
	}

	if _, err := svc.Sheet(ctx, nil, 0); err == nil {
		t.Fatal("empty sheet accepted")
	}
	if _, err := svc.Sheet(ctx, []string{"missing"}, 0); err == nil {
		t.Fatal("all-missing sheet accepted")
	}
}

func TestService_LocationSheet(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	assetSvc := assets.New(store, store, store, store, assets.Options{LabelBaseURL: "https://activos.example.com"}, nil)
	svc := New(assetSvc, Options{}, nil)

	loc, err := store.CreateLocation(ctx, location.Location{Name: "Bodega"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if _, err := assetSvc.Create(ctx, assets.Input{Code: "EQ-1", Name: "Equipo 1", AcquiredAt: dates.New(time.Now()), LocationID: loc.ID}, ""); err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if _, err := assetSvc.Create(ctx, assets.Input{Code: "EQ-2", Name: "Equipo 2", AcquiredAt: dates.New(time.Now())}, ""); err != nil {
		t.Fatalf("create asset: %v", err)
	}

	sheet, err := svc.LocationSheet(ctx, loc.ID, 64)
	if err != nil {
		t.Fatalf("render location sheet: %v", err)
	}
	if len(sheet) != 1 {
		t.Fatalf("expected 1 label, got %d", len(sheet))
	}
	if sheet[0].LocationID != loc.ID {
		t.Fatalf("label location = %q", sheet[0].LocationID)
	}

	empty, err := store.CreateLocation(ctx, location.Location{Name: "Vacía"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	if _, err := svc.LocationSheet(ctx, empty.ID, 0); err == nil {
		t.Fatal("empty location rendered a sheet")
	}
}
