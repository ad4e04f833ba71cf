package assets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/internal/app/storage/memory"
)

func testService(store *memory.Store) *Service {
	return New(store, store, store, store, Options{LabelBaseURL: "https://activos.example.com"}, nil)
}

func TestService_AssetLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := testService(store)

	tech, err := store.CreateUser(ctx, user.User{FullName: "Ana", Email: "ana@example.com", Role: user.RoleTechnician})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	created, err := svc.Create(ctx, Input{
		Code:             "lap-001",
		Name:             "Laptop Dell",
		AcquiredAt:       dates.New(time.Now().AddDate(-1, 0, 0)),
		Cost:             1000,
		UsefulLifeMonths: 36,
		ResidualValue:    100,
	}, tech.ID)
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if created.Code != "LAP-001" {
		t.Fatalf("code not normalized: %q", created.Code)
	}
	if created.Status != asset.StatusInStorage {
		t.Fatalf("default status = %s, want %s", created.Status, asset.StatusInStorage)
	}
	if created.QRURL != "https://activos.example.com/activo/LAP-001" {
		t.Fatalf("unexpected qr url: %q", created.QRURL)
	}

	if _, err := svc.Create(ctx, Input{
		Code:       "LAP-001",
		Name:       "Duplicado",
		AcquiredAt: dates.New(time.Now()),
	}, tech.ID); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate code err = %v, want ErrConflict", err)
	}

	byCode, err := svc.GetByCode(ctx, "lap-001")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode.ID != created.ID {
		t.Fatalf("get by code returned %s, want %s", byCode.ID, created.ID)
	}

	updated, err := svc.Update(ctx, created.ID, Input{
		Code:             "LAP-001",
		Name:             "Laptop Dell",
		Status:           string(asset.StatusActive),
		AcquiredAt:       created.AcquiredAt,
		Cost:             1000,
		UsefulLifeMonths: 36,
		ResidualValue:    100,
		AssigneeID:       tech.ID,
	}, tech.ID)
	if err != nil {
		t.Fatalf("update asset: %v", err)
	}
	if updated.Status != asset.StatusActive || updated.AssigneeID != tech.ID {
		t.Fatalf("update not applied: %#v", updated)
	}

	history, err := svc.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// alta + status change + assignee change
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	fields := map[string]bool{}
	for _, m := range history {
		fields[m.Field] = true
	}
	if !fields["status"] || !fields["usuario_asignado_id"] || !fields["alta"] {
		t.Fatalf("unexpected history fields: %v", fields)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete asset: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want ErrNotFound", err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := testService(memory.New())

	cases := []struct {
		name string
		in   Input
	}{
		{"missing code", Input{Name: "x", AcquiredAt: dates.New(time.Now())}},
		{"missing name", Input{Code: "A-1", AcquiredAt: dates.New(time.Now())}},
		{"missing acquisition date", Input{Code: "A-1", Name: "x"}},
		{"negative cost", Input{Code: "A-1", Name: "x", AcquiredAt: dates.New(time.Now()), Cost: -5}},
		{"residual above cost", Input{Code: "A-1", Name: "x", AcquiredAt: dates.New(time.Now()), Cost: 10, ResidualValue: 20}},
		{"bad status", Input{Code: "A-1", Name: "x", AcquiredAt: dates.New(time.Now()), Status: "Perdido"}},
		{"unknown location", Input{Code: "A-1", Name: "x", AcquiredAt: dates.New(time.Now()), LocationID: "missing"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.in, ""); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestService_ListPagination(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, store, store, store, Options{PerPage: 2, MaxPerPage: 3}, nil)

	for _, code := range []string{"A-1", "A-2", "A-3", "A-4", "A-5"} {
		if _, err := svc.Create(ctx, Input{Code: code, Name: "Equipo " + code, AcquiredAt: dates.New(time.Now())}, ""); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}

	page, err := svc.List(ctx, asset.Filter{Page: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || page.Pages != 3 || len(page.Items) != 2 {
		t.Fatalf("page envelope = %+v", page)
	}
	if page.HasPrev || !page.HasNext {
		t.Fatalf("page 1 flags wrong: %+v", page)
	}

	last, err := svc.List(ctx, asset.Filter{Page: 3})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last.Items) != 1 || !last.HasPrev || last.HasNext {
		t.Fatalf("last page = %+v", last)
	}

	// per_page above the max gets clamped
	clamped, err := svc.List(ctx, asset.Filter{Page: 1, PerPage: 50})
	if err != nil {
		t.Fatalf("list clamped: %v", err)
	}
	if clamped.PerPage != 3 {
		t.Fatalf("per_page = %d, want 3", clamped.PerPage)
	}

	filtered, err := svc.List(ctx, asset.Filter{Search: "A-3"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if filtered.Total != 1 {
		t.Fatalf("filtered total = %d, want 1", filtered.Total)
	}
}

func TestAssetBookValue(t *testing.T) {
	acquired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := asset.Asset{
		AcquiredAt:       dates.New(acquired),
		Cost:             1200,
		UsefulLifeMonths: 12,
		ResidualValue:    0,
	}

	if v := a.BookValue(acquired); v != 1200 {
		t.Fatalf("value at acquisition = %v, want 1200", v)
	}
	halfway := acquired.Add(6 * 30 * 24 * time.Hour)
	if v := a.BookValue(halfway); v != 600 {
		t.Fatalf("value at halfway = %v, want 600", v)
	}
	after := acquired.AddDate(3, 0, 0)
	if v := a.BookValue(after); v != 0 {
		t.Fatalf("value after life = %v, want 0", v)
	}

	a.ResidualValue = 200
	if v := a.BookValue(after); v != 200 {
		t.Fatalf("residual floor = %v, want 200", v)
	}

	a.UsefulLifeMonths = 0
	if v := a.BookValue(after); v != 1200 {
		t.Fatalf("no-life value = %v, want full cost", v)
	}
}
