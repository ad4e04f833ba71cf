package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/assetops/sga/internal/app"
	"github.com/assetops/sga/internal/app/domain/dates"
	assetssvc "github.com/assetops/sga/internal/app/services/assets"
	locationsvc "github.com/assetops/sga/internal/app/services/locations"
)

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	application, err := app.New(app.Stores{}, app.Options{LabelBaseURL: "https://activos.example.com"}, nil, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	t.Cleanup(func() { _ = application.Stop(context.Background()) })
	return application
}

func TestPagesRender(t *testing.T) {
	application := newTestApp(t)
	ctx := context.Background()

	loc, err := application.Locations.Create(ctx, locationsvc.Input{Name: "Bodega Central"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	a, err := application.Assets.Create(ctx, assetssvc.Input{
		Code:       "LAP-1",
		Name:       "Laptop Dell",
		AcquiredAt: dates.New(time.Now().AddDate(-1, 0, 0)),
		Cost:       900,
		LocationID: loc.ID,
	}, "")
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	handler, err := New(application, "", nil)
	if err != nil {
		t.Fatalf("new web handler: %v", err)
	}
	router := handler.Router()

	cases := []struct {
		path string
		want string
	}{
		{"/", "Panel de activos"},
		{"/admin", "Bodega Central"},
		{"/admin/activos", "LAP-1"},
		{"/admin/activos?q=dell", "Laptop Dell"},
		{"/mobile", "Abrir escáner"},
		{"/mobile/scan", "scan-form"},
		{"/print-labels", "Imprimir etiquetas"},
		{"/print-labels?ids=" + a.ID, "data:image/png;base64,"},
		{"/activo/LAP-1", "Laptop Dell"},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tc.path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), tc.want) {
			t.Fatalf("%s: body missing %q", tc.path, tc.want)
		}
	}
}

func TestAssetDetailNotFound(t *testing.T) {
	application := newTestApp(t)
	handler, err := New(application, "", nil)
	if err != nil {
		t.Fatalf("new web handler: %v", err)
	}

	resp := httptest.NewRecorder()
	handler.Router().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/activo/NO-EXISTE", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.Code)
	}
}
