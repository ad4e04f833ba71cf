// Package web serves the server-rendered pages: the dashboard, the admin
// panel, the mobile scanner and the label print sheet. Pages call straight
// into the application services; only the scanner's live actions go through
// the JSON API from the browser.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/assetops/sga/internal/app"
	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler renders the HTML pages.
type Handler struct {
	app       *app.Application
	staticDir string
	log       *logger.Logger
	pages     map[string]*template.Template
}

// New builds the page handler. staticDir is served under /static/.
func New(application *app.Application, staticDir string, log *logger.Logger) (*Handler, error) {
	if log == nil {
		log = logger.NewDefault("web")
	}
	h := &Handler{app: application, staticDir: staticDir, log: log, pages: map[string]*template.Template{}}

	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"add":   func(a, b int) int { return a + b },
		"sub":   func(a, b int) int { return a - b },
		"date": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				if t.IsZero() {
					return "-"
				}
				return t.Format("2006-01-02")
			case dates.Date:
				if t.IsZero() {
					return "-"
				}
				return t.Format("2006-01-02")
			case *time.Time:
				if t == nil || t.IsZero() {
					return "-"
				}
				return t.Format("2006-01-02")
			default:
				return "-"
			}
		},
	}
	for _, page := range []string{
		"dashboard.html", "admin.html", "admin_activos.html",
		"mobile.html", "scan.html", "print_labels.html", "activo.html",
	} {
		tmpl, err := template.New("base.html").Funcs(funcs).
			ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		h.pages[page] = tmpl
	}
	return h, nil
}

// Router returns the page routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/admin", h.admin).Methods(http.MethodGet)
	r.HandleFunc("/admin/activos", h.adminAssets).Methods(http.MethodGet)
	r.HandleFunc("/mobile", h.mobile).Methods(http.MethodGet)
	r.HandleFunc("/mobile/scan", h.scan).Methods(http.MethodGet)
	r.HandleFunc("/print-labels", h.printLabels).Methods(http.MethodGet)
	r.HandleFunc("/activo/{codigo}", h.assetDetail).Methods(http.MethodGet)
	if h.staticDir != "" {
		r.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	}
	return r
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := h.pages[page]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		h.log.WithError(err).WithField("page", page).Error("render page")
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.app.Reports.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "dashboard.html", map[string]any{
		"Title":     "Panel",
		"Dashboard": dash,
		"Statuses":  asset.Statuses(),
	})
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tree, err := h.app.Locations.Tree(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	people, err := h.app.Users.List(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	open, err := h.app.Audits.List(ctx, audit.Filter{Status: audit.StatusInProgress})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "admin.html", map[string]any{
		"Title":      "Administración",
		"Tree":       tree,
		"Users":      people,
		"OpenAudits": open,
	})
}

func (h *Handler) adminAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := asset.Filter{Search: q.Get("q")}
	if raw := q.Get("status"); raw != "" {
		if status, err := asset.ParseStatus(raw); err == nil {
			filter.Status = status
		}
	}
	if raw := q.Get("page"); raw != "" {
		var page int
		if _, err := fmt.Sscanf(raw, "%d", &page); err == nil {
			filter.Page = page
		}
	}
	page, err := h.app.Assets.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "admin_activos.html", map[string]any{
		"Title":    "Activos",
		"Page":     page,
		"Query":    q.Get("q"),
		"Status":   q.Get("status"),
		"Statuses": asset.Statuses(),
	})
}

func (h *Handler) mobile(w http.ResponseWriter, r *http.Request) {
	tree, err := h.app.Locations.Tree(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, "mobile.html", map[string]any{
		"Title": "Móvil",
		"Tree":  tree,
	})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	h.render(w, "scan.html", map[string]any{
		"Title":   "Escáner",
		"AuditID": r.URL.Query().Get("auditoria"),
	})
}

func (h *Handler) printLabels(w http.ResponseWriter, r *http.Request) {
	ids := strings.FieldsFunc(r.URL.Query().Get("ids"), func(r rune) bool { return r == ',' })
	locationID := r.URL.Query().Get("ubicacion")
	var sheet any
	switch {
	case locationID != "":
		labels, err := h.app.Labels.LocationSheet(r.Context(), locationID, 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sheet = labels
	case len(ids) > 0:
		labels, err := h.app.Labels.Sheet(r.Context(), ids, 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sheet = labels
	}
	h.render(w, "print_labels.html", map[string]any{
		"Title": "Imprimir etiquetas",
		"Sheet": sheet,
	})
}

// assetDetail is the public page a phone camera lands on after scanning a
// printed label.
func (h *Handler) assetDetail(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["codigo"]
	a, err := h.app.Assets.GetByCode(r.Context(), code)
	if err != nil {
		http.Error(w, "activo no encontrado", http.StatusNotFound)
		return
	}

	var locationName string
	if a.LocationID != "" {
		if loc, err := h.app.Locations.Get(r.Context(), a.LocationID); err == nil {
			locationName = loc.Name
		}
	}
	records, err := h.app.Maintenance.List(r.Context(), a.ID)
	if err != nil {
		records = nil
	}
	h.render(w, "activo.html", map[string]any{
		"Title":        a.Code,
		"Asset":        a,
		"LocationName": locationName,
		"Maintenance":  records,
		"BookValue":    a.BookValue(time.Now()),
	})
}
