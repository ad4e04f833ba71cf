// Package httpapi exposes the REST API consumed by the admin panel, the
// mobile scanner pages and external integrations.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	app "github.com/assetops/sga/internal/app"
	"github.com/assetops/sga/internal/app/auth"
	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/metrics"
	assetssvc "github.com/assetops/sga/internal/app/services/assets"
	"github.com/assetops/sga/internal/app/services/labels"
	locationsvc "github.com/assetops/sga/internal/app/services/locations"
	maintenancesvc "github.com/assetops/sga/internal/app/services/maintenance"
	purchasesvc "github.com/assetops/sga/internal/app/services/purchases"
	userssvc "github.com/assetops/sga/internal/app/services/users"
	"github.com/assetops/sga/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app      *app.Application
	authMgr  *auth.Manager
	auditBuf *auditLog
}

// NewHandler returns the API handler with auth and audit middleware applied.
// Extra sinks beyond the in-memory buffer are wired by the caller through
// newAuditLog's sink; use NewHandlerWithSink for that.
func NewHandler(application *app.Application, tokens []string, authMgr *auth.Manager, auditMax int) http.Handler {
	return NewHandlerWithSink(application, tokens, authMgr, auditMax, nil)
}

// NewHandlerWithSink is NewHandler with an explicit audit sink.
func NewHandlerWithSink(application *app.Application, tokens []string, authMgr *auth.Manager, auditMax int, sink AuditSink) http.Handler {
	h := &handler{
		app:      application,
		authMgr:  authMgr,
		auditBuf: newAuditLog(auditMax, sink),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", h.login)
	mux.HandleFunc("/api/activos", h.assets)
	mux.HandleFunc("/api/activos/", h.assetResources)
	mux.HandleFunc("/api/ubicaciones", h.locations)
	mux.HandleFunc("/api/ubicaciones/", h.locationResources)
	mux.HandleFunc("/api/usuarios", h.users)
	mux.HandleFunc("/api/usuarios/", h.userResources)
	mux.HandleFunc("/api/compras", h.purchases)
	mux.HandleFunc("/api/compras/", h.purchaseResources)
	mux.HandleFunc("/api/auditorias", h.audits)
	mux.HandleFunc("/api/auditorias/", h.auditResources)
	mux.HandleFunc("/api/reportes/dashboard", h.dashboard)
	mux.HandleFunc("/api/reportes/valor-libros", h.bookValue)
	mux.HandleFunc("/api/buscar", h.search)
	mux.HandleFunc("/api/etiquetas", h.labels)
	mux.HandleFunc("/api/audit-log", h.auditTrail)

	return wrapWithAuth(wrapWithAudit(mux, h.auditBuf), tokens, authMgr)
}

// --- auth ----------------------------------------------------------------------

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.authMgr == nil || !h.authMgr.Enabled() {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("login is not configured"))
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	token, expiry, err := h.authMgr.Login(payload.Username, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiry.UTC().Format(time.RFC3339),
	})
}

// --- assets --------------------------------------------------------------------

func (h *handler) assets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload assetssvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		actor, _ := identityFromContext(r.Context())
		created, err := h.app.Assets.Create(r.Context(), payload, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		q := r.URL.Query()
		// "search" is the documented parameter; "q" stays as an alias for the
		// admin pages.
		search := q.Get("search")
		if search == "" {
			search = q.Get("q")
		}
		filter := asset.Filter{
			Search:  search,
			Page:    queryInt(q.Get("page"), 1),
			PerPage: queryInt(q.Get("per_page"), 0),
		}
		if raw := q.Get("status"); raw != "" {
			status, err := asset.ParseStatus(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			filter.Status = status
		}
		page, err := h.app.Assets.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, page)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) assetResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/activos"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// /api/activos/codigo/{code} resolves the scanned business code.
	if parts[0] == "codigo" {
		if len(parts) != 2 || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		a, err := h.app.Assets.GetByCode(r.Context(), parts[1])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	assetID := parts[0]
	if len(parts) == 1 {
		h.assetByID(w, r, assetID)
		return
	}

	switch parts[1] {
	case "qr":
		h.assetQR(w, r, assetID)
	case "mantenimientos":
		h.assetMaintenance(w, r, assetID)
	case "historial":
		h.assetHistory(w, r, assetID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) assetByID(w http.ResponseWriter, r *http.Request, assetID string) {
	switch r.Method {
	case http.MethodGet:
		a, err := h.app.Assets.Get(r.Context(), assetID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)

	case http.MethodPut:
		var payload assetssvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		actor, _ := identityFromContext(r.Context())
		updated, err := h.app.Assets.Update(r.Context(), assetID, payload, actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := h.app.Assets.Delete(r.Context(), assetID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) assetQR(w http.ResponseWriter, r *http.Request, assetID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	size := queryInt(r.URL.Query().Get("size"), 0)
	png, a, err := h.app.Labels.AssetPNG(r.Context(), assetID, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.RecordLabelsRendered(1)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.Code+".png"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *handler) assetMaintenance(w http.ResponseWriter, r *http.Request, assetID string) {
	switch r.Method {
	case http.MethodPost:
		var payload maintenancesvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec, err := h.app.Maintenance.Record(r.Context(), assetID, payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)

	case http.MethodGet:
		records, err := h.app.Maintenance.List(r.Context(), assetID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) assetHistory(w http.ResponseWriter, r *http.Request, assetID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	movements, err := h.app.Assets.History(r.Context(), assetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

// --- locations -------------------------------------------------------------------

func (h *handler) locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload locationsvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Locations.Create(r.Context(), payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		all, err := h.app.Locations.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, all)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) locationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/ubicaciones"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if parts[0] == "arbol" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		tree, err := h.app.Locations.Tree(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, tree)
		return
	}

	locationID := parts[0]
	if len(parts) == 2 && parts[1] == "activos" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		items, err := h.app.Assets.ListByLocation(r.Context(), locationID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		loc, err := h.app.Locations.Get(r.Context(), locationID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loc)

	case http.MethodPut:
		var payload locationsvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := h.app.Locations.Update(r.Context(), locationID, payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- users ----------------------------------------------------------------------

func (h *handler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload userssvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Users.Create(r.Context(), payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		all, err := h.app.Users.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, all)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) userResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/usuarios"), "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	u, err := h.app.Users.Get(r.Context(), trimmed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// --- purchases --------------------------------------------------------------------

func (h *handler) purchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload purchasesvc.Input
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Purchases.Create(r.Context(), payload)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		all, err := h.app.Purchases.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, all)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) purchaseResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/compras"), "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	p, err := h.app.Purchases.Get(r.Context(), trimmed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- audits ----------------------------------------------------------------------

func (h *handler) audits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			LocationID string `json:"ubicacion_auditada_id"`
			AuditorID  string `json:"auditor_id"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		started, err := h.app.Audits.Start(r.Context(), payload.LocationID, payload.AuditorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, started)

	case http.MethodGet:
		q := r.URL.Query()
		filter := audit.Filter{LocationID: q.Get("ubicacion_id")}
		if raw := q.Get("status"); raw != "" {
			status, err := audit.ParseStatus(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			filter.Status = status
		}
		all, err := h.app.Audits.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, all)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) auditResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/auditorias"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	auditID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a, err := h.app.Audits.Get(r.Context(), auditID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
		return
	}

	switch parts[1] {
	case "escaneos":
		h.auditScans(w, r, auditID)
	case "completar":
		h.auditTransition(w, r, auditID, h.app.Audits.Complete)
	case "cancelar":
		h.auditTransition(w, r, auditID, h.app.Audits.Cancel)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) auditScans(w http.ResponseWriter, r *http.Request, auditID string) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Code string `json:"codigo_activo"`
			Note string `json:"nota"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		scan, err := h.app.Audits.RecordScan(r.Context(), auditID, payload.Code, payload.Note)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		metrics.RecordAuditScan(string(scan.Result))
		writeJSON(w, http.StatusCreated, scan)

	case http.MethodGet:
		scans, err := h.app.Audits.Scans(r.Context(), auditID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scans)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) auditTransition(w http.ResponseWriter, r *http.Request, auditID string, fn func(ctx context.Context, id string) (audit.Audit, error)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	a, err := fn(r.Context(), auditID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- reports ---------------------------------------------------------------------

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	dash, err := h.app.Reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *handler) bookValue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var asOf time.Time
	if raw := r.URL.Query().Get("fecha"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("fecha must be YYYY-MM-DD: %w", err))
			return
		}
		asOf = parsed
	}
	report, err := h.app.Reports.BookValue(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	results, err := h.app.Reports.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// --- labels ----------------------------------------------------------------------

func (h *handler) labels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		AssetIDs   []string `json:"activo_ids"`
		LocationID string   `json:"ubicacion_id"`
		Size       int      `json:"size"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var (
		sheet []labels.Label
		err   error
	)
	if payload.LocationID != "" {
		sheet, err = h.app.Labels.LocationSheet(r.Context(), payload.LocationID, payload.Size)
	} else {
		sheet, err = h.app.Labels.Sheet(r.Context(), payload.AssetIDs, payload.Size)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.RecordLabelsRendered(len(sheet))
	writeJSON(w, http.StatusOK, sheet)
}

// --- audit trail -------------------------------------------------------------------

func (h *handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, role := identityFromContext(r.Context())
	if role != "Admin" {
		writeError(w, http.StatusForbidden, fmt.Errorf("admin role required"))
		return
	}
	limit := queryInt(r.URL.Query().Get("limit"), 0)
	writeJSON(w, http.StatusOK, h.auditBuf.listLimit(limit))
}

// --- helpers -----------------------------------------------------------------------

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeServiceError maps storage sentinels onto HTTP statuses; everything
// else is treated as a validation failure.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}
