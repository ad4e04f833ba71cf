// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/maintenance"
	"github.com/assetops/sga/internal/app/domain/purchase"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
)

// Store is the in-memory implementation of every storage interface.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users        map[string]user.User
	usersByEmail map[string]string

	locations       map[string]location.Location
	locationsByName map[string]string

	purchases map[string]purchase.Purchase

	assets       map[string]asset.Asset
	assetsByCode map[string]string
	movements    map[string][]asset.Movement

	maintenance map[string][]maintenance.Record

	audits map[string]audit.Audit
	scans  map[string][]audit.Scan
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.LocationStore = (*Store)(nil)
var _ storage.PurchaseStore = (*Store)(nil)
var _ storage.AssetStore = (*Store)(nil)
var _ storage.MaintenanceStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:          1,
		users:           make(map[string]user.User),
		usersByEmail:    make(map[string]string),
		locations:       make(map[string]location.Location),
		locationsByName: make(map[string]string),
		purchases:       make(map[string]purchase.Purchase),
		assets:          make(map[string]asset.Asset),
		assetsByCode:    make(map[string]string),
		movements:       make(map[string][]asset.Movement),
		maintenance:     make(map[string][]maintenance.Record),
		audits:          make(map[string]audit.Audit),
		scans:           make(map[string][]audit.Scan),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return user.User{}, fmt.Errorf("email %s: %w", u.Email, storage.ErrConflict)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	s.usersByEmail[key] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// LocationStore implementation -------------------------------------------------

func (s *Store) CreateLocation(_ context.Context, loc location.Location) (location.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(loc.Name)
	if _, exists := s.locationsByName[key]; exists {
		return location.Location{}, fmt.Errorf("location %s: %w", loc.Name, storage.ErrConflict)
	}
	if loc.ParentID != "" {
		if _, ok := s.locations[loc.ParentID]; !ok {
			return location.Location{}, fmt.Errorf("parent location %s: %w", loc.ParentID, storage.ErrNotFound)
		}
	}
	if loc.ID == "" {
		loc.ID = s.nextIDLocked()
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	s.locations[loc.ID] = loc
	s.locationsByName[key] = loc.ID
	return loc, nil
}

func (s *Store) UpdateLocation(_ context.Context, loc location.Location) (location.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.locations[loc.ID]
	if !ok {
		return location.Location{}, fmt.Errorf("location %s: %w", loc.ID, storage.ErrNotFound)
	}
	newKey := strings.ToLower(loc.Name)
	oldKey := strings.ToLower(existing.Name)
	if newKey != oldKey {
		if _, exists := s.locationsByName[newKey]; exists {
			return location.Location{}, fmt.Errorf("location %s: %w", loc.Name, storage.ErrConflict)
		}
		delete(s.locationsByName, oldKey)
		s.locationsByName[newKey] = loc.ID
	}
	s.locations[loc.ID] = loc
	return loc, nil
}

func (s *Store) GetLocation(_ context.Context, id string) (location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return location.Location{}, fmt.Errorf("location %s: %w", id, storage.ErrNotFound)
	}
	return loc, nil
}

func (s *Store) GetLocationByName(_ context.Context, name string) (location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.locationsByName[strings.ToLower(name)]
	if !ok {
		return location.Location{}, fmt.Errorf("location %s: %w", name, storage.ErrNotFound)
	}
	return s.locations[id], nil
}

func (s *Store) ListLocations(_ context.Context) ([]location.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]location.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PurchaseStore implementation --------------------------------------------------

func (s *Store) CreatePurchase(_ context.Context, p purchase.Purchase) (purchase.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.purchases[p.ID] = p
	return p, nil
}

func (s *Store) GetPurchase(_ context.Context, id string) (purchase.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return purchase.Purchase{}, fmt.Errorf("purchase %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListPurchases(_ context.Context) ([]purchase.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]purchase.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.Before(out[j].PurchaseDate.Time) })
	return out, nil
}

// AssetStore implementation ------------------------------------------------------

func (s *Store) CreateAsset(_ context.Context, a asset.Asset) (asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(a.Code)
	if _, exists := s.assetsByCode[key]; exists {
		return asset.Asset{}, fmt.Errorf("asset code %s: %w", a.Code, storage.ErrConflict)
	}
	if s.serialTakenLocked(a.SerialNumber, "") {
		return asset.Asset{}, fmt.Errorf("serial number %s: %w", a.SerialNumber, storage.ErrConflict)
	}
	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.assets[a.ID] = a
	s.assetsByCode[key] = a.ID
	return a, nil
}

func (s *Store) UpdateAsset(_ context.Context, a asset.Asset) (asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.assets[a.ID]
	if !ok {
		return asset.Asset{}, fmt.Errorf("asset %s: %w", a.ID, storage.ErrNotFound)
	}
	newKey := strings.ToUpper(a.Code)
	oldKey := strings.ToUpper(existing.Code)
	if newKey != oldKey {
		if _, exists := s.assetsByCode[newKey]; exists {
			return asset.Asset{}, fmt.Errorf("asset code %s: %w", a.Code, storage.ErrConflict)
		}
	}
	if s.serialTakenLocked(a.SerialNumber, a.ID) {
		return asset.Asset{}, fmt.Errorf("serial number %s: %w", a.SerialNumber, storage.ErrConflict)
	}
	if newKey != oldKey {
		delete(s.assetsByCode, oldKey)
		s.assetsByCode[newKey] = a.ID
	}
	a.UpdatedAt = time.Now().UTC()
	s.assets[a.ID] = a
	return a, nil
}

// serialTakenLocked reports whether another asset already carries the serial
// number. Empty serials are not unique.
func (s *Store) serialTakenLocked(serial, selfID string) bool {
	if serial == "" {
		return false
	}
	for id, other := range s.assets {
		if id != selfID && other.SerialNumber == serial {
			return true
		}
	}
	return false
}

func (s *Store) GetAsset(_ context.Context, id string) (asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return asset.Asset{}, fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) GetAssetByCode(_ context.Context, code string) (asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.assetsByCode[strings.ToUpper(code)]
	if !ok {
		return asset.Asset{}, fmt.Errorf("asset %s: %w", code, storage.ErrNotFound)
	}
	return s.assets[id], nil
}

func (s *Store) DeleteAsset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	delete(s.assets, id)
	delete(s.assetsByCode, strings.ToUpper(a.Code))
	delete(s.movements, id)
	delete(s.maintenance, id)
	return nil
}

func matchesFilter(a asset.Asset, f asset.Filter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Code), needle) &&
			!strings.Contains(strings.ToLower(a.Name), needle) &&
			!strings.Contains(strings.ToLower(a.Brand), needle) {
			return false
		}
	}
	return true
}

func (s *Store) ListAssets(_ context.Context, f asset.Filter) ([]asset.Asset, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []asset.Asset
	for _, a := range s.assets {
		if matchesFilter(a, f) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	total := len(matched)
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		return matched, total, nil
	}
	start := (page - 1) * perPage
	if start >= total {
		return []asset.Asset{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *Store) ListAssetsByLocation(_ context.Context, locationID string) ([]asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []asset.Asset
	for _, a := range s.assets {
		if a.LocationID == locationID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) SearchAssets(_ context.Context, query string, limit int) ([]asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []asset.Asset
	for _, a := range s.assets {
		if matchesFilter(a, asset.Filter{Search: query}) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AssetStats(_ context.Context) (asset.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := asset.Stats{ByStatus: make(map[asset.Status]int)}
	for _, st := range asset.Statuses() {
		stats.ByStatus[st] = 0
	}
	for _, a := range s.assets {
		stats.Total++
		stats.ByStatus[a.Status]++
		if a.LocationID == "" {
			stats.Unlocated++
		}
		if a.AssigneeID == "" {
			stats.Unassigned++
		}
	}
	return stats, nil
}

func (s *Store) CreateMovement(_ context.Context, m asset.Movement) (asset.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[m.AssetID]; !ok {
		return asset.Movement{}, fmt.Errorf("asset %s: %w", m.AssetID, storage.ErrNotFound)
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	if m.ChangedAt.IsZero() {
		m.ChangedAt = time.Now().UTC()
	}
	s.movements[m.AssetID] = append(s.movements[m.AssetID], m)
	return m, nil
}

func (s *Store) ListMovements(_ context.Context, assetID string) ([]asset.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.movements[assetID]
	out := make([]asset.Movement, len(entries))
	copy(out, entries)
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}

// MaintenanceStore implementation -------------------------------------------------

func (s *Store) CreateMaintenance(_ context.Context, rec maintenance.Record) (maintenance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[rec.AssetID]; !ok {
		return maintenance.Record{}, fmt.Errorf("asset %s: %w", rec.AssetID, storage.ErrNotFound)
	}
	if rec.ID == "" {
		rec.ID = s.nextIDLocked()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.maintenance[rec.AssetID] = append(s.maintenance[rec.AssetID], rec)
	return rec, nil
}

func (s *Store) ListMaintenance(_ context.Context, assetID string) ([]maintenance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.maintenance[assetID]
	out := make([]maintenance.Record, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

// AuditStore implementation ---------------------------------------------------------

func (s *Store) CreateAudit(_ context.Context, a audit.Audit) (audit.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextIDLocked()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	s.audits[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAudit(_ context.Context, a audit.Audit) (audit.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.audits[a.ID]; !ok {
		return audit.Audit{}, fmt.Errorf("audit %s: %w", a.ID, storage.ErrNotFound)
	}
	s.audits[a.ID] = a
	return a, nil
}

func (s *Store) GetAudit(_ context.Context, id string) (audit.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.audits[id]
	if !ok {
		return audit.Audit{}, fmt.Errorf("audit %s: %w", id, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) ListAudits(_ context.Context, f audit.Filter) ([]audit.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Audit
	for _, a := range s.audits {
		if f.LocationID != "" && a.LocationID != f.LocationID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (s *Store) CreateScan(_ context.Context, sc audit.Scan) (audit.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.audits[sc.AuditID]; !ok {
		return audit.Scan{}, fmt.Errorf("audit %s: %w", sc.AuditID, storage.ErrNotFound)
	}
	if sc.ID == "" {
		sc.ID = s.nextIDLocked()
	}
	if sc.ScannedAt.IsZero() {
		sc.ScannedAt = time.Now().UTC()
	}
	s.scans[sc.AuditID] = append(s.scans[sc.AuditID], sc)
	return sc, nil
}

func (s *Store) ListScans(_ context.Context, auditID string) ([]audit.Scan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.scans[auditID]
	out := make([]audit.Scan, len(entries))
	copy(out, entries)
	return out, nil
}
