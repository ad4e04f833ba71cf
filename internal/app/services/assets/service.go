// Package assets manages the asset registry. Every asset carries a unique
// business code that is encoded into its printed QR label, so codes are
// normalized to upper case and never reissued.
package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages assets and their movement history.
type Service struct {
	store      storage.AssetStore
	locations  storage.LocationStore
	users      storage.UserStore
	purchases  storage.PurchaseStore
	labelBase  string
	perPage    int
	maxPerPage int
	log        *logger.Logger
}

// Options carries the tunables the service needs beyond its stores.
type Options struct {
	// LabelBaseURL is the public URL prefix encoded into QR labels, e.g.
	// https://activos.example.com. The asset code is appended as
	// /activo/{code}.
	LabelBaseURL string
	PerPage      int
	MaxPerPage   int
}

// New constructs an asset service.
func New(store storage.AssetStore, locations storage.LocationStore, users storage.UserStore, purchases storage.PurchaseStore, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("assets")
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 25
	}
	if opts.MaxPerPage <= 0 {
		opts.MaxPerPage = 100
	}
	return &Service{
		store:      store,
		locations:  locations,
		users:      users,
		purchases:  purchases,
		labelBase:  strings.TrimRight(opts.LabelBaseURL, "/"),
		perPage:    opts.PerPage,
		maxPerPage: opts.MaxPerPage,
		log:        log,
	}
}

// Input carries the fields accepted when creating or updating an asset.
type Input struct {
	Code             string     `json:"codigo_activo"`
	Name             string     `json:"nombre_activo"`
	Description      string     `json:"descripcion"`
	Brand            string     `json:"marca"`
	Model            string     `json:"modelo"`
	SerialNumber     string     `json:"numero_serie"`
	Status           string     `json:"status"`
	AcquiredAt       dates.Date `json:"fecha_adquisicion"`
	Cost             float64    `json:"costo_adquisicion"`
	UsefulLifeMonths int        `json:"vida_util_meses"`
	ResidualValue    float64    `json:"valor_residual"`
	LocationID       string     `json:"ubicacion_id"`
	AssigneeID       string     `json:"usuario_asignado_id"`
	PurchaseID       string     `json:"compra_id"`
}

// Page is the envelope returned by paginated listings.
type Page struct {
	Items   []asset.Asset `json:"items"`
	Total   int           `json:"total"`
	Pages   int           `json:"pages"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	HasPrev bool          `json:"has_prev"`
	HasNext bool          `json:"has_next"`
}

// QRURL builds the public URL encoded into an asset's QR label.
func (s *Service) QRURL(code string) string {
	if s.labelBase == "" {
		return "/activo/" + code
	}
	return s.labelBase + "/activo/" + code
}

func (s *Service) validate(ctx context.Context, in *Input) error {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.LocationID = strings.TrimSpace(in.LocationID)
	in.AssigneeID = strings.TrimSpace(in.AssigneeID)
	in.PurchaseID = strings.TrimSpace(in.PurchaseID)

	if in.Code == "" {
		return fmt.Errorf("codigo_activo is required")
	}
	if in.Name == "" {
		return fmt.Errorf("nombre_activo is required")
	}
	if in.AcquiredAt.IsZero() {
		return fmt.Errorf("fecha_adquisicion is required")
	}
	if in.Cost < 0 {
		return fmt.Errorf("costo_adquisicion cannot be negative")
	}
	if in.UsefulLifeMonths < 0 {
		return fmt.Errorf("vida_util_meses cannot be negative")
	}
	if in.ResidualValue < 0 || in.ResidualValue > in.Cost {
		return fmt.Errorf("valor_residual must be between 0 and costo_adquisicion")
	}
	if in.LocationID != "" && s.locations != nil {
		if _, err := s.locations.GetLocation(ctx, in.LocationID); err != nil {
			return fmt.Errorf("location validation failed: %w", err)
		}
	}
	if in.AssigneeID != "" && s.users != nil {
		if _, err := s.users.GetUser(ctx, in.AssigneeID); err != nil {
			return fmt.Errorf("assignee validation failed: %w", err)
		}
	}
	if in.PurchaseID != "" && s.purchases != nil {
		if _, err := s.purchases.GetPurchase(ctx, in.PurchaseID); err != nil {
			return fmt.Errorf("purchase validation failed: %w", err)
		}
	}
	return nil
}

// Create registers a new asset and assigns its QR label URL.
func (s *Service) Create(ctx context.Context, in Input, actorID string) (asset.Asset, error) {
	if err := s.validate(ctx, &in); err != nil {
		return asset.Asset{}, err
	}
	status := asset.StatusInStorage
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := asset.ParseStatus(strings.TrimSpace(in.Status))
		if err != nil {
			return asset.Asset{}, err
		}
		status = parsed
	}

	created, err := s.store.CreateAsset(ctx, asset.Asset{
		Code:             in.Code,
		Name:             in.Name,
		Description:      strings.TrimSpace(in.Description),
		Brand:            strings.TrimSpace(in.Brand),
		Model:            strings.TrimSpace(in.Model),
		SerialNumber:     strings.TrimSpace(in.SerialNumber),
		Status:           status,
		AcquiredAt:       in.AcquiredAt,
		Cost:             in.Cost,
		UsefulLifeMonths: in.UsefulLifeMonths,
		ResidualValue:    in.ResidualValue,
		QRURL:            s.QRURL(in.Code),
		LocationID:       in.LocationID,
		AssigneeID:       in.AssigneeID,
		PurchaseID:       in.PurchaseID,
	})
	if err != nil {
		return asset.Asset{}, err
	}

	if _, err := s.store.CreateMovement(ctx, asset.Movement{
		AssetID:  created.ID,
		UserID:   actorID,
		Field:    "alta",
		NewValue: string(created.Status),
		Note:     "activo registrado",
	}); err != nil {
		s.log.WithError(err).WithField("asset_id", created.ID).Warn("record creation movement")
	}

	s.log.WithField("asset_id", created.ID).
		WithField("codigo", created.Code).
		Info("asset created")
	return created, nil
}

// tracked maps the fields whose changes get a history entry.
func tracked(before, after asset.Asset) []asset.Movement {
	var out []asset.Movement
	add := func(field, oldV, newV string) {
		if oldV != newV {
			out = append(out, asset.Movement{AssetID: before.ID, Field: field, OldValue: oldV, NewValue: newV})
		}
	}
	add("status", string(before.Status), string(after.Status))
	add("ubicacion_id", before.LocationID, after.LocationID)
	add("usuario_asignado_id", before.AssigneeID, after.AssigneeID)
	return out
}

// Update replaces an asset's mutable fields, appending a history entry for
// each tracked change.
func (s *Service) Update(ctx context.Context, id string, in Input, actorID string) (asset.Asset, error) {
	before, err := s.store.GetAsset(ctx, id)
	if err != nil {
		return asset.Asset{}, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return asset.Asset{}, err
	}
	status, err := asset.ParseStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return asset.Asset{}, err
	}

	after := before
	after.Code = in.Code
	after.Name = in.Name
	after.Description = strings.TrimSpace(in.Description)
	after.Brand = strings.TrimSpace(in.Brand)
	after.Model = strings.TrimSpace(in.Model)
	after.SerialNumber = strings.TrimSpace(in.SerialNumber)
	after.Status = status
	after.AcquiredAt = in.AcquiredAt
	after.Cost = in.Cost
	after.UsefulLifeMonths = in.UsefulLifeMonths
	after.ResidualValue = in.ResidualValue
	after.QRURL = s.QRURL(in.Code)
	after.LocationID = in.LocationID
	after.AssigneeID = in.AssigneeID
	after.PurchaseID = in.PurchaseID

	updated, err := s.store.UpdateAsset(ctx, after)
	if err != nil {
		return asset.Asset{}, err
	}

	for _, m := range tracked(before, updated) {
		m.UserID = actorID
		if _, err := s.store.CreateMovement(ctx, m); err != nil {
			s.log.WithError(err).WithField("asset_id", id).Warn("record movement")
		}
	}

	s.log.WithField("asset_id", updated.ID).Info("asset updated")
	return updated, nil
}

// Delete removes an asset permanently. Retiring an asset normally changes its
// status to Dado de Baja instead; deletion is for records created in error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("asset id is required")
	}
	if err := s.store.DeleteAsset(ctx, id); err != nil {
		return err
	}
	s.log.WithField("asset_id", id).Info("asset deleted")
	return nil
}

// Get fetches an asset by id.
func (s *Service) Get(ctx context.Context, id string) (asset.Asset, error) {
	if strings.TrimSpace(id) == "" {
		return asset.Asset{}, fmt.Errorf("asset id is required")
	}
	return s.store.GetAsset(ctx, id)
}

// GetByCode fetches an asset by its business code, case-insensitively. This
// is the lookup the QR scanner uses.
func (s *Service) GetByCode(ctx context.Context, code string) (asset.Asset, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return asset.Asset{}, fmt.Errorf("codigo_activo is required")
	}
	return s.store.GetAssetByCode(ctx, code)
}

// List pages assets matching the filter, clamping page sizes to the
// configured maximum.
func (s *Service) List(ctx context.Context, f asset.Filter) (Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = s.perPage
	}
	if f.PerPage > s.maxPerPage {
		f.PerPage = s.maxPerPage
	}

	items, total, err := s.store.ListAssets(ctx, f)
	if err != nil {
		return Page{}, err
	}
	pages := (total + f.PerPage - 1) / f.PerPage
	if pages < 1 {
		pages = 1
	}
	return Page{
		Items:   items,
		Total:   total,
		Pages:   pages,
		Page:    f.Page,
		PerPage: f.PerPage,
		HasPrev: f.Page > 1,
		HasNext: f.Page < pages,
	}, nil
}

// ListByLocation returns every asset expected at a location.
func (s *Service) ListByLocation(ctx context.Context, locationID string) ([]asset.Asset, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, fmt.Errorf("location id is required")
	}
	return s.store.ListAssetsByLocation(ctx, locationID)
}

// History returns an asset's movement history, newest first.
func (s *Service) History(ctx context.Context, assetID string) ([]asset.Movement, error) {
	if _, err := s.store.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, assetID)
}

// Stats aggregates the fleet counters shown on the dashboard.
func (s *Service) Stats(ctx context.Context) (asset.Stats, error) {
	return s.store.AssetStats(ctx)
}
