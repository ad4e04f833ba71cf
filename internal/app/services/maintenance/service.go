// Package maintenance records interventions performed on assets.
package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetops/sga/internal/app/domain/dates"
	domain "github.com/assetops/sga/internal/app/domain/maintenance"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages maintenance records.
type Service struct {
	store  storage.MaintenanceStore
	assets storage.AssetStore
	users  storage.UserStore
	log    *logger.Logger
}

// New constructs a maintenance service.
func New(store storage.MaintenanceStore, assets storage.AssetStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("maintenance")
	}
	return &Service{store: store, assets: assets, users: users, log: log}
}

// Input carries the fields accepted when recording maintenance.
type Input struct {
	Date         dates.Date `json:"fecha_mantenimiento"`
	Type         string     `json:"tipo_mantenimiento"`
	Description  string     `json:"descripcion"`
	Cost         float64    `json:"costo"`
	TechnicianID string     `json:"realizado_por_id"`
}

// Record documents a maintenance intervention on an existing asset.
func (s *Service) Record(ctx context.Context, assetID string, in Input) (domain.Record, error) {
	if _, err := s.assets.GetAsset(ctx, assetID); err != nil {
		return domain.Record{}, err
	}

	typ, err := domain.ParseType(strings.TrimSpace(in.Type))
	if err != nil {
		return domain.Record{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	in.TechnicianID = strings.TrimSpace(in.TechnicianID)
	if in.Description == "" {
		return domain.Record{}, fmt.Errorf("descripcion is required")
	}
	if in.Cost < 0 {
		return domain.Record{}, fmt.Errorf("costo cannot be negative")
	}
	if in.Date.IsZero() {
		in.Date = dates.New(time.Now().UTC())
	}
	if in.TechnicianID == "" {
		return domain.Record{}, fmt.Errorf("realizado_por_id is required")
	}
	if s.users != nil {
		if _, err := s.users.GetUser(ctx, in.TechnicianID); err != nil {
			return domain.Record{}, fmt.Errorf("technician validation failed: %w", err)
		}
	}

	created, err := s.store.CreateMaintenance(ctx, domain.Record{
		AssetID:      assetID,
		Date:         in.Date,
		Type:         typ,
		Description:  in.Description,
		Cost:         in.Cost,
		TechnicianID: in.TechnicianID,
	})
	if err != nil {
		return domain.Record{}, err
	}
	s.log.WithField("asset_id", assetID).
		WithField("tipo", string(typ)).
		Info("maintenance recorded")
	return created, nil
}

// List returns an asset's maintenance history, newest first.
func (s *Service) List(ctx context.Context, assetID string) ([]domain.Record, error) {
	if _, err := s.assets.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.store.ListMaintenance(ctx, assetID)
}
