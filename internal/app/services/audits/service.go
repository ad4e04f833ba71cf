// Package audits runs physical inventory verification over one location at a
// time: start an audit, scan every label in the room, complete it. Completion
// writes a "No Encontrado" scan for every asset that was expected but never
// scanned, so the detail rows always account for the full expected set.
package audits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages location audits and their scans.
type Service struct {
	store     storage.AuditStore
	assets    storage.AssetStore
	locations storage.LocationStore
	users     storage.UserStore
	log       *logger.Logger
}

// New constructs an audit service.
func New(store storage.AuditStore, assets storage.AssetStore, locations storage.LocationStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("audits")
	}
	return &Service{store: store, assets: assets, locations: locations, users: users, log: log}
}

// Start opens an audit over a location. Only one audit may be in progress
// per location at a time.
func (s *Service) Start(ctx context.Context, locationID, auditorID string) (audit.Audit, error) {
	locationID = strings.TrimSpace(locationID)
	auditorID = strings.TrimSpace(auditorID)
	if locationID == "" {
		return audit.Audit{}, fmt.Errorf("ubicacion_auditada_id is required")
	}
	if auditorID == "" {
		return audit.Audit{}, fmt.Errorf("auditor_id is required")
	}
	if _, err := s.locations.GetLocation(ctx, locationID); err != nil {
		return audit.Audit{}, fmt.Errorf("location validation failed: %w", err)
	}
	auditor, err := s.users.GetUser(ctx, auditorID)
	if err != nil {
		return audit.Audit{}, fmt.Errorf("auditor validation failed: %w", err)
	}
	if auditor.Role == user.RoleEmployee {
		return audit.Audit{}, fmt.Errorf("user %s cannot run audits", auditor.Email)
	}

	open, err := s.store.ListAudits(ctx, audit.Filter{LocationID: locationID, Status: audit.StatusInProgress})
	if err != nil {
		return audit.Audit{}, err
	}
	if len(open) > 0 {
		return audit.Audit{}, fmt.Errorf("location already has audit %s in progress: %w", open[0].ID, storage.ErrConflict)
	}

	created, err := s.store.CreateAudit(ctx, audit.Audit{
		LocationID: locationID,
		AuditorID:  auditorID,
		StartedAt:  time.Now().UTC(),
		Status:     audit.StatusInProgress,
	})
	if err != nil {
		return audit.Audit{}, err
	}
	s.log.WithField("audit_id", created.ID).
		WithField("location_id", locationID).
		Info("audit started")
	return created, nil
}

// RecordScan classifies one scanned code against the audited location.
// Unknown codes are kept as Activo Desconocido rows so the audit trail shows
// exactly what the scanner saw. Known assets may only be scanned once per
// audit, and each scan stamps the asset's last-audit fields.
func (s *Service) RecordScan(ctx context.Context, auditID, code, note string) (audit.Scan, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return audit.Scan{}, fmt.Errorf("codigo_activo is required")
	}
	a, err := s.store.GetAudit(ctx, auditID)
	if err != nil {
		return audit.Scan{}, err
	}
	if a.Status != audit.StatusInProgress {
		return audit.Scan{}, fmt.Errorf("audit %s is %s, not in progress", a.ID, a.Status)
	}

	scan := audit.Scan{
		AuditID:   a.ID,
		AssetCode: code,
		ScannedAt: time.Now().UTC(),
		Note:      strings.TrimSpace(note),
	}

	found, err := s.assets.GetAssetByCode(ctx, code)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		scan.Result = audit.ScanUnknownAsset
	case err != nil:
		return audit.Scan{}, err
	default:
		prior, err := s.store.ListScans(ctx, a.ID)
		if err != nil {
			return audit.Scan{}, err
		}
		for _, p := range prior {
			if p.AssetID == found.ID {
				return audit.Scan{}, fmt.Errorf("asset %s already scanned in this audit: %w", code, storage.ErrConflict)
			}
		}
		scan.AssetID = found.ID
		if found.LocationID == a.LocationID {
			scan.Result = audit.ScanOK
		} else {
			scan.Result = audit.ScanWrongLocation
		}

		now := scan.ScannedAt
		found.LastAuditAt = &now
		found.LastAuditByID = a.AuditorID
		if _, err := s.assets.UpdateAsset(ctx, found); err != nil {
			s.log.WithError(err).WithField("asset_id", found.ID).Warn("stamp last audit")
		}
	}

	created, err := s.store.CreateScan(ctx, scan)
	if err != nil {
		return audit.Scan{}, err
	}
	s.log.WithField("audit_id", a.ID).
		WithField("codigo", code).
		WithField("resultado", string(created.Result)).
		Info("scan recorded")
	return created, nil
}

// Complete closes an in-progress audit. Every asset expected at the location
// but never scanned gets a No Encontrado detail row, and the summary reports
// counts per result.
func (s *Service) Complete(ctx context.Context, auditID string) (audit.Audit, error) {
	a, err := s.store.GetAudit(ctx, auditID)
	if err != nil {
		return audit.Audit{}, err
	}
	if a.Status != audit.StatusInProgress {
		return audit.Audit{}, fmt.Errorf("audit %s is %s, not in progress", a.ID, a.Status)
	}

	scans, err := s.store.ListScans(ctx, a.ID)
	if err != nil {
		return audit.Audit{}, err
	}
	seen := make(map[string]struct{}, len(scans))
	counts := map[audit.ScanResult]int{}
	for _, sc := range scans {
		counts[sc.Result]++
		if sc.AssetID != "" {
			seen[sc.AssetID] = struct{}{}
		}
	}

	expected, err := s.assets.ListAssetsByLocation(ctx, a.LocationID)
	if err != nil {
		return audit.Audit{}, err
	}
	now := time.Now().UTC()
	for _, missing := range expected {
		if _, ok := seen[missing.ID]; ok {
			continue
		}
		if _, err := s.store.CreateScan(ctx, audit.Scan{
			AuditID:   a.ID,
			AssetID:   missing.ID,
			AssetCode: missing.Code,
			Result:    audit.ScanNotFound,
			ScannedAt: now,
			Note:      "no escaneado al cierre",
		}); err != nil {
			return audit.Audit{}, err
		}
		counts[audit.ScanNotFound]++
	}

	a.Status = audit.StatusCompleted
	a.FinishedAt = &now
	a.Summary = fmt.Sprintf("%d OK, %d en ubicación incorrecta, %d no encontrados, %d desconocidos",
		counts[audit.ScanOK], counts[audit.ScanWrongLocation],
		counts[audit.ScanNotFound], counts[audit.ScanUnknownAsset])

	updated, err := s.store.UpdateAudit(ctx, a)
	if err != nil {
		return audit.Audit{}, err
	}
	s.log.WithField("audit_id", a.ID).
		WithField("resumen", a.Summary).
		Info("audit completed")
	return updated, nil
}

// Cancel abandons an in-progress audit without writing missing-asset rows.
func (s *Service) Cancel(ctx context.Context, auditID string) (audit.Audit, error) {
	a, err := s.store.GetAudit(ctx, auditID)
	if err != nil {
		return audit.Audit{}, err
	}
	if a.Status != audit.StatusInProgress {
		return audit.Audit{}, fmt.Errorf("audit %s is %s, not in progress", a.ID, a.Status)
	}
	now := time.Now().UTC()
	a.Status = audit.StatusCancelled
	a.FinishedAt = &now

	updated, err := s.store.UpdateAudit(ctx, a)
	if err != nil {
		return audit.Audit{}, err
	}
	s.log.WithField("audit_id", a.ID).Info("audit cancelled")
	return updated, nil
}

// Get fetches an audit by id.
func (s *Service) Get(ctx context.Context, id string) (audit.Audit, error) {
	if strings.TrimSpace(id) == "" {
		return audit.Audit{}, fmt.Errorf("audit id is required")
	}
	return s.store.GetAudit(ctx, id)
}

// List returns audits matching the filter, newest first.
func (s *Service) List(ctx context.Context, f audit.Filter) ([]audit.Audit, error) {
	return s.store.ListAudits(ctx, f)
}

// Scans returns an audit's detail rows in scan order.
func (s *Service) Scans(ctx context.Context, auditID string) ([]audit.Scan, error) {
	if _, err := s.store.GetAudit(ctx, auditID); err != nil {
		return nil, err
	}
	return s.store.ListScans(ctx, auditID)
}

// SweepStale cancels audits that have been in progress longer than maxAge.
// Run periodically so an abandoned phone session does not lock a location
// forever.
func (s *Service) SweepStale(ctx context.Context, maxAge time.Duration) (int, error) {
	open, err := s.store.ListAudits(ctx, audit.Filter{Status: audit.StatusInProgress})
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	cancelled := 0
	for _, a := range open {
		if a.StartedAt.After(cutoff) {
			continue
		}
		now := time.Now().UTC()
		a.Status = audit.StatusCancelled
		a.FinishedAt = &now
		a.Summary = "cancelada automáticamente por inactividad"
		if _, err := s.store.UpdateAudit(ctx, a); err != nil {
			s.log.WithError(err).WithField("audit_id", a.ID).Warn("sweep stale audit")
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		s.log.WithField("cancelled", cancelled).Info("stale audits swept")
	}
	return cancelled, nil
}
