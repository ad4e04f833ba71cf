// Package labels renders the QR codes printed on physical asset tags. The
// encoded content is the asset's public URL so any phone camera resolves a
// label without the app installed.
package labels

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/services/assets"
	"github.com/assetops/sga/pkg/logger"
)

// Service renders QR labels.
type Service struct {
	assets *assets.Service
	size   int
	border bool
	log    *logger.Logger
}

// Options tunes label rendering.
type Options struct {
	// Size is the PNG edge length in pixels.
	Size int
	// Border keeps the quiet zone around the code. Disable only for label
	// stock that provides its own margin.
	Border bool
}

// New constructs a label service on top of the asset registry.
func New(assetSvc *assets.Service, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("labels")
	}
	if opts.Size <= 0 {
		opts.Size = 256
	}
	return &Service{assets: assetSvc, size: opts.Size, border: opts.Border, log: log}
}

func (s *Service) render(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = s.size
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = !s.border
	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}

// AssetPNG renders the QR label for one asset as a PNG image.
func (s *Service) AssetPNG(ctx context.Context, assetID string, size int) ([]byte, asset.Asset, error) {
	a, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, asset.Asset{}, err
	}
	content := a.QRURL
	if content == "" {
		content = s.assets.QRURL(a.Code)
	}
	png, err := s.render(content, size)
	if err != nil {
		return nil, asset.Asset{}, err
	}
	return png, a, nil
}

// Label is one entry on a print sheet. The PNG is base64 encoded so the
// sheet can be returned as JSON and dropped into <img> tags directly.
type Label struct {
	AssetID    string `json:"activo_id"`
	Code       string `json:"codigo_activo"`
	Name       string `json:"nombre_activo"`
	LocationID string `json:"ubicacion_id,omitempty"`
	QRURL      string `json:"qr_url"`
	PNG        string `json:"png_base64"`
}

// Sheet renders labels for a batch of assets, skipping ids that no longer
// exist so a stale print queue doesn't abort the whole sheet.
func (s *Service) Sheet(ctx context.Context, assetIDs []string, size int) ([]Label, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("at least one asset id is required")
	}
	out := make([]Label, 0, len(assetIDs))
	for _, id := range assetIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		png, a, err := s.AssetPNG(ctx, id, size)
		if err != nil {
			s.log.WithError(err).WithField("asset_id", id).Warn("skip label")
			continue
		}
		out = append(out, Label{
			AssetID:    a.ID,
			Code:       a.Code,
			Name:       a.Name,
			LocationID: a.LocationID,
			QRURL:      a.QRURL,
			PNG:        base64.StdEncoding.EncodeToString(png),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no labels could be rendered")
	}
	s.log.WithField("labels", len(out)).Info("label sheet rendered")
	return out, nil
}

// LocationSheet renders labels for every asset currently at a location.
func (s *Service) LocationSheet(ctx context.Context, locationID string, size int) ([]Label, error) {
	items, err := s.assets.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("location has no assets to label")
	}
	ids := make([]string, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	return s.Sheet(ctx, ids, size)
}
