// Package reports aggregates read-only views over the registry: the
// dashboard counters, the depreciation report and the global search used by
// the admin panel's quick finder.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetops/sga/internal/app/domain/asset"
	"github.com/assetops/sga/internal/app/domain/audit"
	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/domain/user"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// searchLimit caps each section of the global search.
const searchLimit = 10

// Service produces reporting views.
type Service struct {
	assets    storage.AssetStore
	locations storage.LocationStore
	users     storage.UserStore
	audits    storage.AuditStore
	log       *logger.Logger
}

// New constructs a reports service.
func New(assets storage.AssetStore, locations storage.LocationStore, users storage.UserStore, audits storage.AuditStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{assets: assets, locations: locations, users: users, audits: audits, log: log}
}

// Dashboard is the landing-page summary.
type Dashboard struct {
	asset.Stats
	AuditsInProgress int     `json:"auditorias_pendientes"`
	TotalBookValue   float64 `json:"valor_libros_total"`
	GeneratedAt      string  `json:"generado_en"`
}

// Dashboard computes the fleet counters plus the running audits and total
// depreciated value.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := s.assets.AssetStats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	open, err := s.audits.ListAudits(ctx, audit.Filter{Status: audit.StatusInProgress})
	if err != nil {
		return Dashboard{}, err
	}
	total, _, err := s.TotalBookValue(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Stats:            stats,
		AuditsInProgress: len(open),
		TotalBookValue:   total,
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// BookValueLine is one asset's row in the depreciation report.
type BookValueLine struct {
	AssetID   string  `json:"activo_id"`
	Code      string  `json:"codigo_activo"`
	Name      string  `json:"nombre_activo"`
	Cost      float64 `json:"costo_adquisicion"`
	BookValue float64 `json:"valor_libros"`
}

// BookValueReport values every non-retired asset at a point in time using
// straight-line depreciation.
type BookValueReport struct {
	AsOf  string          `json:"fecha_corte"`
	Total float64         `json:"valor_libros_total"`
	Lines []BookValueLine `json:"items"`
}

// TotalBookValue sums the current book value of every non-retired asset.
func (s *Service) TotalBookValue(ctx context.Context) (float64, int, error) {
	now := time.Now().UTC()
	var total float64
	count := 0
	page := 1
	for {
		items, totalRows, err := s.assets.ListAssets(ctx, asset.Filter{Page: page, PerPage: 500})
		if err != nil {
			return 0, 0, err
		}
		for _, a := range items {
			if a.Status == asset.StatusRetired {
				continue
			}
			total += a.BookValue(now)
			count++
		}
		if page*500 >= totalRows || len(items) == 0 {
			break
		}
		page++
	}
	return total, count, nil
}

// BookValue builds the full depreciation report as of the given time. A zero
// time means now.
func (s *Service) BookValue(ctx context.Context, asOf time.Time) (BookValueReport, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	report := BookValueReport{AsOf: asOf.Format("2006-01-02")}
	page := 1
	for {
		items, totalRows, err := s.assets.ListAssets(ctx, asset.Filter{Page: page, PerPage: 500})
		if err != nil {
			return BookValueReport{}, err
		}
		for _, a := range items {
			if a.Status == asset.StatusRetired {
				continue
			}
			value := a.BookValue(asOf)
			report.Total += value
			report.Lines = append(report.Lines, BookValueLine{
				AssetID:   a.ID,
				Code:      a.Code,
				Name:      a.Name,
				Cost:      a.Cost,
				BookValue: value,
			})
		}
		if page*500 >= totalRows || len(items) == 0 {
			break
		}
		page++
	}
	return report, nil
}

// SearchResults groups the global search sections.
type SearchResults struct {
	Query     string              `json:"query"`
	Assets    []asset.Asset       `json:"activos"`
	Locations []location.Location `json:"ubicaciones"`
	Users     []user.User         `json:"usuarios"`
}

// Search runs the global quick finder. Each section returns at most ten
// matches.
func (s *Service) Search(ctx context.Context, query string) (SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResults{}, fmt.Errorf("query is required")
	}
	results := SearchResults{Query: query}

	found, err := s.assets.SearchAssets(ctx, query, searchLimit)
	if err != nil {
		return SearchResults{}, err
	}
	results.Assets = found

	locs, err := s.locations.ListLocations(ctx)
	if err != nil {
		return SearchResults{}, err
	}
	lower := strings.ToLower(query)
	for _, loc := range locs {
		if strings.Contains(strings.ToLower(loc.Name), lower) {
			results.Locations = append(results.Locations, loc)
			if len(results.Locations) == searchLimit {
				break
			}
		}
	}

	people, err := s.users.ListUsers(ctx)
	if err != nil {
		return SearchResults{}, err
	}
	for _, u := range people {
		if strings.Contains(strings.ToLower(u.FullName), lower) || strings.Contains(strings.ToLower(u.Email), lower) {
			results.Users = append(results.Users, u)
			if len(results.Users) == searchLimit {
				break
			}
		}
	}
	return results, nil
}
