// Package locations manages the physical places assets live in. Locations
// form a tree; audits and the mobile pages navigate it.
package locations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/assetops/sga/internal/app/domain/location"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages the location tree.
type Service struct {
	store storage.LocationStore
	log   *logger.Logger
}

// New constructs a location service.
func New(store storage.LocationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("locations")
	}
	return &Service{store: store, log: log}
}

// Input carries the fields accepted when creating or updating a location.
type Input struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	ParentID    string `json:"parent_ubicacion_id"`
}

// Create registers a new location. Names are unique across the whole tree.
func (s *Service) Create(ctx context.Context, in Input) (location.Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ParentID = strings.TrimSpace(in.ParentID)
	if in.Name == "" {
		return location.Location{}, fmt.Errorf("nombre is required")
	}
	if in.ParentID != "" {
		if _, err := s.store.GetLocation(ctx, in.ParentID); err != nil {
			return location.Location{}, fmt.Errorf("parent validation failed: %w", err)
		}
	}

	created, err := s.store.CreateLocation(ctx, location.Location{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
	})
	if err != nil {
		return location.Location{}, err
	}
	s.log.WithField("location_id", created.ID).
		WithField("nombre", created.Name).
		Info("location created")
	return created, nil
}

// Update changes a location's name, description or parent. Reparenting a
// location under itself or one of its descendants is rejected.
func (s *Service) Update(ctx context.Context, id string, in Input) (location.Location, error) {
	loc, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return location.Location{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.ParentID = strings.TrimSpace(in.ParentID)
	if in.Name == "" {
		return location.Location{}, fmt.Errorf("nombre is required")
	}
	if in.ParentID != "" {
		if in.ParentID == id {
			return location.Location{}, fmt.Errorf("location cannot be its own parent")
		}
		if err := s.checkNoCycle(ctx, id, in.ParentID); err != nil {
			return location.Location{}, err
		}
	}

	loc.Name = in.Name
	loc.Description = strings.TrimSpace(in.Description)
	loc.ParentID = in.ParentID

	updated, err := s.store.UpdateLocation(ctx, loc)
	if err != nil {
		return location.Location{}, err
	}
	s.log.WithField("location_id", updated.ID).Info("location updated")
	return updated, nil
}

// checkNoCycle walks up from the candidate parent and fails when it reaches
// the location being reparented.
func (s *Service) checkNoCycle(ctx context.Context, id, parentID string) error {
	seen := map[string]struct{}{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return fmt.Errorf("location cannot be moved under its own descendant")
		}
		if _, dup := seen[cur]; dup {
			return fmt.Errorf("location tree contains a cycle at %s", cur)
		}
		seen[cur] = struct{}{}
		parent, err := s.store.GetLocation(ctx, cur)
		if err != nil {
			return fmt.Errorf("parent validation failed: %w", err)
		}
		cur = parent.ParentID
	}
	return nil
}

// Get fetches a location by id.
func (s *Service) Get(ctx context.Context, id string) (location.Location, error) {
	if strings.TrimSpace(id) == "" {
		return location.Location{}, fmt.Errorf("location id is required")
	}
	return s.store.GetLocation(ctx, id)
}

// List returns all locations ordered by name.
func (s *Service) List(ctx context.Context) ([]location.Location, error) {
	return s.store.ListLocations(ctx)
}

// Tree returns the full location hierarchy as nested nodes. Locations whose
// parent no longer exists surface as roots rather than disappearing.
func (s *Service) Tree(ctx context.Context) ([]location.Node, error) {
	all, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]location.Location, len(all))
	for _, loc := range all {
		byID[loc.ID] = loc
	}
	children := make(map[string][]location.Location)
	var roots []location.Location
	for _, loc := range all {
		if loc.ParentID == "" {
			roots = append(roots, loc)
			continue
		}
		if _, ok := byID[loc.ParentID]; !ok {
			roots = append(roots, loc)
			continue
		}
		children[loc.ParentID] = append(children[loc.ParentID], loc)
	}

	var build func(loc location.Location) location.Node
	build = func(loc location.Location) location.Node {
		node := location.Node{Location: loc}
		kids := children[loc.ID]
		sort.Slice(kids, func(i, j int) bool { return kids[i].Name < kids[j].Name })
		for _, kid := range kids {
			node.Children = append(node.Children, build(kid))
		}
		return node
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	out := make([]location.Node, 0, len(roots))
	for _, root := range roots {
		out = append(out, build(root))
	}
	return out, nil
}
