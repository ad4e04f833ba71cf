// Package purchases records how batches of assets entered the inventory.
package purchases

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetops/sga/internal/app/domain/dates"
	"github.com/assetops/sga/internal/app/domain/purchase"
	"github.com/assetops/sga/internal/app/storage"
	"github.com/assetops/sga/pkg/logger"
)

// Service manages purchase records.
type Service struct {
	store storage.PurchaseStore
	users storage.UserStore
	log   *logger.Logger
}

// New constructs a purchase service.
func New(store storage.PurchaseStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("purchases")
	}
	return &Service{store: store, users: users, log: log}
}

// Input carries the fields accepted when creating a purchase.
type Input struct {
	InvoiceNumber string     `json:"numero_factura"`
	Supplier      string     `json:"proveedor"`
	PurchaseDate  dates.Date `json:"fecha_compra"`
	RequestedByID string     `json:"solicitado_por_id"`
}

// Create registers a new purchase.
func (s *Service) Create(ctx context.Context, in Input) (purchase.Purchase, error) {
	in.RequestedByID = strings.TrimSpace(in.RequestedByID)
	if in.PurchaseDate.IsZero() {
		return purchase.Purchase{}, fmt.Errorf("fecha_compra is required")
	}
	if in.RequestedByID != "" && s.users != nil {
		if _, err := s.users.GetUser(ctx, in.RequestedByID); err != nil {
			return purchase.Purchase{}, fmt.Errorf("requester validation failed: %w", err)
		}
	}

	created, err := s.store.CreatePurchase(ctx, purchase.Purchase{
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		Supplier:      strings.TrimSpace(in.Supplier),
		PurchaseDate:  in.PurchaseDate,
		RequestedByID: in.RequestedByID,
	})
	if err != nil {
		return purchase.Purchase{}, err
	}
	s.log.WithField("purchase_id", created.ID).Info("purchase created")
	return created, nil
}

// Get fetches a purchase by id.
func (s *Service) Get(ctx context.Context, id string) (purchase.Purchase, error) {
	if strings.TrimSpace(id) == "" {
		return purchase.Purchase{}, fmt.Errorf("purchase id is required")
	}
	return s.store.GetPurchase(ctx, id)
}

// List returns all purchases ordered by date.
func (s *Service) List(ctx context.Context) ([]purchase.Purchase, error) {
	return s.store.ListPurchases(ctx)
}
