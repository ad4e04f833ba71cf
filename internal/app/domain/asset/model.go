package asset

import (
	"fmt"
	"time"

	"github.com/assetops/sga/internal/app/domain/dates"
)

// Status tracks an asset through its lifecycle. Values match the wire format
// printed on existing labels and consumed by the mobile pages.
type Status string

const (
	StatusInStorage Status = "En Bodega"
	StatusActive    Status = "Activo"
	StatusInRepair  Status = "En Reparación"
	StatusOnLoan    Status = "En Préstamo"
	StatusRetired   Status = "Dado de Baja"
)

// Statuses lists every valid asset status.
func Statuses() []Status {
	return []Status{StatusInStorage, StatusActive, StatusInRepair, StatusOnLoan, StatusRetired}
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses() {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown asset status %q", raw)
}

// Asset is a tracked physical item. Code is the stable business key encoded
// into the QR label; ID is the storage identifier.
type Asset struct {
	ID               string     `json:"id"`
	Code             string     `json:"codigo_activo"`
	Name             string     `json:"nombre_activo"`
	Description      string     `json:"descripcion,omitempty"`
	Brand            string     `json:"marca,omitempty"`
	Model            string     `json:"modelo,omitempty"`
	SerialNumber     string     `json:"numero_serie,omitempty"`
	Status           Status     `json:"status"`
	AcquiredAt       dates.Date `json:"fecha_adquisicion"`
	Cost             float64    `json:"costo_adquisicion"`
	UsefulLifeMonths int        `json:"vida_util_meses"`
	ResidualValue    float64    `json:"valor_residual"`
	QRURL            string     `json:"qr_url,omitempty"`
	LocationID       string     `json:"ubicacion_id,omitempty"`
	AssigneeID       string     `json:"usuario_asignado_id,omitempty"`
	PurchaseID       string     `json:"compra_id,omitempty"`
	LastAuditAt      *time.Time `json:"ultima_auditoria_fecha,omitempty"`
	LastAuditByID    string     `json:"ultima_auditoria_por_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BookValue computes the straight-line depreciated value of the asset at a
// point in time. The value never drops below the residual value.
func (a Asset) BookValue(at time.Time) float64 {
	if a.UsefulLifeMonths <= 0 || at.Before(a.AcquiredAt.Time) {
		return a.Cost
	}
	months := int(at.Sub(a.AcquiredAt.Time).Hours() / (24 * 30))
	if months >= a.UsefulLifeMonths {
		return a.ResidualValue
	}
	depreciable := a.Cost - a.ResidualValue
	value := a.Cost - depreciable*float64(months)/float64(a.UsefulLifeMonths)
	if value < a.ResidualValue {
		return a.ResidualValue
	}
	return value
}

// Movement is an append-only history entry recorded when a tracked field of
// an asset changes.
type Movement struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"activo_id"`
	UserID    string    `json:"usuario_id,omitempty"`
	ChangedAt time.Time `json:"fecha_cambio"`
	Field     string    `json:"campo_modificado"`
	OldValue  string    `json:"valor_anterior,omitempty"`
	NewValue  string    `json:"valor_nuevo,omitempty"`
	Note      string    `json:"nota,omitempty"`
}

// Stats aggregates fleet-wide counters for the dashboard.
type Stats struct {
	Total      int            `json:"total_activos"`
	ByStatus   map[Status]int `json:"activos_por_status"`
	Unlocated  int            `json:"activos_sin_ubicacion"`
	Unassigned int            `json:"activos_sin_asignar"`
}

// Filter selects and pages asset listings.
type Filter struct {
	Search  string
	Status  Status
	Page    int
	PerPage int
}
