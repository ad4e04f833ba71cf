package maintenance

import (
	"fmt"
	"time"

	"github.com/assetops/sga/internal/app/domain/dates"
)

// Type categorizes a maintenance intervention.
type Type string

const (
	TypePreventive  Type = "Preventivo"
	TypeCorrective  Type = "Correctivo"
	TypeImprovement Type = "Mejora"
	TypeDiagnostic  Type = "Diagnóstico"
)

// Types lists every valid maintenance type.
func Types() []Type {
	return []Type{TypePreventive, TypeCorrective, TypeImprovement, TypeDiagnostic}
}

// ParseType validates a raw maintenance type string.
func ParseType(raw string) (Type, error) {
	for _, t := range Types() {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown maintenance type %q", raw)
}

// Record documents one maintenance intervention on an asset.
type Record struct {
	ID           string     `json:"id"`
	AssetID      string     `json:"activo_id"`
	Date         dates.Date `json:"fecha_mantenimiento"`
	Type         Type       `json:"tipo_mantenimiento"`
	Description  string     `json:"descripcion"`
	Cost         float64    `json:"costo"`
	TechnicianID string     `json:"realizado_por_id"`
	CreatedAt    time.Time  `json:"created_at"`
}
