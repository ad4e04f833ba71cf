package audit

import (
	"fmt"
	"time"
)

// Status tracks an audit through its lifecycle.
type Status string

const (
	StatusInProgress Status = "En Progreso"
	StatusCompleted  Status = "Completada"
	StatusCancelled  Status = "Cancelada"
)

// ScanResult classifies the outcome of scanning one asset during an audit.
type ScanResult string

const (
	ScanOK            ScanResult = "OK"
	ScanWrongLocation ScanResult = "Ubicación Incorrecta"
	ScanNotFound      ScanResult = "No Encontrado"
	ScanUnknownAsset  ScanResult = "Activo Desconocido"
)

// ParseStatus validates a raw audit status string.
func ParseStatus(raw string) (Status, error) {
	for _, s := range []Status{StatusInProgress, StatusCompleted, StatusCancelled} {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown audit status %q", raw)
}

// Audit is a physical verification pass over one location.
type Audit struct {
	ID         string     `json:"id"`
	LocationID string     `json:"ubicacion_auditada_id"`
	AuditorID  string     `json:"auditor_id"`
	StartedAt  time.Time  `json:"fecha_inicio"`
	FinishedAt *time.Time `json:"fecha_fin,omitempty"`
	Status     Status     `json:"status"`
	Summary    string     `json:"resumen,omitempty"`
}

// Scan records the verification of one asset within an audit. AssetID is
// empty when an unknown code was scanned; AssetCode always carries the code
// as presented to the scanner.
type Scan struct {
	ID        string     `json:"id"`
	AuditID   string     `json:"auditoria_id"`
	AssetID   string     `json:"activo_id,omitempty"`
	AssetCode string     `json:"codigo_activo"`
	Result    ScanResult `json:"resultado"`
	ScannedAt time.Time  `json:"timestamp_scan"`
	Note      string     `json:"nota,omitempty"`
}

// Filter selects audit listings.
type Filter struct {
	LocationID string
	Status     Status
}
