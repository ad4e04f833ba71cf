package purchase

import (
	"time"

	"github.com/assetops/sga/internal/app/domain/dates"
)

// Purchase records how a batch of assets entered the inventory.
type Purchase struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"numero_factura,omitempty"`
	Supplier      string     `json:"proveedor,omitempty"`
	PurchaseDate  dates.Date `json:"fecha_compra"`
	RequestedByID string     `json:"solicitado_por_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
