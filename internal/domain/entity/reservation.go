package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation representa una retención blanda de cantidad sobre un lote a
// favor de un documento de venta (cotización u orden). Reduce la cantidad
// disponible del lote (quantity - reservas activas) sin tocar Quantity.
// Existe a lo sumo una reserva activa por par (DocumentItemID, LotID):
// re-reservar el mismo par suma sobre la fila existente, nunca duplica.
// Se elimina de forma dura al liberar o al confirmar (no es historia:
// solo los movimientos son permanentes).
type Reservation struct {
	ID             string
	ClinicID       string
	LotID          string
	ProductID      string
	DocumentID     string // cotización u orden
	DocumentItemID string // línea del documento
	Quantity       decimal.Decimal
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// DefaultExpiryDays días de vigencia de una reserva antes de ser candidata
// a liberación por vencimiento (barrido explícito, sin scheduler).
const DefaultExpiryDays = 30
