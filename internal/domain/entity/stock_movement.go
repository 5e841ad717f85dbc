package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeIN     = "IN"     // entrada
	MovementTypeOUT    = "OUT"    // salida
	MovementTypeADJUST = "ADJUST" // ajuste (conteo físico, corrección)
)

// Destinos de salida (registrados como metadatos, el motor no los interpreta).
const (
	DestinationSector  = "SECTOR_REQUEST"
	DestinationRoom    = "ROOM"
	DestinationPatient = "PATIENT"
	DestinationDiscard = "DISCARD"
	DestinationOther   = "OTHER"
)

// StockMovement representa un movimiento del libro de stock: registro
// inmutable de cada cambio de cantidad. Es la fuente de verdad: la suma de
// movimientos firmados de un lote debe reconstruir su cantidad actual.
// Solo se inserta; nunca se actualiza ni se borra.
type StockMovement struct {
	ID              string
	ClinicID        string
	ProductID       string
	LotID           *string         // nulo en ajustes a nivel producto sin detalle de lote
	Type            string          // IN, OUT, ADJUST
	Quantity        decimal.Decimal // firmada: positiva IN/ajuste+, negativa OUT/ajuste-
	Reason          string
	InvoiceNumber   *string // entradas por factura
	Supplier        *string
	DestinationType *string // salidas: SECTOR_REQUEST, ROOM, PATIENT, DISCARD, OTHER
	DestinationName *string
	DocumentID      *string // orden confirmada que originó la salida
	CreatedBy       string  // UserID
	CreatedAt       time.Time
}
