package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa un lote físico de un producto: cantidad en mano con
// identidad propia (número de lote, tono y calibre opcionales).
// Solo el servicio de mutación de stock modifica Quantity. Los lotes nunca
// se borran: la cantidad puede llegar a cero y quedar como historia.
// CreatedAt define el orden FIFO de asignación.
type Lot struct {
	ID        string
	ProductID string
	LotNumber string
	Quantity  decimal.Decimal
	Shade     *string // tono (opcional)
	Caliber   *string // calibre (opcional)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SameIdentity indica si el lote corresponde a la misma identidad física
// (número de lote + tono + calibre). Las entradas de stock suman sobre un
// lote existente solo si la identidad completa coincide.
func (l *Lot) SameIdentity(lotNumber string, shade, caliber *string) bool {
	return l.LotNumber == lotNumber && eqOpt(l.Shade, shade) && eqOpt(l.Caliber, caliber)
}

func eqOpt(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
