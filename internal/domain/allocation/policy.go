package allocation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LotAvailability es la vista de un lote que necesita la política de
// asignación: cantidad disponible (en mano menos reservas activas) y fecha
// de creación para el orden FIFO. La construye el repositorio dentro de la
// transacción, de modo que reservas de la misma tx ya estén descontadas.
type LotAvailability struct {
	LotID     string
	CreatedAt time.Time
	Available decimal.Decimal
}

// Entry es una línea del plan: cuánta cantidad tomar de qué lote.
type Entry struct {
	LotID    string
	Quantity decimal.Decimal
}

// Plan es el resultado de la política: lista ordenada de (lote, cantidad)
// más el faltante. La política nunca falla por stock insuficiente: reporta
// Shortfall > 0 y el caller decide (aceptar parcial, dividir la línea del
// documento o rechazar).
type Plan struct {
	Entries   []Entry
	Requested decimal.Decimal
	Allocated decimal.Decimal
	Shortfall decimal.Decimal
}

// Covered indica si el plan cubre la cantidad solicitada completa.
func (p Plan) Covered() bool {
	return p.Shortfall.IsZero()
}

// Compute produce el plan de asignación para una cantidad solicitada:
//
//  1. Si hay lote preferido con disponible > 0, toma de él primero
//     (hasta min(solicitado, disponible)).
//  2. El resto se cubre con los demás lotes en orden CreatedAt ascendente;
//     empate de fecha se desempata por LotID para que el resultado sea
//     determinista.
//  3. Se detiene al cubrir lo solicitado o al agotar los lotes.
//
// Función pura: no toca I/O y no muta la entrada.
func Compute(lots []LotAvailability, requested decimal.Decimal, preferredLotID string) Plan {
	plan := Plan{Requested: requested, Allocated: decimal.Zero, Shortfall: requested}
	if requested.LessThanOrEqual(decimal.Zero) {
		plan.Shortfall = decimal.Zero
		return plan
	}

	ordered := make([]LotAvailability, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].LotID < ordered[j].LotID
	})

	remaining := requested

	take := func(lot LotAvailability) {
		if remaining.LessThanOrEqual(decimal.Zero) || lot.Available.LessThanOrEqual(decimal.Zero) {
			return
		}
		qty := decimal.Min(remaining, lot.Available)
		plan.Entries = append(plan.Entries, Entry{LotID: lot.LotID, Quantity: qty})
		plan.Allocated = plan.Allocated.Add(qty)
		remaining = remaining.Sub(qty)
	}

	// Lote preferido primero, si existe y tiene disponible
	if preferredLotID != "" {
		for _, lot := range ordered {
			if lot.LotID == preferredLotID {
				take(lot)
				break
			}
		}
	}

	// Resto en orden FIFO, saltando el preferido ya consumido
	for _, lot := range ordered {
		if lot.LotID == preferredLotID {
			continue
		}
		take(lot)
	}

	plan.Shortfall = remaining
	return plan
}
