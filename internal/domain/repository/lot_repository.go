package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/allocation"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// LotBalance es la vista de lectura de un lote con su cantidad reservada
// y disponible ya calculadas (quantity - reservas activas).
type LotBalance struct {
	Lot       entity.Lot
	Reserved  decimal.Decimal
	Available decimal.Decimal
}

// LotRepository define el puerto de persistencia para lotes.
// Las variantes ForUpdate bloquean filas (SELECT FOR UPDATE) y solo tienen
// sentido dentro de una transacción; la disponibilidad se calcula con una
// consulta explícita sobre reservas activas, nunca por carga implícita de
// relaciones, de modo que lecturas en la misma tx vean reservas de la misma tx.
type LotRepository interface {
	// UpsertByIdentity crea el lote o, si ya existe uno con la misma identidad
	// física (producto + número de lote + tono + calibre), suma la cantidad
	// sobre la fila existente bajo bloqueo. Una sola sentencia con el
	// constraint de identidad como árbitro: dos entradas simultáneas de una
	// identidad aún inexistente nunca producen dos lotes. Devuelve el ID del
	// lote afectado.
	UpsertByIdentity(lot *entity.Lot) (string, error)
	GetByID(id string) (*entity.Lot, error)
	// ListByProduct devuelve los lotes del producto en orden created_at ASC, id ASC (orden FIFO).
	ListByProduct(productID string) ([]*entity.Lot, error)
	// ListBalancesByProduct devuelve los lotes con reservado/disponible calculados.
	ListBalancesByProduct(productID string) ([]*LotBalance, error)

	// GetForUpdate bloquea y devuelve un lote por ID.
	GetForUpdate(id string) (*entity.Lot, error)
	// ListAvailabilityForUpdate bloquea todos los lotes del producto y devuelve
	// su disponibilidad (entrada de la política de asignación).
	ListAvailabilityForUpdate(productID string) ([]allocation.LotAvailability, error)
	// UpdateQuantity persiste la nueva cantidad del lote.
	UpdateQuantity(lotID string, quantity decimal.Decimal) error
}
