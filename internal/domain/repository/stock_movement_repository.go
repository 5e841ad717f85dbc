package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// MovementFilter filtros de listado del libro de movimientos.
type MovementFilter struct {
	ProductID string
	Type      string // IN, OUT, ADJUST; vacío = todos
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. Solo inserta y consulta: los movimientos nunca se actualizan
// ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	List(clinicID string, filter MovementFilter) ([]*entity.StockMovement, error)
	// SumByLot devuelve la suma firmada de movimientos del lote
	// (debe reconstruir la cantidad actual del lote).
	SumByLot(lotID string) (decimal.Decimal, error)
}
