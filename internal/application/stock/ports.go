package stock

import (
	"context"

	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la frontera transaccional del motor:
// toda operación que cambia estado (reserve, release, confirm, stockIn,
// stockOut, adjust) corre completa dentro de un Run.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		resRepo repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}
