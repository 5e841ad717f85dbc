package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// MutationUseCase es el único escritor de Lot.Quantity y StockMovement:
// entradas, salidas, ajustes y la conversión de reservas en salidas pasan
// por aquí. Cada operación corre en una transacción con bloqueo de fila
// (SELECT FOR UPDATE) y o escribe cantidad + movimiento juntos, o nada.
//
// Reintentos de StockIn/StockOut/Adjust NO son idempotentes: cada llamada
// agrega un movimiento al libro. El caller debe deduplicar (p. ej. con una
// clave de idempotencia propia). Solo Reserve es seguro de reintentar.
type MutationUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
}

// NewMutationUseCase construye el caso de uso.
func NewMutationUseCase(txRunner TxRunner, productRepo repository.ProductRepository) *MutationUseCase {
	return &MutationUseCase{txRunner: txRunner, productRepo: productRepo}
}

// StockInInput entrada confirmada de stock.
type StockInInput struct {
	ClinicID      string
	UserID        string
	ProductID     string
	LotNumber     string
	Quantity      decimal.Decimal
	Shade         *string
	Caliber       *string
	InvoiceNumber *string
	Supplier      *string
	Reason        string
}

// StockOutInput salida directa de stock. LotID vacío = selección automática
// (lote más antiguo cuyo disponible cubre la cantidad).
type StockOutInput struct {
	ClinicID        string
	UserID          string
	ProductID       string
	LotID           string
	Quantity        decimal.Decimal
	Reason          string
	DestinationType *string
	DestinationName *string
	DocumentID      *string
}

// AdjustInput corrección directa (conteo físico). Delta firmado.
type AdjustInput struct {
	ClinicID  string
	UserID    string
	ProductID string
	LotID     string
	Delta     decimal.Decimal
	Reason    string
}

// StockIn crea o suma sobre un lote (identidad: número de lote + tono +
// calibre) y agrega un movimiento IN. Devuelve el ID del lote afectado.
func (uc *MutationUseCase) StockIn(ctx context.Context, input StockInInput) (string, error) {
	if input.ProductID == "" || input.LotNumber == "" {
		return "", domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return "", domain.ErrInvalidInput
	}
	product, err := uc.requireProduct(input.ClinicID, input.ProductID)
	if err != nil {
		return "", err
	}

	now := time.Now()
	var lotID string
	err = uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		_ repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Upsert por identidad en una sola sentencia: crea el lote o suma
		// sobre el existente con el constraint único como árbitro. Cierra la
		// ventana entre buscar y crear cuando dos entradas de la misma
		// identidad llegan a la vez.
		id, err := lotRepo.UpsertByIdentity(&entity.Lot{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			LotNumber: input.LotNumber,
			Quantity:  input.Quantity,
			Shade:     input.Shade,
			Caliber:   input.Caliber,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		lotID = id

		mov := &entity.StockMovement{
			ID:            uuid.New().String(),
			ClinicID:      input.ClinicID,
			ProductID:     product.ID,
			LotID:         &lotID,
			Type:          entity.MovementTypeIN,
			Quantity:      input.Quantity,
			Reason:        input.Reason,
			InvoiceNumber: input.InvoiceNumber,
			Supplier:      input.Supplier,
			CreatedBy:     input.UserID,
			CreatedAt:     now,
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return "", err
	}
	return lotID, nil
}

// StockOut descuenta cantidad de un lote y agrega un movimiento OUT.
// Revalida cantidad >= solicitado bajo bloqueo: el chequeo de disponible es
// responsabilidad del caller, pero el nivel autoritativo nunca queda negativo.
func (uc *MutationUseCase) StockOut(ctx context.Context, input StockOutInput) (*entity.StockMovement, error) {
	if input.ProductID == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if input.DestinationType != nil && !validDestination(*input.DestinationType) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.requireProduct(input.ClinicID, input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		_ repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		lotID := input.LotID
		if lotID == "" {
			// Selección automática: lote más antiguo cuyo disponible
			// (en mano - reservas activas) cubre la salida completa
			avail, err := lotRepo.ListAvailabilityForUpdate(product.ID)
			if err != nil {
				return err
			}
			for _, la := range avail {
				if la.Available.GreaterThanOrEqual(input.Quantity) {
					lotID = la.LotID
					break
				}
			}
			if lotID == "" {
				return domain.ErrInsufficientStock
			}
		}

		lot, err := lotRepo.GetForUpdate(lotID)
		if err != nil {
			return err
		}
		if lot == nil || lot.ProductID != product.ID {
			return domain.ErrNotFound
		}
		if lot.Quantity.LessThan(input.Quantity) {
			return domain.ErrInsufficientStock
		}
		if err := lotRepo.UpdateQuantity(lot.ID, lot.Quantity.Sub(input.Quantity)); err != nil {
			return err
		}

		mov = &entity.StockMovement{
			ID:              uuid.New().String(),
			ClinicID:        input.ClinicID,
			ProductID:       product.ID,
			LotID:           &lot.ID,
			Type:            entity.MovementTypeOUT,
			Quantity:        input.Quantity.Neg(),
			Reason:          input.Reason,
			DestinationType: input.DestinationType,
			DestinationName: input.DestinationName,
			DocumentID:      input.DocumentID,
			CreatedBy:       input.UserID,
			CreatedAt:       now,
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// Adjust aplica un delta firmado a un lote y agrega un movimiento ADJUST.
// La cantidad puede subir o bajar pero nunca quedar bajo cero.
func (uc *MutationUseCase) Adjust(ctx context.Context, input AdjustInput) (*entity.StockMovement, error) {
	if input.ProductID == "" || input.LotID == "" || input.Delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.requireProduct(input.ClinicID, input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		_ repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		lot, err := lotRepo.GetForUpdate(input.LotID)
		if err != nil {
			return err
		}
		if lot == nil || lot.ProductID != product.ID {
			return domain.ErrNotFound
		}
		newQty := lot.Quantity.Add(input.Delta)
		if newQty.IsNegative() {
			return domain.ErrInsufficientStock
		}
		if err := lotRepo.UpdateQuantity(lot.ID, newQty); err != nil {
			return err
		}

		mov = &entity.StockMovement{
			ID:        uuid.New().String(),
			ClinicID:  input.ClinicID,
			ProductID: product.ID,
			LotID:     &lot.ID,
			Type:      entity.MovementTypeADJUST,
			Quantity:  input.Delta,
			Reason:    input.Reason,
			CreatedBy: input.UserID,
			CreatedAt: now,
		}
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ConfirmReservationInTx convierte una reserva en salida usando los
// repositorios del caller (misma transacción): revalida cantidad bajo
// bloqueo, descuenta el lote y agrega el movimiento OUT referenciando el
// documento. Lo usa ReservationUseCase.Confirm para que toda mutación de
// cantidad siga pasando por este servicio.
func (uc *MutationUseCase) ConfirmReservationInTx(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	res *entity.Reservation,
	userID string,
	now time.Time,
) (*entity.StockMovement, error) {
	lot, err := lotRepo.GetForUpdate(res.LotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	if lot.Quantity.LessThan(res.Quantity) {
		return nil, domain.ErrInsufficientStock
	}
	if err := lotRepo.UpdateQuantity(lot.ID, lot.Quantity.Sub(res.Quantity)); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:         uuid.New().String(),
		ClinicID:   res.ClinicID,
		ProductID:  res.ProductID,
		LotID:      &res.LotID,
		Type:       entity.MovementTypeOUT,
		Quantity:   res.Quantity.Neg(),
		Reason:     "confirmación de documento",
		DocumentID: &res.DocumentID,
		CreatedBy:  userID,
		CreatedAt:  now,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (uc *MutationUseCase) requireProduct(clinicID, productID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.ClinicID != clinicID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func validDestination(t string) bool {
	switch t {
	case entity.DestinationSector, entity.DestinationRoom, entity.DestinationPatient,
		entity.DestinationDiscard, entity.DestinationOther:
		return true
	}
	return false
}
