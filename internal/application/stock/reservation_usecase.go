package stock

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/allocation"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// ReservationUseCase gestiona las reservas de stock contra documentos de
// venta: reservar (idempotente por línea de documento), liberar y confirmar
// (convertir en salidas de libro). La asignación por lotes la decide la
// política pura de allocation; la conversión a salidas pasa por
// MutationUseCase, único escritor de cantidades.
type ReservationUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	mutation    *MutationUseCase
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(txRunner TxRunner, productRepo repository.ProductRepository, mutation *MutationUseCase) *ReservationUseCase {
	return &ReservationUseCase{txRunner: txRunner, productRepo: productRepo, mutation: mutation}
}

// ReserveInput petición de reserva de una línea de documento.
type ReserveInput struct {
	ClinicID       string
	DocumentID     string
	DocumentItemID string
	ProductID      string
	Quantity       decimal.Decimal
	PreferredLotID string
}

// ReservationResult resultado de Reserve. NewlyReserved = 0 señala el camino
// idempotente (la línea ya estaba cubierta); Shortfall > 0 es una advertencia
// estructurada, nunca un error: el caller decide aceptar parcial, dividir la
// línea o rechazar.
type ReservationResult struct {
	DocumentID      string
	DocumentItemID  string
	ProductID       string
	Requested       decimal.Decimal
	AlreadyReserved decimal.Decimal
	NewlyReserved   decimal.Decimal
	Shortfall       decimal.Decimal
	Allocations     []allocation.Entry // estado final por lote, orden estable
}

// Reserve reserva cantidad para una línea de documento. Idempotente por
// DocumentItemID: si las reservas activas ya cubren lo solicitado devuelve
// la asignación existente con NewlyReserved = 0; si cubren parte (p. ej. la
// cantidad pedida subió), solo planifica y reserva el delta.
func (uc *ReservationUseCase) Reserve(ctx context.Context, input ReserveInput) (*ReservationResult, error) {
	if input.DocumentID == "" || input.DocumentItemID == "" || input.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.requireProduct(input.ClinicID, input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var result *ReservationResult
	err = uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		resRepo repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Bloquea los lotes del producto primero: serializa reservas
		// concurrentes y congela la disponibilidad que verá la política
		availability, err := lotRepo.ListAvailabilityForUpdate(product.ID)
		if err != nil {
			return err
		}

		existing, err := resRepo.ListByDocumentItem(input.DocumentItemID)
		if err != nil {
			return err
		}
		alreadyReserved := decimal.Zero
		for _, r := range existing {
			alreadyReserved = alreadyReserved.Add(r.Quantity)
		}

		result = &ReservationResult{
			DocumentID:      input.DocumentID,
			DocumentItemID:  input.DocumentItemID,
			ProductID:       product.ID,
			Requested:       input.Quantity,
			AlreadyReserved: alreadyReserved,
			NewlyReserved:   decimal.Zero,
			Shortfall:       decimal.Zero,
		}

		// Camino idempotente: la línea ya está cubierta, no se reserva nada
		if alreadyReserved.GreaterThanOrEqual(input.Quantity) {
			result.Allocations = allocationsFrom(existing, nil)
			return nil
		}

		delta := input.Quantity.Sub(alreadyReserved)
		plan := allocation.Compute(availability, delta, input.PreferredLotID)

		for _, e := range plan.Entries {
			res := &entity.Reservation{
				ID:             uuid.New().String(),
				ClinicID:       input.ClinicID,
				LotID:          e.LotID,
				ProductID:      product.ID,
				DocumentID:     input.DocumentID,
				DocumentItemID: input.DocumentItemID,
				Quantity:       e.Quantity,
				ExpiresAt:      now.AddDate(0, 0, entity.DefaultExpiryDays),
				CreatedAt:      now,
			}
			if err := resRepo.Upsert(res); err != nil {
				return err
			}
		}

		result.NewlyReserved = plan.Allocated
		result.Shortfall = plan.Shortfall
		result.Allocations = allocationsFrom(existing, plan.Entries)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Release libera las reservas activas de un documento (o de una sola línea
// si documentItemID no está vacío). Operación de metadatos, sin efecto en el
// libro; todo-o-nada dentro de una transacción. Devuelve cuántas se liberaron.
func (uc *ReservationUseCase) Release(ctx context.Context, clinicID, documentID, documentItemID string) (int64, error) {
	if documentID == "" {
		return 0, domain.ErrInvalidInput
	}
	var released int64
	err := uc.txRunner.Run(ctx, func(
		_ repository.LotRepository,
		resRepo repository.ReservationRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		if documentItemID != "" {
			released, err = resRepo.DeleteByDocumentItem(documentID, documentItemID)
		} else {
			released, err = resRepo.DeleteByDocument(documentID)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// Confirm convierte todas las reservas activas del documento en salidas del
// libro: por cada reserva descuenta el lote exacto y elimina la reserva.
// Atómico por documento: si una conversión falla, ninguna queda aplicada.
func (uc *ReservationUseCase) Confirm(ctx context.Context, clinicID, userID, documentID string) ([]*entity.StockMovement, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var movements []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		resRepo repository.ReservationRepository,
		movRepo repository.StockMovementRepository,
	) error {
		reservations, err := resRepo.ListByDocument(documentID)
		if err != nil {
			return err
		}
		// Bloquea los lotes de cada producto del documento con la misma
		// consulta (y el mismo orden FIFO) que usa Reserve: una reserva y
		// una confirmación concurrentes sobre el mismo producto toman los
		// bloqueos en idéntica secuencia y no pueden cruzarse.
		for _, productID := range productIDsOf(reservations) {
			if _, err := lotRepo.ListAvailabilityForUpdate(productID); err != nil {
				return err
			}
		}
		// Orden estable de procesamiento (los bloqueos ya están tomados)
		sort.Slice(reservations, func(i, j int) bool {
			if reservations[i].LotID != reservations[j].LotID {
				return reservations[i].LotID < reservations[j].LotID
			}
			return reservations[i].ID < reservations[j].ID
		})
		for _, res := range reservations {
			if res.ClinicID != clinicID {
				return domain.ErrForbidden
			}
			mov, err := uc.mutation.ConfirmReservationInTx(lotRepo, movRepo, res, userID, now)
			if err != nil {
				return err
			}
			if err := resRepo.Delete(res.ID); err != nil {
				return err
			}
			movements = append(movements, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// ListByDocument devuelve las reservas activas de un documento.
func (uc *ReservationUseCase) ListByDocument(ctx context.Context, clinicID, documentID string) ([]*entity.Reservation, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []*entity.Reservation
	err := uc.txRunner.Run(ctx, func(
		_ repository.LotRepository,
		resRepo repository.ReservationRepository,
		_ repository.StockMovementRepository,
	) error {
		reservations, err := resRepo.ListByDocument(documentID)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if r.ClinicID == clinicID {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseExpired libera las reservas vencidas de la clínica (barrido
// explícito vía endpoint; el motor no corre schedulers).
func (uc *ReservationUseCase) ReleaseExpired(ctx context.Context, clinicID string, now time.Time) (int64, error) {
	var released int64
	err := uc.txRunner.Run(ctx, func(
		_ repository.LotRepository,
		resRepo repository.ReservationRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		released, err = resRepo.DeleteExpired(clinicID, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

func (uc *ReservationUseCase) requireProduct(clinicID, productID string) (*entity.Product, error) {
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

// productIDsOf devuelve los productos distintos de las reservas, ordenados.
func productIDsOf(reservations []*entity.Reservation) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range reservations {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			out = append(out, r.ProductID)
		}
	}
	sort.Strings(out)
	return out
}

// allocationsFrom combina reservas existentes y entradas nuevas del plan en
// una asignación por lote, sumando cantidades y con orden estable por LotID.
func allocationsFrom(existing []*entity.Reservation, planned []allocation.Entry) []allocation.Entry {
	byLot := map[string]decimal.Decimal{}
	for _, r := range existing {
		byLot[r.LotID] = byLot[r.LotID].Add(r.Quantity)
	}
	for _, e := range planned {
		byLot[e.LotID] = byLot[e.LotID].Add(e.Quantity)
	}
	lotIDs := make([]string, 0, len(byLot))
	for lotID := range byLot {
		lotIDs = append(lotIDs, lotID)
	}
	sort.Strings(lotIDs)
	out := make([]allocation.Entry, 0, len(lotIDs))
	for _, lotID := range lotIDs {
		out = append(out, allocation.Entry{LotID: lotID, Quantity: byLot[lotID]})
	}
	return out
}
