package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/stock"
)

// ReservationHandler maneja las peticiones HTTP de reservas de stock
// contra documentos de venta (protegido).
type ReservationHandler struct {
	uc *stock.ReservationUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *stock.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Reserve reserva cantidad para una línea de documento. Idempotente por
// document_item_id; shortfall > 0 en la respuesta es advertencia, no error.
// POST /api/reservations
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.uc.Reserve(c.Context(), stock.ReserveInput{
		ClinicID:       clinicID,
		DocumentID:     in.DocumentID,
		DocumentItemID: in.DocumentItemID,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		PreferredLotID: in.PreferredLotID,
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	allocations := make([]dto.AllocationEntryDTO, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		allocations = append(allocations, dto.AllocationEntryDTO{LotID: a.LotID, Quantity: a.Quantity})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReservationResultResponse{
		DocumentID:      result.DocumentID,
		DocumentItemID:  result.DocumentItemID,
		ProductID:       result.ProductID,
		Requested:       result.Requested,
		AlreadyReserved: result.AlreadyReserved,
		NewlyReserved:   result.NewlyReserved,
		Shortfall:       result.Shortfall,
		Allocations:     allocations,
	})
}

// ListByDocument lista las reservas activas de un documento.
// GET /api/reservations/documents/:documentId
func (h *ReservationHandler) ListByDocument(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	reservations, err := h.uc.ListByDocument(c.Context(), clinicID, c.Params("documentId"))
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]*dto.ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, &dto.ReservationResponse{
			ID:             r.ID,
			LotID:          r.LotID,
			ProductID:      r.ProductID,
			DocumentID:     r.DocumentID,
			DocumentItemID: r.DocumentItemID,
			Quantity:       r.Quantity,
			ExpiresAt:      r.ExpiresAt,
			CreatedAt:      r.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "reservations": out})
}

// Release libera las reservas de un documento (o de una línea con ?document_item_id=).
// Operación de metadatos, sin efecto en el libro.
// DELETE /api/reservations/documents/:documentId
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	released, err := h.uc.Release(c.Context(), clinicID, c.Params("documentId"), c.Query("document_item_id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"released": released})
}

// Confirm convierte las reservas del documento en salidas del libro
// (atómico: todas o ninguna).
// POST /api/reservations/documents/:documentId/confirm
func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	clinicID, userID := GetClinicID(c), GetUserID(c)
	if clinicID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	movements, err := h.uc.Confirm(c.Context(), clinicID, userID, c.Params("documentId"))
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]*dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// Expire libera las reservas vencidas de la clínica (barrido explícito).
// POST /api/reservations/expire
func (h *ReservationHandler) Expire(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	released, err := h.uc.ReleaseExpired(c.Context(), clinicID, time.Now())
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"released": released})
}
