package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/application/stock"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// StockHandler maneja las peticiones HTTP de entradas, salidas, ajustes y
// consultas de stock (protegido).
type StockHandler struct {
	mutation *stock.MutationUseCase
	query    *stock.QueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(mutation *stock.MutationUseCase, query *stock.QueryUseCase) *StockHandler {
	return &StockHandler{mutation: mutation, query: query}
}

// StockIn registra una entrada confirmada de stock (crea o suma sobre un lote).
// POST /api/stock/entries
func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	clinicID, userID := GetClinicID(c), GetUserID(c)
	if clinicID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.StockEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lotID, err := h.mutation.StockIn(c.Context(), stock.StockInInput{
		ClinicID:      clinicID,
		UserID:        userID,
		ProductID:     in.ProductID,
		LotNumber:     in.LotNumber,
		Quantity:      in.Quantity,
		Shade:         in.Shade,
		Caliber:       in.Caliber,
		InvoiceNumber: in.InvoiceNumber,
		Supplier:      in.Supplier,
		Reason:        in.Reason,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lot_id": lotID})
}

// StockOut registra una salida directa (sector, sala, paciente, descarte...).
// POST /api/stock/exits
func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	clinicID, userID := GetClinicID(c), GetUserID(c)
	if clinicID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.StockExitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.mutation.StockOut(c.Context(), stock.StockOutInput{
		ClinicID:        clinicID,
		UserID:          userID,
		ProductID:       in.ProductID,
		LotID:           in.LotID,
		Quantity:        in.Quantity,
		Reason:          in.Reason,
		DestinationType: in.DestinationType,
		DestinationName: in.DestinationName,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Adjust registra una corrección directa de cantidad (conteo físico).
// POST /api/stock/adjustments
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	clinicID, userID := GetClinicID(c), GetUserID(c)
	if clinicID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.mutation.Adjust(c.Context(), stock.AdjustInput{
		ClinicID:  clinicID,
		UserID:    userID,
		ProductID: in.ProductID,
		LotID:     in.LotID,
		Delta:     in.Delta,
		Reason:    in.Reason,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ListMovements lista el libro de movimientos con filtros.
// GET /api/stock/movements?product_id=&type=&from=&to=&limit=&offset=
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha 'from' inválida (RFC3339)"})
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha 'to' inválida (RFC3339)"})
		}
		filter.To = &t
	}

	movements, err := h.query.ListMovements(c.Context(), clinicID, filter)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]*dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ListLots lista los lotes de un producto con reservado y disponible.
// GET /api/products/:id/lots
func (h *StockHandler) ListLots(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	balances, err := h.query.ListLotBalances(c.Context(), clinicID, c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]*dto.LotBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, &dto.LotBalanceResponse{
			LotID:     b.Lot.ID,
			LotNumber: b.Lot.LotNumber,
			Shade:     b.Lot.Shade,
			Caliber:   b.Lot.Caliber,
			Quantity:  b.Lot.Quantity,
			Reserved:  b.Reserved,
			Available: b.Available,
			CreatedAt: b.Lot.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "lots": out})
}

// BalanceCheck verifica la cantidad de un lote contra la suma del libro.
// GET /api/stock/lots/:id/balance-check
func (h *StockHandler) BalanceCheck(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	check, err := h.query.VerifyLotBalance(c.Context(), clinicID, c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.BalanceCheckResponse{
		LotID:      check.LotID,
		Quantity:   check.Quantity,
		LedgerSum:  check.LedgerSum,
		Consistent: check.Consistent,
	})
}

// Alerts lista alertas de stock: bajo mínimo y variantes múltiples.
// GET /api/stock/alerts
func (h *StockHandler) Alerts(c *fiber.Ctx) error {
	clinicID := GetClinicID(c)
	if clinicID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	alerts, err := h.query.StockAlerts(c.Context(), clinicID)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]*dto.StockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, &dto.StockAlertResponse{
			ProductID:   a.ProductID,
			ProductName: a.ProductName,
			Type:        a.Type,
			TotalStock:  a.TotalStock,
			MinStock:    a.MinStock,
			Variants:    a.Variants,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "alerts": out})
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		LotID:           m.LotID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		Reason:          m.Reason,
		InvoiceNumber:   m.InvoiceNumber,
		Supplier:        m.Supplier,
		DestinationType: m.DestinationType,
		DestinationName: m.DestinationName,
		DocumentID:      m.DocumentID,
		CreatedAt:       m.CreatedAt,
	}
}
