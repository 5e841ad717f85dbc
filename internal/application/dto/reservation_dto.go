package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	DocumentID     string          `json:"document_id"`
	DocumentItemID string          `json:"document_item_id"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	PreferredLotID string          `json:"preferred_lot_id,omitempty"`
}

// AllocationEntryDTO una línea del plan de asignación.
type AllocationEntryDTO struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReservationResultResponse resultado de una reserva. Shortfall > 0 no es un
// error: es una advertencia estructurada que el caller debe inspeccionar.
type ReservationResultResponse struct {
	DocumentID      string               `json:"document_id"`
	DocumentItemID  string               `json:"document_item_id"`
	ProductID       string               `json:"product_id"`
	Requested       decimal.Decimal      `json:"requested"`
	AlreadyReserved decimal.Decimal      `json:"already_reserved"`
	NewlyReserved   decimal.Decimal      `json:"newly_reserved"`
	Shortfall       decimal.Decimal      `json:"shortfall"`
	Allocations     []AllocationEntryDTO `json:"allocations"`
}

// ReservationResponse una reserva activa.
type ReservationResponse struct {
	ID             string          `json:"id"`
	LotID          string          `json:"lot_id"`
	ProductID      string          `json:"product_id"`
	DocumentID     string          `json:"document_id"`
	DocumentItemID string          `json:"document_item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpiresAt      time.Time       `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
}
