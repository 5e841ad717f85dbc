package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntryRequest body para POST /api/stock/entries (entrada confirmada).
type StockEntryRequest struct {
	ProductID     string          `json:"product_id"`
	LotNumber     string          `json:"lot_number"`
	Quantity      decimal.Decimal `json:"quantity"`
	Shade         *string         `json:"shade,omitempty"`
	Caliber       *string         `json:"caliber,omitempty"`
	InvoiceNumber *string         `json:"invoice_number,omitempty"`
	Supplier      *string         `json:"supplier,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// StockExitRequest body para POST /api/stock/exits (salida directa).
// LotID vacío = selección automática del lote más antiguo con disponible.
type StockExitRequest struct {
	ProductID       string          `json:"product_id"`
	LotID           string          `json:"lot_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason,omitempty"`
	DestinationType *string         `json:"destination_type,omitempty"`
	DestinationName *string         `json:"destination_name,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjustments (corrección directa).
type AdjustStockRequest struct {
	ProductID string          `json:"product_id"`
	LotID     string          `json:"lot_id"`
	Delta     decimal.Decimal `json:"delta"` // firmado
	Reason    string          `json:"reason"`
}

// MovementResponse una fila del libro de movimientos.
type MovementResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	LotID           *string         `json:"lot_id,omitempty"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason,omitempty"`
	InvoiceNumber   *string         `json:"invoice_number,omitempty"`
	Supplier        *string         `json:"supplier,omitempty"`
	DestinationType *string         `json:"destination_type,omitempty"`
	DestinationName *string         `json:"destination_name,omitempty"`
	DocumentID      *string         `json:"document_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LotBalanceResponse balance de un lote: en mano, reservado y disponible.
type LotBalanceResponse struct {
	LotID     string          `json:"lot_id"`
	LotNumber string          `json:"lot_number"`
	Shade     *string         `json:"shade,omitempty"`
	Caliber   *string         `json:"caliber,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}

// BalanceCheckResponse verificación libro vs cantidad del lote.
type BalanceCheckResponse struct {
	LotID      string          `json:"lot_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Consistent bool            `json:"consistent"`
}

// StockAlertResponse alerta de stock: bajo mínimo o variantes múltiples.
type StockAlertResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Type        string          `json:"type"` // LOW_STOCK, MULTIPLE_SHADES, MULTIPLE_CALIBERS
	TotalStock  decimal.Decimal `json:"total_stock"`
	MinStock    decimal.Decimal `json:"min_stock,omitempty"`
	Variants    []string        `json:"variants,omitempty"`
}
