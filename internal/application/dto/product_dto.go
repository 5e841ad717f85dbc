package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Unit        string           `json:"unit"`
	BoxCoverage *decimal.Decimal `json:"box_coverage,omitempty"`
	MinStock    decimal.Decimal  `json:"min_stock"`
}

// ProductResponse respuesta de producto.
type ProductResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Unit        string           `json:"unit"`
	BoxCoverage *decimal.Decimal `json:"box_coverage,omitempty"`
	MinStock    decimal.Decimal  `json:"min_stock"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
}
