package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de la clínica.
// La identidad es inmutable; el stock vive en los lotes, nunca aquí.
type Product struct {
	ID          string
	ClinicID    string
	Name        string
	SKU         string
	Unit        string           // unidad de medida (caja, unidad, ml, ...)
	BoxCoverage *decimal.Decimal // factor de conversión caja -> cobertura (opcional)
	MinStock    decimal.Decimal  // umbral para alertas de reposición
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
