package repository

import "github.com/jhoicas/lotes-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByClinicAndSKU(clinicID, sku string) (*entity.Product, error)
	ListByClinic(clinicID string, limit, offset int) ([]*entity.Product, error)
}
