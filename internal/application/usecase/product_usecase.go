package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock vive en los
// lotes y se maneja vía movimientos, nunca aquí.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto.
func (uc *ProductUseCase) Create(clinicID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.Name == "" || in.SKU == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByClinicAndSKU(clinicID, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.Unit == "" {
		in.Unit = "unidad"
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		ClinicID:    clinicID,
		Name:        in.Name,
		SKU:         in.SKU,
		Unit:        in.Unit,
		BoxCoverage: in.BoxCoverage,
		MinStock:    in.MinStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto validando la clínica.
func (uc *ProductUseCase) GetByID(clinicID, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.ClinicID != clinicID {
		return nil, domain.ErrForbidden
	}
	return toProductResponse(product), nil
}

// List lista los productos de la clínica.
func (uc *ProductUseCase) List(clinicID string, page dto.PageRequest) ([]*dto.ProductResponse, error) {
	page.DefaultPage()
	products, err := uc.repo.ListByClinic(clinicID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Unit:        p.Unit,
		BoxCoverage: p.BoxCoverage,
		MinStock:    p.MinStock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}
