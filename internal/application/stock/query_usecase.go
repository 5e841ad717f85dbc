package stock

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// Tipos de alerta de stock.
const (
	AlertLowStock         = "LOW_STOCK"
	AlertMultipleShades   = "MULTIPLE_SHADES"
	AlertMultipleCalibers = "MULTIPLE_CALIBERS"
)

// QueryUseCase consultas de solo lectura sobre el libro de movimientos y los
// balances de lotes (superficie de reportes/listados). Usa repositorios
// atados al pool: no hay mutación por este camino.
type QueryUseCase struct {
	productRepo repository.ProductRepository
	lotRepo     repository.LotRepository
	movRepo     repository.StockMovementRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
) *QueryUseCase {
	return &QueryUseCase{productRepo: productRepo, lotRepo: lotRepo, movRepo: movRepo}
}

// ListMovements lista movimientos con filtros de tipo, producto y fecha.
func (uc *QueryUseCase) ListMovements(ctx context.Context, clinicID string, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.Type != "" {
		switch filter.Type {
		case entity.MovementTypeIN, entity.MovementTypeOUT, entity.MovementTypeADJUST:
		default:
			return nil, domain.ErrInvalidInput
		}
	}
	return uc.movRepo.List(clinicID, filter)
}

// ListLotBalances devuelve los lotes de un producto con reservado y
// disponible calculados, en orden FIFO.
func (uc *QueryUseCase) ListLotBalances(ctx context.Context, clinicID, productID string) ([]*repository.LotBalance, error) {
	if _, err := uc.requireProduct(clinicID, productID); err != nil {
		return nil, err
	}
	return uc.lotRepo.ListBalancesByProduct(productID)
}

// BalanceCheck resultado de verificar un lote contra el libro.
type BalanceCheck struct {
	LotID      string
	Quantity   decimal.Decimal
	LedgerSum  decimal.Decimal
	Consistent bool
}

// VerifyLotBalance compara la cantidad actual del lote con la suma firmada
// de sus movimientos. El libro es la fuente de verdad: si no coinciden hay
// una inconsistencia que investigar.
func (uc *QueryUseCase) VerifyLotBalance(ctx context.Context, clinicID, lotID string) (*BalanceCheck, error) {
	lot, err := uc.lotRepo.GetByID(lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uc.requireProduct(clinicID, lot.ProductID); err != nil {
		return nil, err
	}
	sum, err := uc.movRepo.SumByLot(lotID)
	if err != nil {
		return nil, err
	}
	return &BalanceCheck{
		LotID:      lotID,
		Quantity:   lot.Quantity,
		LedgerSum:  sum,
		Consistent: lot.Quantity.Equal(sum),
	}, nil
}

// StockAlert alerta de stock de un producto.
type StockAlert struct {
	ProductID   string
	ProductName string
	Type        string
	TotalStock  decimal.Decimal
	MinStock    decimal.Decimal
	Variants    []string
}

// StockAlerts recorre los productos activos de la clínica y reporta stock
// bajo mínimo y productos con lotes en múltiples tonos o calibres (el lote a
// despachar deja de ser obvio y el operador debe elegir).
func (uc *QueryUseCase) StockAlerts(ctx context.Context, clinicID string) ([]StockAlert, error) {
	products, err := uc.productRepo.ListByClinic(clinicID, 1000, 0)
	if err != nil {
		return nil, err
	}
	var alerts []StockAlert
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		balances, err := uc.lotRepo.ListBalancesByProduct(p.ID)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		shades := map[string]bool{}
		calibers := map[string]bool{}
		for _, b := range balances {
			if !b.Lot.Quantity.GreaterThan(decimal.Zero) {
				continue
			}
			total = total.Add(b.Lot.Quantity)
			if b.Lot.Shade != nil && *b.Lot.Shade != "" {
				shades[*b.Lot.Shade] = true
			}
			if b.Lot.Caliber != nil && *b.Lot.Caliber != "" {
				calibers[*b.Lot.Caliber] = true
			}
		}
		if total.LessThan(p.MinStock) {
			alerts = append(alerts, StockAlert{
				ProductID: p.ID, ProductName: p.Name,
				Type: AlertLowStock, TotalStock: total, MinStock: p.MinStock,
			})
		}
		if len(shades) > 1 {
			alerts = append(alerts, StockAlert{
				ProductID: p.ID, ProductName: p.Name,
				Type: AlertMultipleShades, TotalStock: total, Variants: keys(shades),
			})
		}
		if len(calibers) > 1 {
			alerts = append(alerts, StockAlert{
				ProductID: p.ID, ProductName: p.Name,
				Type: AlertMultipleCalibers, TotalStock: total, Variants: keys(calibers),
			})
		}
	}
	return alerts, nil
}

func (uc *QueryUseCase) requireProduct(clinicID, productID string) (*entity.Product, error) {
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

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
