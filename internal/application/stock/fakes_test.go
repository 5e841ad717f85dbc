package stock_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/application/stock"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/domain/allocation"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria para los casos de uso de stock.
//
// memStore guarda el estado compartido; los repos fake operan sobre él y el
// fakeTxRunner toma un snapshot antes de cada transacción y lo restaura si la
// función devuelve error, imitando el rollback de Postgres. Eso permite probar
// la atomicidad (confirmación parcial que falla no deja rastro) sin base de
// datos real.
// ──────────────────────────────────────────────────────────────────────────────

var errMovimientoInyectado = errors.New("fallo inyectado al escribir movimiento")

type memStore struct {
	products     map[string]*entity.Product
	lots         map[string]*entity.Lot
	reservations map[string]*entity.Reservation
	movements    []*entity.StockMovement

	// failMovementAt > 0 hace fallar la N-ésima llamada a movRepo.Create
	// (contada desde la creación del store), para tests de atomicidad.
	failMovementAt  int
	movementCreates int

	// productErr, si está seteado, hace fallar productRepo.GetByID
	// (simula una caída del store).
	productErr error
}

func newMemStore() *memStore {
	return &memStore{
		products:     map[string]*entity.Product{},
		lots:         map[string]*entity.Lot{},
		reservations: map[string]*entity.Reservation{},
	}
}

type memSnapshot struct {
	products     map[string]*entity.Product
	lots         map[string]*entity.Lot
	reservations map[string]*entity.Reservation
	movements    []*entity.StockMovement
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		products:     make(map[string]*entity.Product, len(s.products)),
		lots:         make(map[string]*entity.Lot, len(s.lots)),
		reservations: make(map[string]*entity.Reservation, len(s.reservations)),
		movements:    append([]*entity.StockMovement(nil), s.movements...),
	}
	for id, p := range s.products {
		c := *p
		snap.products[id] = &c
	}
	for id, l := range s.lots {
		c := *l
		snap.lots[id] = &c
	}
	for id, r := range s.reservations {
		c := *r
		snap.reservations[id] = &c
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = snap.products
	s.lots = snap.lots
	s.reservations = snap.reservations
	s.movements = snap.movements
}

// reservedByLot suma las reservas activas por lote.
func (s *memStore) reservedByLot(lotID string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.reservations {
		if r.LotID == lotID {
			total = total.Add(r.Quantity)
		}
	}
	return total
}

// lotsFIFO devuelve los lotes del producto en orden created_at ASC, id ASC.
func (s *memStore) lotsFIFO(productID string) []*entity.Lot {
	out := make([]*entity.Lot, 0)
	for _, l := range s.lots {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ── fakeTxRunner ─────────────────────────────────────────────────────────────

type fakeTxRunner struct {
	store *memStore
}

func (r *fakeTxRunner) Run(
	_ context.Context,
	fn func(repository.LotRepository, repository.ReservationRepository, repository.StockMovementRepository) error,
) error {
	snap := r.store.snapshot()
	err := fn(&memLotRepo{r.store}, &memReservationRepo{r.store}, &memMovementRepo{r.store})
	if err != nil {
		r.store.restore(snap)
	}
	return err
}

// ── memProductRepo ───────────────────────────────────────────────────────────

type memProductRepo struct {
	store *memStore
}

func (r *memProductRepo) Create(product *entity.Product) error {
	for _, p := range r.store.products {
		if p.ClinicID == product.ClinicID && p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	c := *product
	r.store.products[product.ID] = &c
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	if r.store.productErr != nil {
		return nil, r.store.productErr
	}
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *memProductRepo) GetByClinicAndSKU(clinicID, sku string) (*entity.Product, error) {
	for _, p := range r.store.products {
		if p.ClinicID == clinicID && p.SKU == sku {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) ListByClinic(clinicID string, limit, offset int) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0)
	for _, p := range r.store.products {
		if p.ClinicID == clinicID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ── memLotRepo ───────────────────────────────────────────────────────────────

type memLotRepo struct {
	store *memStore
}

// UpsertByIdentity imita el constraint de identidad de la tabla lots: si ya
// existe un lote con la misma identidad física suma sobre él, si no inserta.
func (r *memLotRepo) UpsertByIdentity(lot *entity.Lot) (string, error) {
	for _, l := range r.store.lotsFIFO(lot.ProductID) {
		if l.SameIdentity(lot.LotNumber, lot.Shade, lot.Caliber) {
			existing := r.store.lots[l.ID]
			existing.Quantity = existing.Quantity.Add(lot.Quantity)
			existing.UpdatedAt = lot.UpdatedAt
			return existing.ID, nil
		}
	}
	c := *lot
	r.store.lots[lot.ID] = &c
	return lot.ID, nil
}

func (r *memLotRepo) GetByID(id string) (*entity.Lot, error) {
	l, ok := r.store.lots[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *memLotRepo) ListByProduct(productID string) ([]*entity.Lot, error) {
	lots := r.store.lotsFIFO(productID)
	out := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		c := *l
		out = append(out, &c)
	}
	return out, nil
}

func (r *memLotRepo) ListBalancesByProduct(productID string) ([]*repository.LotBalance, error) {
	lots := r.store.lotsFIFO(productID)
	out := make([]*repository.LotBalance, 0, len(lots))
	for _, l := range lots {
		reserved := r.store.reservedByLot(l.ID)
		out = append(out, &repository.LotBalance{
			Lot:       *l,
			Reserved:  reserved,
			Available: l.Quantity.Sub(reserved),
		})
	}
	return out, nil
}

func (r *memLotRepo) GetForUpdate(id string) (*entity.Lot, error) {
	return r.GetByID(id)
}

func (r *memLotRepo) ListAvailabilityForUpdate(productID string) ([]allocation.LotAvailability, error) {
	lots := r.store.lotsFIFO(productID)
	out := make([]allocation.LotAvailability, 0, len(lots))
	for _, l := range lots {
		out = append(out, allocation.LotAvailability{
			LotID:     l.ID,
			CreatedAt: l.CreatedAt,
			Available: l.Quantity.Sub(r.store.reservedByLot(l.ID)),
		})
	}
	return out, nil
}

func (r *memLotRepo) UpdateQuantity(lotID string, quantity decimal.Decimal) error {
	l, ok := r.store.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	l.Quantity = quantity
	l.UpdatedAt = time.Now()
	return nil
}

// ── memReservationRepo ───────────────────────────────────────────────────────

type memReservationRepo struct {
	store *memStore
}

func (r *memReservationRepo) Upsert(reservation *entity.Reservation) error {
	for _, existing := range r.store.reservations {
		if existing.DocumentItemID == reservation.DocumentItemID && existing.LotID == reservation.LotID {
			existing.Quantity = existing.Quantity.Add(reservation.Quantity)
			existing.ExpiresAt = reservation.ExpiresAt
			return nil
		}
	}
	c := *reservation
	r.store.reservations[reservation.ID] = &c
	return nil
}

func (r *memReservationRepo) ListByDocument(documentID string) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0)
	for _, res := range r.store.reservations {
		if res.DocumentID == documentID {
			c := *res
			out = append(out, &c)
		}
	}
	sortReservations(out)
	return out, nil
}

func (r *memReservationRepo) ListByDocumentItem(documentItemID string) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0)
	for _, res := range r.store.reservations {
		if res.DocumentItemID == documentItemID {
			c := *res
			out = append(out, &c)
		}
	}
	sortReservations(out)
	return out, nil
}

func (r *memReservationRepo) DeleteByDocument(documentID string) (int64, error) {
	var n int64
	for id, res := range r.store.reservations {
		if res.DocumentID == documentID {
			delete(r.store.reservations, id)
			n++
		}
	}
	return n, nil
}

func (r *memReservationRepo) DeleteByDocumentItem(documentID, documentItemID string) (int64, error) {
	var n int64
	for id, res := range r.store.reservations {
		if res.DocumentID == documentID && res.DocumentItemID == documentItemID {
			delete(r.store.reservations, id)
			n++
		}
	}
	return n, nil
}

func (r *memReservationRepo) Delete(id string) error {
	if _, ok := r.store.reservations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.reservations, id)
	return nil
}

func (r *memReservationRepo) DeleteExpired(clinicID string, now time.Time) (int64, error) {
	var n int64
	for id, res := range r.store.reservations {
		if res.ClinicID == clinicID && res.ExpiresAt.Before(now) {
			delete(r.store.reservations, id)
			n++
		}
	}
	return n, nil
}

func sortReservations(out []*entity.Reservation) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}

// ── memMovementRepo ──────────────────────────────────────────────────────────

type memMovementRepo struct {
	store *memStore
}

func (r *memMovementRepo) Create(movement *entity.StockMovement) error {
	r.store.movementCreates++
	if r.store.failMovementAt > 0 && r.store.movementCreates == r.store.failMovementAt {
		return errMovimientoInyectado
	}
	c := *movement
	r.store.movements = append(r.store.movements, &c)
	return nil
}

func (r *memMovementRepo) List(clinicID string, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	out := make([]*entity.StockMovement, 0)
	for _, m := range r.store.movements {
		if m.ClinicID != clinicID {
			continue
		}
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.CreatedAt.After(*filter.To) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > len(out) {
		filter.Offset = len(out)
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memMovementRepo) SumByLot(lotID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range r.store.movements {
		if m.LotID != nil && *m.LotID == lotID {
			total = total.Add(m.Quantity)
		}
	}
	return total, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture y seeds
// ──────────────────────────────────────────────────────────────────────────────

const (
	clinicA   = "00000000-0000-0000-0000-00000000000a"
	clinicB   = "00000000-0000-0000-0000-00000000000b"
	userJuana = "00000000-0000-0000-0000-0000000000f1"
)

type fixture struct {
	store       *memStore
	productRepo *memProductRepo
	mutation    *stock.MutationUseCase
	reservation *stock.ReservationUseCase
}

func newFixture() *fixture {
	store := newMemStore()
	tx := &fakeTxRunner{store: store}
	productRepo := &memProductRepo{store: store}
	mutation := stock.NewMutationUseCase(tx, productRepo)
	return &fixture{
		store:       store,
		productRepo: productRepo,
		mutation:    mutation,
		reservation: stock.NewReservationUseCase(tx, productRepo, mutation),
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func strPtr(s string) *string { return &s }

func seedProduct(s *memStore, id, clinicID, sku string) *entity.Product {
	p := &entity.Product{
		ID:        id,
		ClinicID:  clinicID,
		Name:      "Resina " + sku,
		SKU:       sku,
		Unit:      "unidad",
		MinStock:  dec(2),
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.products[p.ID] = p
	return p
}

// seedLot inserta un lote directo en el store (sin pasar por el libro);
// los tests que verifican consistencia del libro crean stock vía StockIn.
func seedLot(s *memStore, id, productID string, qty int64, createdAt time.Time) *entity.Lot {
	l := &entity.Lot{
		ID:        id,
		ProductID: productID,
		LotNumber: "L-" + id,
		Quantity:  dec(qty),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.lots[l.ID] = l
	return l
}
