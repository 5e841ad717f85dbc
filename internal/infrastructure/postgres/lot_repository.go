package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-api/internal/domain/allocation"
	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
// La disponibilidad se calcula con una consulta explícita sobre reservas
// activas (nunca por carga implícita de relaciones), así las lecturas dentro
// de una transacción ven las reservas hechas en esa misma transacción.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, product_id, lot_number, quantity, shade, caliber, created_at, updated_at`

// UpsertByIdentity crea el lote o suma la cantidad sobre el existente con la
// misma identidad física. El constraint lots_identity_key (NULLS NOT DISTINCT
// sobre producto + número de lote + tono + calibre) es el árbitro del
// conflicto; en el camino de conflicto DO UPDATE bloquea la fila igual que un
// SELECT FOR UPDATE. CreatedAt no se toca al sumar: conserva el orden FIFO.
func (r *LotRepo) UpsertByIdentity(lot *entity.Lot) (string, error) {
	query := `
		INSERT INTO lots (id, product_id, lot_number, quantity, shade, caliber, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT lots_identity_key
		DO UPDATE SET quantity = lots.quantity + EXCLUDED.quantity,
		              updated_at = EXCLUDED.updated_at
		RETURNING id`
	var id string
	err := r.q.QueryRow(context.Background(), query,
		lot.ID, lot.ProductID, lot.LotNumber, lot.Quantity, lot.Shade, lot.Caliber,
		lot.CreatedAt, lot.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert lot: %w", err)
	}
	return id, nil
}

// GetByID obtiene un lote por ID, o nil si no existe.
func (r *LotRepo) GetByID(id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene un lote bloqueando la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// ListByProduct lista los lotes del producto en orden FIFO (created_at ASC, id ASC).
func (r *LotRepo) ListByProduct(productID string) ([]*entity.Lot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM lots
		WHERE product_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, lot)
	}
	return list, rows.Err()
}

// ListBalancesByProduct devuelve los lotes con reservado y disponible
// calculados desde las reservas activas, en orden FIFO.
func (r *LotRepo) ListBalancesByProduct(productID string) ([]*repository.LotBalance, error) {
	query := `
		SELECT l.id, l.product_id, l.lot_number, l.quantity, l.shade, l.caliber,
		       l.created_at, l.updated_at, COALESCE(res.reserved, 0) AS reserved
		FROM lots l
		LEFT JOIN (
			SELECT lot_id, SUM(quantity) AS reserved
			FROM reservations GROUP BY lot_id
		) res ON res.lot_id = l.id
		WHERE l.product_id = $1
		ORDER BY l.created_at, l.id`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list lot balances: %w", err)
	}
	defer rows.Close()
	var list []*repository.LotBalance
	for rows.Next() {
		var b repository.LotBalance
		if err := rows.Scan(&b.Lot.ID, &b.Lot.ProductID, &b.Lot.LotNumber, &b.Lot.Quantity,
			&b.Lot.Shade, &b.Lot.Caliber, &b.Lot.CreatedAt, &b.Lot.UpdatedAt, &b.Reserved); err != nil {
			return nil, fmt.Errorf("scan lot balance: %w", err)
		}
		b.Available = b.Lot.Quantity.Sub(b.Reserved)
		list = append(list, &b)
	}
	return list, rows.Err()
}

// ListAvailabilityForUpdate bloquea todos los lotes del producto y devuelve
// su disponibilidad en orden FIFO. Dos pasos en la misma tx: primero el
// bloqueo de filas, después el agregado de reservas (FOR UPDATE no se lleva
// bien con agregaciones en la misma consulta).
func (r *LotRepo) ListAvailabilityForUpdate(productID string) ([]allocation.LotAvailability, error) {
	lockQuery := `
		SELECT id, quantity, created_at FROM lots
		WHERE product_id = $1 ORDER BY created_at, id
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), lockQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("lock lots: %w", err)
	}
	var avail []allocation.LotAvailability
	quantities := map[string]decimal.Decimal{}
	for rows.Next() {
		var la allocation.LotAvailability
		var qty decimal.Decimal
		if err := rows.Scan(&la.LotID, &qty, &la.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		quantities[la.LotID] = qty
		avail = append(avail, la)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	resQuery := `
		SELECT r.lot_id, SUM(r.quantity)
		FROM reservations r
		JOIN lots l ON l.id = r.lot_id
		WHERE l.product_id = $1
		GROUP BY r.lot_id`
	resRows, err := r.q.Query(context.Background(), resQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("sum reservations: %w", err)
	}
	defer resRows.Close()
	reserved := map[string]decimal.Decimal{}
	for resRows.Next() {
		var lotID string
		var sum decimal.Decimal
		if err := resRows.Scan(&lotID, &sum); err != nil {
			return nil, fmt.Errorf("scan reservation sum: %w", err)
		}
		reserved[lotID] = sum
	}
	if err := resRows.Err(); err != nil {
		return nil, err
	}

	for i := range avail {
		avail[i].Available = quantities[avail[i].LotID].Sub(reserved[avail[i].LotID])
	}
	return avail, nil
}

// UpdateQuantity persiste la nueva cantidad del lote.
func (r *LotRepo) UpdateQuantity(lotID string, quantity decimal.Decimal) error {
	query := `UPDATE lots SET quantity = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, lotID, quantity)
	if err != nil {
		return fmt.Errorf("update lot quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot quantity: lote %s no existe", lotID)
	}
	return nil
}

func (r *LotRepo) scanOne(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.Shade, &l.Caliber,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &l, nil
}

func scanLot(rows pgx.Rows) (*entity.Lot, error) {
	var l entity.Lot
	if err := rows.Scan(&l.ID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.Shade, &l.Caliber,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan lot: %w", err)
	}
	return &l, nil
}
