package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
	"github.com/jhoicas/lotes-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL
// (usable con pool o tx). Las reservas se borran de forma dura: no hay
// soft-delete porque no son registros históricos.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, clinic_id, lot_id, product_id, document_id, document_item_id, quantity, expires_at, created_at`

// Upsert crea la reserva o suma la cantidad sobre la fila existente del par
// (document_item_id, lot_id). El constraint único garantiza que nunca haya
// dos reservas activas para el mismo par.
func (r *ReservationRepo) Upsert(res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, clinic_id, lot_id, product_id, document_id, document_item_id, quantity, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_item_id, lot_id)
		DO UPDATE SET quantity = reservations.quantity + EXCLUDED.quantity,
		              expires_at = EXCLUDED.expires_at`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.ClinicID, res.LotID, res.ProductID, res.DocumentID,
		res.DocumentItemID, res.Quantity, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert reservation: %w", err)
	}
	return nil
}

// ListByDocument lista las reservas activas de un documento.
func (r *ReservationRepo) ListByDocument(documentID string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + ` FROM reservations
		WHERE document_id = $1 ORDER BY created_at, id`
	return r.list(query, documentID)
}

// ListByDocumentItem lista las reservas activas de una línea de documento.
func (r *ReservationRepo) ListByDocumentItem(documentItemID string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + ` FROM reservations
		WHERE document_item_id = $1 ORDER BY created_at, id`
	return r.list(query, documentItemID)
}

// DeleteByDocument elimina todas las reservas del documento.
func (r *ReservationRepo) DeleteByDocument(documentID string) (int64, error) {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM reservations WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete reservations by document: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByDocumentItem elimina las reservas de una línea del documento.
func (r *ReservationRepo) DeleteByDocumentItem(documentID, documentItemID string) (int64, error) {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM reservations WHERE document_id = $1 AND document_item_id = $2`,
		documentID, documentItemID)
	if err != nil {
		return 0, fmt.Errorf("delete reservations by item: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete elimina una reserva por ID.
func (r *ReservationRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

// DeleteExpired elimina las reservas vencidas de la clínica.
func (r *ReservationRepo) DeleteExpired(clinicID string, now time.Time) (int64, error) {
	tag, err := r.q.Exec(context.Background(),
		`DELETE FROM reservations WHERE clinic_id = $1 AND expires_at < $2`, clinicID, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReservationRepo) list(query string, arg any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.ClinicID, &res.LotID, &res.ProductID,
			&res.DocumentID, &res.DocumentItemID, &res.Quantity, &res.ExpiresAt, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
