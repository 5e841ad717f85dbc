package repository

import (
	"time"

	"github.com/jhoicas/lotes-api/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia para reservas.
// Las reservas se borran de forma dura al liberar o confirmar: no son
// registros históricos, solo los movimientos son permanentes.
type ReservationRepository interface {
	// Upsert crea la reserva o, si ya existe una activa para el par
	// (document_item_id, lot_id), suma la cantidad sobre la fila existente.
	Upsert(reservation *entity.Reservation) error
	ListByDocument(documentID string) ([]*entity.Reservation, error)
	ListByDocumentItem(documentItemID string) ([]*entity.Reservation, error)
	DeleteByDocument(documentID string) (int64, error)
	DeleteByDocumentItem(documentID, documentItemID string) (int64, error)
	Delete(id string) error
	// DeleteExpired elimina reservas vencidas antes de now y devuelve cuántas.
	DeleteExpired(clinicID string, now time.Time) (int64, error)
}
