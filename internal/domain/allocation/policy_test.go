package allocation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-api/internal/domain/allocation"
)

var (
	jan1 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	jan9 = time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
)

func lot(id string, createdAt time.Time, available int64) allocation.LotAvailability {
	return allocation.LotAvailability{
		LotID:     id,
		CreatedAt: createdAt,
		Available: decimal.NewFromInt(available),
	}
}

func entries(plan allocation.Plan) []string {
	out := make([]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		out = append(out, e.LotID+":"+e.Quantity.String())
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		lots      []allocation.LotAvailability
		requested int64
		preferred string
		want      []string
		shortfall int64
	}{
		{
			name:      "un solo lote cubre todo",
			lots:      []allocation.LotAvailability{lot("a", jan1, 10)},
			requested: 8,
			want:      []string{"a:8"},
		},
		{
			name:      "division FIFO entre dos lotes",
			lots:      []allocation.LotAvailability{lot("b", jan5, 10), lot("a", jan1, 5)},
			requested: 8,
			want:      []string{"a:5", "b:3"},
		},
		{
			name:      "lote preferido con disponible suficiente cubre el 100%",
			lots:      []allocation.LotAvailability{lot("a", jan1, 5), lot("b", jan5, 10)},
			requested: 7,
			preferred: "b",
			want:      []string{"b:7"},
		},
		{
			name:      "preferido parcial y resto FIFO",
			lots:      []allocation.LotAvailability{lot("a", jan1, 5), lot("b", jan5, 3), lot("c", jan9, 6)},
			requested: 10,
			preferred: "b",
			want:      []string{"b:3", "a:5", "c:2"},
		},
		{
			name:      "preferido inexistente degrada a FIFO puro",
			lots:      []allocation.LotAvailability{lot("a", jan1, 5), lot("b", jan5, 5)},
			requested: 6,
			preferred: "zzz",
			want:      []string{"a:5", "b:1"},
		},
		{
			name:      "faltante cuando el total no alcanza",
			lots:      []allocation.LotAvailability{lot("a", jan1, 4), lot("b", jan5, 3)},
			requested: 10,
			want:      []string{"a:4", "b:3"},
			shortfall: 3,
		},
		{
			name:      "sin lotes todo es faltante",
			lots:      nil,
			requested: 5,
			want:      []string{},
			shortfall: 5,
		},
		{
			name:      "lotes sin disponible se saltan",
			lots:      []allocation.LotAvailability{lot("a", jan1, 0), lot("b", jan5, 4)},
			requested: 3,
			want:      []string{"b:3"},
		},
		{
			name: "empate de fecha desempata por id de lote",
			lots: []allocation.LotAvailability{
				lot("l-2", jan1, 5), lot("l-1", jan1, 5),
			},
			requested: 6,
			want:      []string{"l-1:5", "l-2:1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := allocation.Compute(tc.lots, decimal.NewFromInt(tc.requested), tc.preferred)

			assert.Equal(t, tc.want, entries(plan), "el orden del plan debe ser determinista")
			assert.True(t, plan.Shortfall.Equal(decimal.NewFromInt(tc.shortfall)),
				"shortfall esperado %d, obtenido %s", tc.shortfall, plan.Shortfall)
			assert.True(t, plan.Allocated.Add(plan.Shortfall).Equal(plan.Requested),
				"asignado + faltante debe igualar lo solicitado")
		})
	}
}

func TestCompute_CantidadNoPositiva(t *testing.T) {
	plan := allocation.Compute([]allocation.LotAvailability{lot("a", jan1, 5)}, decimal.Zero, "")
	require.Empty(t, plan.Entries)
	assert.True(t, plan.Covered())
}

func TestCompute_NoExcedeDisponiblePorLote(t *testing.T) {
	lots := []allocation.LotAvailability{lot("a", jan1, 2), lot("b", jan5, 2), lot("c", jan9, 2)}
	plan := allocation.Compute(lots, decimal.NewFromInt(5), "")

	byLot := map[string]decimal.Decimal{}
	for _, e := range plan.Entries {
		byLot[e.LotID] = e.Quantity
	}
	for _, l := range lots {
		assert.True(t, byLot[l.LotID].LessThanOrEqual(l.Available),
			"la asignación del lote %s no puede exceder su disponible", l.LotID)
	}
	assert.True(t, plan.Shortfall.IsZero())
}

func TestCompute_NoMutaLaEntrada(t *testing.T) {
	lots := []allocation.LotAvailability{lot("b", jan5, 5), lot("a", jan1, 5)}
	_ = allocation.Compute(lots, decimal.NewFromInt(7), "")
	assert.Equal(t, "b", lots[0].LotID, "la política no debe reordenar el slice del caller")
}
