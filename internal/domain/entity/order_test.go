package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestOrderStatus_TablaDeTransiciones(t *testing.T) {
	allowed := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderPending:    {entity.OrderProcessing, entity.OrderCancelled},
		entity.OrderProcessing: {entity.OrderInTransit, entity.OrderCancelled},
		entity.OrderInTransit:  {entity.OrderDelivered, entity.OrderCancelled},
	}
	for _, from := range entity.OrderStatuses {
		for _, to := range entity.OrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrder_TransitionTo_DeliveredRegistraFecha(t *testing.T) {
	o := &entity.Order{ID: "o1", Status: entity.OrderInTransit}
	require.NoError(t, o.TransitionTo(entity.OrderDelivered, t0))
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, t0, *o.DeliveredAt)
	assert.Equal(t, entity.OrderDelivered, o.Status)
}

func TestOrder_TransitionTo_DesdeTerminalFalla(t *testing.T) {
	for _, st := range []entity.OrderStatus{entity.OrderDelivered, entity.OrderCancelled} {
		o := &entity.Order{ID: "o1", Status: st}
		err := o.TransitionTo(entity.OrderProcessing, t0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
		assert.Equal(t, st, o.Status, "el estado no debe cambiar")
	}
}

func TestOrder_TransitionTo_SaltoNoPermitido(t *testing.T) {
	o := &entity.Order{ID: "o1", Status: entity.OrderPending}
	err := o.TransitionTo(entity.OrderDelivered, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Nil(t, o.DeliveredAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestOrder_Cancel_AnexaMotivoANotas(t *testing.T) {
	o := &entity.Order{ID: "o1", Status: entity.OrderPending, Notes: "tocar timbre"}
	require.NoError(t, o.Cancel("cliente desistió", t0))
	assert.Equal(t, entity.OrderCancelled, o.Status)
	assert.Equal(t, "tocar timbre | CANCELADO: cliente desistió", o.Notes)

	o2 := &entity.Order{ID: "o2", Status: entity.OrderInTransit}
	require.NoError(t, o2.Cancel("dirección errada", t0))
	assert.Equal(t, "CANCELADO: dirección errada", o2.Notes)
}

func TestOrder_Cancel_EntregadoOCanceladoEsReglaDeNegocio(t *testing.T) {
	for _, st := range []entity.OrderStatus{entity.OrderDelivered, entity.OrderCancelled} {
		o := &entity.Order{ID: "o1", Status: st}
		err := o.Cancel("x", t0)
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
		assert.Equal(t, st, o.Status)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ítems y totales
// ──────────────────────────────────────────────────────────────────────────────

func TestOrderItem_SubtotalSeRecalcula(t *testing.T) {
	it := entity.NewOrderItem("i1", "o1", "p1", 3, decimal.RequireFromString("2.50"))
	assert.True(t, it.Subtotal.Equal(decimal.RequireFromString("7.50")))

	it.SetQuantity(4)
	assert.True(t, it.Subtotal.Equal(decimal.RequireFromString("10")))

	it.SetUnitPrice(decimal.RequireFromString("1.25"))
	assert.True(t, it.Subtotal.Equal(decimal.RequireFromString("5")))
}

func TestOrder_RecalculateTotal(t *testing.T) {
	o := &entity.Order{Items: []entity.OrderItem{
		entity.NewOrderItem("i1", "o1", "p1", 2, decimal.NewFromInt(10)),
		entity.NewOrderItem("i2", "o1", "p2", 1, decimal.RequireFromString("0.99")),
	}}
	o.RecalculateTotal()
	assert.True(t, o.Total.Equal(decimal.RequireFromString("20.99")), o.Total.String())
}

func TestOrderCode_Formato(t *testing.T) {
	code := entity.OrderCode("3f2a9c1e-0000-4000-8000-00000000abcd", t0)
	assert.Equal(t, "PED-20260314-00ABCD", code)
}

func TestParseOrderStatus(t *testing.T) {
	st, err := entity.ParseOrderStatus(" in_transit ")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderInTransit, st)

	_, err = entity.ParseOrderStatus("ENVIADO")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
