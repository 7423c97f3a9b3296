package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

func TestRoute_TransitionTo_FlujoCompleto(t *testing.T) {
	r := &entity.Route{ID: "r1", Status: entity.RoutePlanned}
	require.NoError(t, r.TransitionTo(entity.RouteInProgress, t0))
	require.NotNil(t, r.StartedAt)
	require.NoError(t, r.TransitionTo(entity.RouteCompleted, t0))
	require.NotNil(t, r.FinishedAt)
	assert.Equal(t, entity.RouteCompleted, r.Status)
}

func TestRoute_TransitionTo_CerradaFallaConMensaje(t *testing.T) {
	for _, st := range []entity.RouteStatus{entity.RouteCompleted, entity.RouteCancelled} {
		r := &entity.Route{ID: "r1", Status: st}
		err := r.TransitionTo(entity.RouteInProgress, t0)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, "route already closed", err.Error())
		assert.Equal(t, st, r.Status)
	}
}

func TestRoute_TransitionTo_SaltoNoPermitido(t *testing.T) {
	r := &entity.Route{ID: "r1", Status: entity.RoutePlanned}
	err := r.TransitionTo(entity.RouteCompleted, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.RoutePlanned, r.Status)
}

func TestRoute_HasOrder(t *testing.T) {
	r := &entity.Route{OrderIDs: []string{"a", "b"}}
	assert.True(t, r.HasOrder("b"))
	assert.False(t, r.HasOrder("c"))
}

func TestOrderStatus_IsRoutable(t *testing.T) {
	assert.True(t, entity.OrderPending.IsRoutable())
	assert.True(t, entity.OrderInTransit.IsRoutable())
	assert.False(t, entity.OrderDelivered.IsRoutable())
	assert.False(t, entity.OrderCancelled.IsRoutable())
}
