package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/gestor-api/internal/domain"
)

// RouteStatus estado de una ruta de entrega.
type RouteStatus string

const (
	RoutePlanned    RouteStatus = "PLANNED"
	RouteInProgress RouteStatus = "IN_PROGRESS"
	RouteCompleted  RouteStatus = "COMPLETED"
	RouteCancelled  RouteStatus = "CANCELLED"
)

var routeTransitions = map[RouteStatus][]RouteStatus{
	RoutePlanned:    {RouteInProgress, RouteCancelled},
	RouteInProgress: {RouteCompleted, RouteCancelled},
	RouteCompleted:  {},
	RouteCancelled:  {},
}

// ParseRouteStatus acepta el nombre canónico sin distinguir mayúsculas.
func ParseRouteStatus(s string) (RouteStatus, error) {
	st := RouteStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := routeTransitions[st]; !ok {
		return "", domain.InvalidInput(fmt.Sprintf("unknown route status %q", s))
	}
	return st, nil
}

func (s RouteStatus) CanTransitionTo(next RouteStatus) bool {
	for _, allowed := range routeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsClosed COMPLETED y CANCELLED son terminales.
func (s RouteStatus) IsClosed() bool {
	return s == RouteCompleted || s == RouteCancelled
}

// Route agrupa pedidos para un mensajero en una fecha. Solo guarda IDs de pedidos.
type Route struct {
	ID               string
	CourierID        string
	Status           RouteStatus
	PlannedDate      time.Time
	DistanceKm       *float64
	EstimatedMinutes *int
	OrderIDs         []string
	Active           bool
	StartedAt        *time.Time
	FinishedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasOrder indica si el pedido ya está asignado.
func (r *Route) HasOrder(orderID string) bool {
	for _, id := range r.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// TransitionTo aplica el cambio de estado. Desde un estado cerrado falla con "route already closed".
func (r *Route) TransitionTo(next RouteStatus, now time.Time) error {
	if r.Status.IsClosed() {
		return domain.RouteClosed(r.ID, string(r.Status))
	}
	if !r.Status.CanTransitionTo(next) {
		return domain.InvalidTransition("route", string(r.Status), string(next))
	}
	r.Status = next
	r.UpdatedAt = now
	switch next {
	case RouteInProgress:
		at := now
		r.StartedAt = &at
	case RouteCompleted, RouteCancelled:
		at := now
		r.FinishedAt = &at
	}
	return nil
}
