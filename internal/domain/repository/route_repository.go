package repository

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// RouteFilter filtros opcionales del listado de rutas.
type RouteFilter struct {
	CourierID  string
	Status     *entity.RouteStatus
	ActiveOnly bool
}

// RouteRepository define el puerto de persistencia para rutas y su relación con pedidos.
type RouteRepository interface {
	// Create inserta la ruta y sus pedidos asignados.
	Create(ctx context.Context, route *entity.Route) error
	GetByID(ctx context.Context, id string) (*entity.Route, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Route, error)
	Update(ctx context.Context, route *entity.Route) error
	AttachOrder(ctx context.Context, routeID, orderID string) error
	// DetachOrder devuelve false si el pedido no estaba asignado.
	DetachOrder(ctx context.Context, routeID, orderID string) (bool, error)
	// OpenRouteForOrder devuelve el ID de una ruta PLANNED o IN_PROGRESS (distinta de exclude)
	// que ya contiene el pedido, o "" si no hay.
	OpenRouteForOrder(ctx context.Context, orderID, excludeRouteID string) (string, error)
	List(ctx context.Context, filter RouteFilter, limit, offset int) ([]*entity.Route, error)
}
