package repository

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// OrderFilter filtros opcionales del listado de pedidos.
type OrderFilter struct {
	Status     *entity.OrderStatus
	CustomerID string
	ActiveOnly bool
}

// OrderRepository define el puerto de persistencia para pedidos e ítems.
type OrderRepository interface {
	// Create inserta el pedido y todos sus ítems.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// Update persiste estado, notas, fecha de entrega y flag activo. Los ítems son inmutables.
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, filter OrderFilter, limit, offset int) ([]*entity.Order, error)
	CountByStatus(ctx context.Context, status entity.OrderStatus) (int, error)
}
