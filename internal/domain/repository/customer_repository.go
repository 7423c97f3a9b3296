package repository

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para clientes.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Customer, error)
}

// CourierRepository define el puerto de persistencia para mensajeros.
type CourierRepository interface {
	Create(ctx context.Context, courier *entity.Courier) error
	GetByID(ctx context.Context, id string) (*entity.Courier, error)
	Update(ctx context.Context, courier *entity.Courier) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Courier, error)
}
