package repository

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// InventoryRepository define el puerto para los registros de existencias (uno por producto).
// Usado dentro de transacciones para garantizar consistencia.
type InventoryRepository interface {
	GetByProduct(ctx context.Context, productID string) (*entity.InventoryRecord, error)
	// Create falla con domain.ErrDuplicate si el producto ya tiene registro.
	Create(ctx context.Context, record *entity.InventoryRecord) error
	// CreateIfAbsent inserta el registro o devuelve el existente, sin error por carrera.
	CreateIfAbsent(ctx context.Context, record *entity.InventoryRecord) (*entity.InventoryRecord, error)
	// ApplyDelta suma delta a la cantidad solo si el resultado no queda negativo.
	// ok=false significa que no se aplicó (sin registro o stock insuficiente); after es la cantidad resultante.
	ApplyDelta(ctx context.Context, productID string, delta int) (after int, ok bool, err error)
	// UpdateSettings persiste ubicación, umbral y flag activo. Nunca la cantidad.
	UpdateSettings(ctx context.Context, record *entity.InventoryRecord) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.InventoryRecord, error)
	// ListLowStock registros activos con quantity <= min_stock.
	ListLowStock(ctx context.Context, limit, offset int) ([]*entity.InventoryRecord, error)
}

// MovementRepository define el puerto de persistencia para el historial de movimientos (append-only).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// ListByProduct más reciente primero.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Movement, error)
	Latest(ctx context.Context, productID string) (*entity.Movement, error)
	SumDeltas(ctx context.Context, productID string) (sum int, count int, err error)
}
