package repository

import "context"

// Repos agrupa los repositorios ligados a una misma transacción.
type Repos struct {
	Products  ProductRepository
	Customers CustomerRepository
	Couriers  CourierRepository
	Inventory InventoryRepository
	Movements MovementRepository
	Orders    OrderRepository
	Routes    RouteRepository
}

// TxRunner ejecuta fn dentro de una transacción: commit si fn devuelve nil, rollback si no.
// Si ctx ya lleva una transacción abierta por Run, la llamada anidada usa un savepoint:
// un error en fn deshace solo lo hecho dentro de esa llamada.
// fn debe usar el ctx que recibe y solo los repos de ese Repos.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
