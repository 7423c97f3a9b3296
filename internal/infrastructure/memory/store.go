// Package memory implementa los puertos de persistencia en memoria, con transacciones
// serializadas por mutex y rollback por snapshot. Se usa como driver de desarrollo
// (STORAGE_DRIVER=memory) y como backend de los tests de casos de uso.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type txKey struct{}

// Store estado completo del sistema en memoria.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repos devuelve los repositorios del store. Fuera de Run cada llamada es atómica por sí sola;
// dentro de Run (ctx de la transacción) operan sobre el estado ya bloqueado.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Products:  &productRepo{s: s},
		Customers: &customerRepo{s: s},
		Couriers:  &courierRepo{s: s},
		Inventory: &inventoryRepo{s: s},
		Movements: &movementRepo{s: s},
		Orders:    &orderRepo{s: s},
		Routes:    &routeRepo{s: s},
	}
}

// Run ejecuta fn con el store bloqueado. Si fn falla (o entra en pánico) el estado vuelve
// al snapshot tomado al inicio. Una llamada anidada con el ctx de la transacción actúa como savepoint.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	if s.inTx(ctx) {
		return s.runLocked(ctx, fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runLocked(context.WithValue(ctx, txKey{}, s), fn)
}

func (s *Store) runLocked(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	snap := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snap
			panic(p)
		}
		if err != nil {
			s.st = snap
		}
	}()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return fn(ctx, s.Repos())
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// with ejecuta fn sobre el estado, tomando el lock si no hay transacción en curso.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

type state struct {
	products      map[string]entity.Product
	productIDs    []string
	customers     map[string]entity.Customer
	customerIDs   []string
	couriers      map[string]entity.Courier
	courierIDs    []string
	inventory     map[string]entity.InventoryRecord // por product_id
	inventoryKeys []string
	movements     []entity.Movement
	orders        map[string]entity.Order
	orderIDs      []string
	routes        map[string]entity.Route
	routeIDs      []string
}

func newState() *state {
	return &state{
		products:  make(map[string]entity.Product),
		customers: make(map[string]entity.Customer),
		couriers:  make(map[string]entity.Courier),
		inventory: make(map[string]entity.InventoryRecord),
		orders:    make(map[string]entity.Order),
		routes:    make(map[string]entity.Route),
	}
}

func (st *state) clone() *state {
	out := &state{
		products:      make(map[string]entity.Product, len(st.products)),
		productIDs:    append([]string(nil), st.productIDs...),
		customers:     make(map[string]entity.Customer, len(st.customers)),
		customerIDs:   append([]string(nil), st.customerIDs...),
		couriers:      make(map[string]entity.Courier, len(st.couriers)),
		courierIDs:    append([]string(nil), st.courierIDs...),
		inventory:     make(map[string]entity.InventoryRecord, len(st.inventory)),
		inventoryKeys: append([]string(nil), st.inventoryKeys...),
		movements:     make([]entity.Movement, len(st.movements)),
		orders:        make(map[string]entity.Order, len(st.orders)),
		orderIDs:      append([]string(nil), st.orderIDs...),
		routes:        make(map[string]entity.Route, len(st.routes)),
		routeIDs:      append([]string(nil), st.routeIDs...),
	}
	for k, v := range st.products {
		out.products[k] = v
	}
	for k, v := range st.customers {
		out.customers[k] = v
	}
	for k, v := range st.couriers {
		out.couriers[k] = v
	}
	for k, v := range st.inventory {
		out.inventory[k] = v
	}
	for i, m := range st.movements {
		out.movements[i] = copyMovement(m)
	}
	for k, v := range st.orders {
		out.orders[k] = copyOrder(v)
	}
	for k, v := range st.routes {
		out.routes[k] = copyRoute(v)
	}
	return out
}

func copyMovement(m entity.Movement) entity.Movement {
	if m.OrderID != nil {
		id := *m.OrderID
		m.OrderID = &id
	}
	return m
}

func copyOrder(o entity.Order) entity.Order {
	o.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}

func copyRoute(r entity.Route) entity.Route {
	r.OrderIDs = append([]string(nil), r.OrderIDs...)
	if r.DistanceKm != nil {
		d := *r.DistanceKm
		r.DistanceKm = &d
	}
	if r.EstimatedMinutes != nil {
		m := *r.EstimatedMinutes
		r.EstimatedMinutes = &m
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		r.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		r.FinishedAt = &t
	}
	return r
}

// page aplica limit/offset sobre una lista ya ordenada.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
