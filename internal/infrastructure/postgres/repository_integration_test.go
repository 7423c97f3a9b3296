package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/application/order"
	"github.com/jhoicas/gestor-api/internal/application/route"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/internal/infrastructure/postgres"
	"github.com/jhoicas/gestor-api/pkg/clock"
	"github.com/jhoicas/gestor-api/pkg/config"
)

// RepositoryIntegrationSuite corre los casos de uso contra un PostgreSQL real.
type RepositoryIntegrationSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	runner    *postgres.TxRunner
	reads     repository.Repos
	ids       clock.IDGenerator
	ledger    *inventory.Ledger
	orders    *order.UseCase
	routes    *route.UseCase
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integración con contenedor PostgreSQL omitida en -short")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gestor"),
		tcpostgres.WithUsername("gestor"),
		tcpostgres.WithPassword("gestor"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 30})
	s.Require().NoError(err)
	s.pool = pool
	s.Require().NoError(postgres.Migrate(ctx, pool, zerolog.Nop()))
	// idempotente
	s.Require().NoError(postgres.Migrate(ctx, pool, zerolog.Nop()))

	clk := clock.System{}
	s.ids = clock.UUIDGenerator{}
	s.runner = postgres.NewTxRunner(pool)
	s.reads = postgres.NewRepos(pool)
	s.ledger = inventory.NewLedger(s.runner, s.reads, clk, s.ids, zerolog.Nop())
	s.orders = order.NewUseCase(s.runner, s.reads, s.ledger, clk, s.ids, zerolog.Nop())
	s.routes = route.NewUseCase(s.runner, s.reads, clk, s.ids, nil, zerolog.Nop())
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `
		TRUNCATE route_orders, routes, inventory_movements, order_items, orders,
			inventory_records, couriers, customers, products CASCADE`)
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (s *RepositoryIntegrationSuite) product(sku string, price int64, stock int) string {
	ctx := context.Background()
	now := time.Now().UTC()
	id := s.ids.NewID()
	s.Require().NoError(s.reads.Products.Create(ctx, &entity.Product{
		ID: id, SKU: sku, Name: "Producto " + sku, Price: decimal.NewFromInt(price),
		Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	_, err := s.ledger.CreateRecord(ctx, inventory.CreateRecordInput{ProductID: id, InitialQuantity: stock})
	s.Require().NoError(err)
	return id
}

func (s *RepositoryIntegrationSuite) customer() string {
	now := time.Now().UTC()
	id := s.ids.NewID()
	s.Require().NoError(s.reads.Customers.Create(context.Background(), &entity.Customer{
		ID: id, Name: "Cliente", Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func (s *RepositoryIntegrationSuite) courier() string {
	now := time.Now().UTC()
	id := s.ids.NewID()
	s.Require().NoError(s.reads.Couriers.Create(context.Background(), &entity.Courier{
		ID: id, Name: "Mensajero", Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func (s *RepositoryIntegrationSuite) quantity(productID string) int {
	q, err := s.ledger.Quantity(context.Background(), productID)
	s.Require().NoError(err)
	return q
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func (s *RepositoryIntegrationSuite) TestPedido_CrearYCancelarReconcilia() {
	ctx := context.Background()
	a := s.product("A-1", 2500, 10)
	b := s.product("B-1", 1000, 5)
	c := s.customer()

	o, err := s.orders.Create(ctx, order.CreateInput{
		CustomerID: c,
		Address:    "Calle 10 # 5-20",
		Items:      []order.ItemInput{{ProductID: a, Quantity: 3}, {ProductID: b, Quantity: 5}},
	})
	s.Require().NoError(err)
	s.True(o.Total.Equal(decimal.NewFromInt(12500)))
	s.Equal(7, s.quantity(a))
	s.Equal(0, s.quantity(b))

	got, err := s.orders.Get(ctx, o.ID)
	s.Require().NoError(err)
	s.Len(got.Items, 2)

	res, err := s.orders.Cancel(ctx, o.ID, "cliente no estaba")
	s.Require().NoError(err)
	s.False(res.Partial())
	s.Equal(10, s.quantity(a))
	s.Equal(5, s.quantity(b))

	for _, pid := range []string{a, b} {
		rec, err := s.ledger.Reconcile(ctx, pid)
		s.Require().NoError(err)
		s.True(rec.Consistent(), "producto %s: %+v", pid, rec)
	}
}

func (s *RepositoryIntegrationSuite) TestPedido_StockInsuficienteNoPersisteNada() {
	ctx := context.Background()
	a := s.product("A-2", 100, 10)
	b := s.product("B-2", 100, 1)
	c := s.customer()

	_, err := s.orders.Create(ctx, order.CreateInput{
		CustomerID: c,
		Address:    "Calle 1",
		Items:      []order.ItemInput{{ProductID: a, Quantity: 4}, {ProductID: b, Quantity: 2}},
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(10, s.quantity(a))

	list, err := s.orders.List(ctx, repository.OrderFilter{}, 10, 0)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RepositoryIntegrationSuite) TestLedger_ConcurrenciaNuncaNegativo() {
	ctx := context.Background()
	p := s.product("C-1", 100, 10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ledger.Deduct(ctx, p, 1, "venta concurrente", nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	s.Equal(10, ok)
	s.Equal(10, fail)
	s.Equal(0, s.quantity(p))
}

func (s *RepositoryIntegrationSuite) TestTxRunner_SavepointDeshaceSoloLoAnidado() {
	ctx := context.Background()
	p := s.product("D-1", 100, 10)
	errBoom := errors.New("boom")

	err := s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := s.ledger.DeductInTx(ctx, repos, p, 2, "externo", nil); err != nil {
			return err
		}
		inner := s.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
			if _, err := s.ledger.DeductInTx(ctx, repos, p, 5, "anidado", nil); err != nil {
				return err
			}
			return errBoom
		})
		s.ErrorIs(inner, errBoom)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(8, s.quantity(p))
}

func (s *RepositoryIntegrationSuite) TestRuta_UnicidadEntreRutasAbiertas() {
	ctx := context.Background()
	a := s.product("E-1", 100, 10)
	c := s.customer()
	m := s.courier()
	o, err := s.orders.Create(ctx, order.CreateInput{
		CustomerID: c, Address: "Calle 2", Items: []order.ItemInput{{ProductID: a, Quantity: 1}},
	})
	s.Require().NoError(err)

	first, err := s.routes.Create(ctx, route.CreateInput{CourierID: m, PlannedDate: time.Now(), OrderIDs: []string{o.ID}})
	s.Require().NoError(err)
	second, err := s.routes.Create(ctx, route.CreateInput{CourierID: m, PlannedDate: time.Now()})
	s.Require().NoError(err)

	_, err = s.routes.AssignOrders(ctx, second.ID, []string{o.ID})
	s.Require().ErrorIs(err, domain.ErrConflict)

	_, err = s.routes.Transition(ctx, first.ID, entity.RouteCancelled)
	s.Require().NoError(err)
	rt, err := s.routes.AssignOrders(ctx, second.ID, []string{o.ID, o.ID})
	s.Require().NoError(err)
	s.Equal([]string{o.ID}, rt.OrderIDs)

	rt, err = s.routes.RemoveOrder(ctx, second.ID, o.ID)
	s.Require().NoError(err)
	s.Empty(rt.OrderIDs)
}

func (s *RepositoryIntegrationSuite) TestIdMalformado_EsNotFound() {
	ctx := context.Background()
	a := s.product("F-1", 100, 10)
	c := s.customer()
	m := s.courier()

	_, err := s.orders.Get(ctx, "abc")
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.routes.Create(ctx, route.CreateInput{CourierID: m, PlannedDate: time.Now(), OrderIDs: []string{"abc"}})
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.routes.Create(ctx, route.CreateInput{CourierID: "abc", PlannedDate: time.Now()})
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.orders.Create(ctx, order.CreateInput{
		CustomerID: c, Address: "Calle 3", Items: []order.ItemInput{{ProductID: "abc", Quantity: 1}},
	})
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.ledger.Adjust(ctx, "abc", 5, "entrada")
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.ledger.Get(ctx, "abc")
	s.ErrorIs(err, domain.ErrNotFound)

	list, err := s.orders.List(ctx, repository.OrderFilter{CustomerID: "abc"}, 10, 0)
	s.Require().NoError(err)
	s.Empty(list)

	// la transacción no queda abortada: el mismo caso de uso sigue funcionando
	o, err := s.orders.Create(ctx, order.CreateInput{
		CustomerID: c, Address: "Calle 3", Items: []order.ItemInput{{ProductID: a, Quantity: 1}},
	})
	s.Require().NoError(err)
	_, err = s.routes.RemoveOrder(ctx, s.ids.NewID(), o.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}
