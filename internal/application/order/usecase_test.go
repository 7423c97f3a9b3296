package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/application/order"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/internal/infrastructure/memory"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store  *memory.Store
	ledger *inventory.Ledger
	orders *order.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWithRunner(t, store, store)
}

// newFixtureWithRunner permite envolver el TxRunner (inyección de fallas).
func newFixtureWithRunner(t *testing.T, store *memory.Store, runner repository.TxRunner) *fixture {
	t.Helper()
	clk := clock.NewFixed(time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC))
	ids := &clock.Sequence{}
	ledger := inventory.NewLedger(runner, store.Repos(), clk, ids, zerolog.Nop())
	return &fixture{
		store:  store,
		ledger: ledger,
		orders: order.NewUseCase(runner, store.Repos(), ledger, clk, ids, zerolog.Nop()),
	}
}

func (f *fixture) customer(t *testing.T, id string, active bool) {
	t.Helper()
	require.NoError(t, f.store.Repos().Customers.Create(context.Background(), &entity.Customer{
		ID: id, Name: "Cliente " + id, Active: active,
	}))
}

func (f *fixture) product(t *testing.T, id string, price string, stock int, active bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Repos().Products.Create(ctx, &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Price: decimal.RequireFromString(price), Active: true,
	}))
	_, err := f.ledger.CreateRecord(ctx, inventory.CreateRecordInput{ProductID: id, InitialQuantity: stock})
	require.NoError(t, err)
	if !active {
		p, _ := f.store.Repos().Products.GetByID(ctx, id)
		p.Active = false
		require.NoError(t, f.store.Repos().Products.Update(ctx, p))
	}
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	q, err := f.ledger.Quantity(context.Background(), productID)
	require.NoError(t, err)
	return q
}

func (f *fixture) orderCount(t *testing.T) int {
	t.Helper()
	list, err := f.orders.List(context.Background(), repository.OrderFilter{}, 100, 0)
	require.NoError(t, err)
	return len(list)
}

func items(pairs ...any) []order.ItemInput {
	out := make([]order.ItemInput, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, order.ItemInput{ProductID: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_DescuentaInventarioYCalculaTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "2500", 10, true)
	f.product(t, "B", "1200.50", 4, true)

	o, err := f.orders.Create(ctx, order.CreateInput{
		CustomerID: "c1",
		Address:    "Cra 7 # 12-34",
		Items:      items("A", 3, "B", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("9901")), o.Total.String())
	assert.Regexp(t, `^PED-20260701-[0-9A-F]{6}$`, o.Code)
	assert.Equal(t, 7, f.stock(t, "A"))
	assert.Equal(t, 2, f.stock(t, "B"))

	movs, err := f.ledger.OrderMovements(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementSalida, m.Type)
		assert.Contains(t, m.Reason, o.Code)
	}
}

func TestCreate_DescuentaEnOrdenDeProducto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	f.product(t, "B", "10", 10, true)
	f.product(t, "C", "10", 10, true)

	o, err := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("C", 1, "A", 2, "B", 3)})
	require.NoError(t, err)
	require.Len(t, o.Items, 3)
	assert.Equal(t, "C", o.Items[0].ProductID, "los ítems conservan el orden de entrada")

	movs, err := f.ledger.OrderMovements(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{movs[0].ProductID, movs[1].ProductID, movs[2].ProductID})

	_, err = f.orders.Cancel(ctx, o.ID, "x")
	require.NoError(t, err)
	movs, err = f.ledger.OrderMovements(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, movs, 6)
	assert.Equal(t, []string{"A", "B", "C"}, []string{movs[3].ProductID, movs[4].ProductID, movs[5].ProductID})
}

func TestCreate_PrecioExplicitoSobreescribeCatalogo(t *testing.T) {
	f := newFixture(t)
	f.customer(t, "c1", true)
	f.product(t, "A", "2500", 10, true)
	override := decimal.RequireFromString("1999.99")

	o, err := f.orders.Create(context.Background(), order.CreateInput{
		CustomerID: "c1",
		Address:    "Calle 1",
		Items:      []order.ItemInput{{ProductID: "A", Quantity: 2, UnitPrice: &override}},
	})
	require.NoError(t, err)
	assert.True(t, o.Items[0].UnitPrice.Equal(override))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("3999.98")))
}

func TestCreate_PrecioDelCatalogoSeCopiaAlMomentoDelPedido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "100", 10, true)

	o, err := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 1)})
	require.NoError(t, err)

	p, _ := f.store.Repos().Products.GetByID(ctx, "A")
	p.Price = decimal.NewFromInt(500)
	require.NoError(t, f.store.Repos().Products.Update(ctx, p))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
}

// Un ítem sin stock revierte todo: ni descuentos parciales ni pedido.
func TestCreate_StockInsuficienteEsAtomico(t *testing.T) {
	f := newFixture(t)
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 5, true)
	f.product(t, "B", "10", 2, true)

	_, err := f.orders.Create(context.Background(), order.CreateInput{
		CustomerID: "c1",
		Address:    "Calle 1",
		Items:      items("A", 3, "B", 10),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "B", de.Details["product_id"])

	assert.Equal(t, 5, f.stock(t, "A"), "el descuento de A se deshace")
	assert.Equal(t, 2, f.stock(t, "B"))
	assert.Equal(t, 0, f.orderCount(t))
}

func TestCreate_ErroresDeReferencia(t *testing.T) {
	f := newFixture(t)
	f.customer(t, "activo", true)
	f.customer(t, "inactivo", false)
	f.product(t, "A", "10", 5, true)
	f.product(t, "X", "10", 5, false)

	cases := []struct {
		name string
		in   order.CreateInput
		want error
	}{
		{"cliente inexistente", order.CreateInput{CustomerID: "nadie", Address: "x", Items: items("A", 1)}, domain.ErrNotFound},
		{"cliente inactivo", order.CreateInput{CustomerID: "inactivo", Address: "x", Items: items("A", 1)}, domain.ErrBusinessRule},
		{"producto inexistente", order.CreateInput{CustomerID: "activo", Address: "x", Items: items("A", 1, "Z", 1)}, domain.ErrNotFound},
		{"producto inactivo", order.CreateInput{CustomerID: "activo", Address: "x", Items: items("A", 1, "X", 1)}, domain.ErrBusinessRule},
		{"sin ítems", order.CreateInput{CustomerID: "activo", Address: "x"}, domain.ErrInvalidInput},
		{"cantidad cero", order.CreateInput{CustomerID: "activo", Address: "x", Items: items("A", 0)}, domain.ErrInvalidInput},
		{"sin dirección", order.CreateInput{CustomerID: "activo", Items: items("A", 1)}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 0, f.orderCount(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transition
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_AvanceYRetrocesoInvalido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 5, true)
	o, err := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 1)})
	require.NoError(t, err)

	o, err = f.orders.Transition(ctx, o.ID, entity.OrderProcessing)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderProcessing, o.Status)

	_, err = f.orders.Transition(ctx, o.ID, entity.OrderPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, entity.OrderProcessing, got.Status)
}

func TestTransition_EntregadoEsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 5, true)
	o, _ := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 1)})

	for _, st := range []entity.OrderStatus{entity.OrderProcessing, entity.OrderInTransit, entity.OrderDelivered} {
		_, err := f.orders.Transition(ctx, o.ID, st)
		require.NoError(t, err)
	}
	got, _ := f.orders.Get(ctx, o.ID)
	require.NotNil(t, got.DeliveredAt)

	for _, st := range entity.OrderStatuses {
		_, err := f.orders.Transition(ctx, o.ID, st)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, st)
	}
	assert.Equal(t, 4, f.stock(t, "A"), "las transiciones no tocan inventario")
}

func TestTransition_PedidoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.Transition(context.Background(), "nope", entity.OrderProcessing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_DevuelveStockYRegistraEntrada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)

	o, err := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Notes: "portería", Items: items("A", 2)})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, "A"))

	res, err := f.orders.Cancel(ctx, o.ID, "customer request")
	require.NoError(t, err)
	assert.False(t, res.Partial())
	assert.Equal(t, entity.OrderCancelled, res.Order.Status)
	assert.Equal(t, "portería | CANCELADO: customer request", res.Order.Notes)
	assert.Equal(t, 10, f.stock(t, "A"))

	movs, err := f.ledger.OrderMovements(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	reversal := movs[1]
	assert.Equal(t, entity.MovementEntrada, reversal.Type)
	assert.Equal(t, 2, reversal.Quantity)
	require.NotNil(t, reversal.OrderID)
	assert.Equal(t, o.ID, *reversal.OrderID)
	assert.Equal(t, "Cancelación de pedido - customer request", reversal.Reason)

	rep, err := f.ledger.Reconcile(ctx, "A")
	require.NoError(t, err)
	assert.True(t, rep.Consistent())
}

func TestCancel_SegundaVezFallaSinDobleReversion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	o, _ := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 3)})

	_, err := f.orders.Cancel(ctx, o.ID, "uno")
	require.NoError(t, err)
	_, err = f.orders.Cancel(ctx, o.ID, "dos")
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
	assert.Equal(t, 10, f.stock(t, "A"))
}

func TestCancel_EntregadoNoSeCancela(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	o, _ := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 3)})
	for _, st := range []entity.OrderStatus{entity.OrderProcessing, entity.OrderInTransit, entity.OrderDelivered} {
		_, err := f.orders.Transition(ctx, o.ID, st)
		require.NoError(t, err)
	}

	_, err := f.orders.Cancel(ctx, o.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
	assert.Equal(t, 7, f.stock(t, "A"))
}

// failingRevertRunner, una vez armado, hace fallar los incrementos de stock de un producto.
type failingRevertRunner struct {
	inner     repository.TxRunner
	productID string
	armed     bool
}

func (r *failingRevertRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if r.armed {
			repos.Inventory = failingInventory{InventoryRepository: repos.Inventory, productID: r.productID}
		}
		return fn(ctx, repos)
	})
}

type failingInventory struct {
	repository.InventoryRepository
	productID string
}

var errDisk = errors.New("disk full")

func (f failingInventory) ApplyDelta(ctx context.Context, productID string, delta int) (int, bool, error) {
	if productID == f.productID && delta > 0 {
		return 0, false, errDisk
	}
	return f.InventoryRepository.ApplyDelta(ctx, productID, delta)
}

func TestCancel_ReversionFallidaEsExitoParcial(t *testing.T) {
	store := memory.NewStore()
	runner := &failingRevertRunner{inner: store, productID: "B"}
	f := newFixtureWithRunner(t, store, runner)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	f.product(t, "B", "10", 10, true)

	o, err := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 2, "B", 3)})
	require.NoError(t, err)

	runner.armed = true
	res, err := f.orders.Cancel(ctx, o.ID, "cliente")
	require.NoError(t, err, "la cancelación no se aborta")
	assert.True(t, res.Partial())
	require.Len(t, res.FailedReversals, 1)
	assert.Equal(t, "B", res.FailedReversals[0].ProductID)
	assert.Equal(t, 3, res.FailedReversals[0].Quantity)
	assert.ErrorIs(t, res.FailedReversals[0].Err, errDisk)

	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, entity.OrderCancelled, got.Status)
	assert.Equal(t, 10, f.stock(t, "A"), "la reversión exitosa se confirma")
	assert.Equal(t, 7, f.stock(t, "B"), "la fallida queda pendiente de conciliar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas y baja lógica
// ──────────────────────────────────────────────────────────────────────────────

func TestDeactivate_NoCambiaEstadoNiInventario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	o, _ := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 3)})

	require.NoError(t, f.orders.Deactivate(ctx, o.ID))
	got, _ := f.orders.Get(ctx, o.ID)
	assert.False(t, got.Active)
	assert.Equal(t, entity.OrderPending, got.Status)
	assert.Equal(t, 7, f.stock(t, "A"))

	active, err := f.orders.List(ctx, repository.OrderFilter{ActiveOnly: true}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCountAll_PorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "c1", true)
	f.product(t, "A", "10", 10, true)
	o1, _ := f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 1)})
	_, _ = f.orders.Create(ctx, order.CreateInput{CustomerID: "c1", Address: "x", Items: items("A", 1)})
	_, err := f.orders.Transition(ctx, o1.ID, entity.OrderProcessing)
	require.NoError(t, err)

	counts, err := f.orders.CountAll(ctx)
	require.NoError(t, err)
	byStatus := map[string]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	assert.Equal(t, 1, byStatus["PENDING"])
	assert.Equal(t, 1, byStatus["PROCESSING"])
	assert.Equal(t, 0, byStatus["DELIVERED"])
}
