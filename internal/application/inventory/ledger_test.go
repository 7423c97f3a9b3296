package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/internal/application/inventory"
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
	clock  *clock.Fixed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFixed(time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC))
	return &fixture{
		store:  store,
		ledger: inventory.NewLedger(store, store.Repos(), clk, &clock.Sequence{}, zerolog.Nop()),
		clock:  clk,
	}
}

func (f *fixture) product(t *testing.T, id string, active bool) {
	t.Helper()
	require.NoError(t, f.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Price: decimal.NewFromInt(1000), Active: active,
	}))
}

// stocked crea producto activo con registro y cantidad inicial.
func (f *fixture) stocked(t *testing.T, id string, qty, minStock int) {
	t.Helper()
	f.product(t, id, true)
	_, err := f.ledger.CreateRecord(context.Background(), inventory.CreateRecordInput{
		ProductID: id, InitialQuantity: qty, MinStock: minStock,
	})
	require.NoError(t, err)
}

func (f *fixture) assertReconciles(t *testing.T, productID string) {
	t.Helper()
	rep, err := f.ledger.Reconcile(context.Background(), productID)
	require.NoError(t, err)
	assert.Truef(t, rep.Consistent(), "cantidad %d, suma deltas %d", rep.Quantity, rep.SumOfDeltas)
}

// ──────────────────────────────────────────────────────────────────────────────
// Deduct
// ──────────────────────────────────────────────────────────────────────────────

func TestDeduct_DescuentaYRegistraSalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 10, 2)

	mov, err := f.ledger.Deduct(ctx, "P", 4, "sale", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementSalida, mov.Type)
	assert.Equal(t, 4, mov.Quantity)
	assert.Equal(t, -4, mov.Delta)
	assert.Equal(t, 10, mov.QuantityBefore)
	assert.Equal(t, 6, mov.QuantityAfter)

	qty, err := f.ledger.Quantity(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 6, qty)

	hist, err := f.ledger.History(ctx, "P", 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2, "inventario inicial + salida")
	assert.Equal(t, mov.ID, hist[0].ID, "el más reciente primero")
	f.assertReconciles(t, "P")
}

func TestDeduct_StockInsuficienteNoCambiaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 3, 0)

	_, err := f.ledger.Deduct(ctx, "P", 5, "sale", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)

	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 3, de.Details["available"])
	assert.Equal(t, 5, de.Details["requested"])

	qty, _ := f.ledger.Quantity(ctx, "P")
	assert.Equal(t, 3, qty)
	hist, _ := f.ledger.History(ctx, "P", 10, 0)
	assert.Len(t, hist, 1, "solo el inventario inicial")
}

func TestDeduct_ExactamenteTodoElStock(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 4, 0)
	_, err := f.ledger.Deduct(context.Background(), "P", 4, "sale", nil)
	require.NoError(t, err)
	qty, _ := f.ledger.Quantity(context.Background(), "P")
	assert.Equal(t, 0, qty)
}

func TestDeduct_CantidadNoPositivaEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 4, 0)
	for _, q := range []int{0, -1} {
		_, err := f.ledger.Deduct(context.Background(), "P", q, "sale", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestDeduct_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Deduct(context.Background(), "nope", 1, "sale", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeduct_ConcurrenteNuncaSobrevende(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 10, 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Deduct(ctx, "P", 1, "sale", nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	qty, _ := f.ledger.Quantity(ctx, "P")
	assert.Equal(t, 0, qty)
	f.assertReconciles(t, "P")
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust / Revert
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_PositivoYNegativo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "P", true)

	rec, err := f.ledger.Adjust(ctx, "P", 7, "compra")
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Quantity)
	assert.Equal(t, entity.DefaultLocation, rec.Location, "registro creado de forma perezosa")

	rec, err = f.ledger.Adjust(ctx, "P", -2, "merma")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Quantity)

	hist, _ := f.ledger.History(ctx, "P", 10, 0)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.MovementSalida, hist[0].Type)
	assert.Equal(t, entity.MovementEntrada, hist[1].Type)
	f.assertReconciles(t, "P")
}

func TestAdjust_NoPuedeDejarNegativo(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 2, 0)
	_, err := f.ledger.Adjust(context.Background(), "P", -3, "merma")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	qty, _ := f.ledger.Quantity(context.Background(), "P")
	assert.Equal(t, 2, qty)
}

func TestAdjust_DeltaCeroEsInvalido(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 2, 0)
	_, err := f.ledger.Adjust(context.Background(), "P", 0, "nada")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRevert_NoEsIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 5, 0)
	orderID := "o-1"

	_, err := f.ledger.Revert(ctx, "P", 2, "devolución", &orderID)
	require.NoError(t, err)
	_, err = f.ledger.Revert(ctx, "P", 2, "devolución", &orderID)
	require.NoError(t, err)

	qty, _ := f.ledger.Quantity(ctx, "P")
	assert.Equal(t, 9, qty, "dos reversiones suman dos veces")

	movs, err := f.ledger.OrderMovements(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, movs, 2, "la duplicación queda visible para conciliar")
}

func TestRevert_CantidadCeroNoRegistraMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 5, 0)
	orderID := "o-2"

	mov, err := f.ledger.Revert(ctx, "P", 0, "undo", &orderID)
	require.NoError(t, err)
	assert.Nil(t, mov)

	qty, _ := f.ledger.Quantity(ctx, "P")
	assert.Equal(t, 5, qty)
	movs, err := f.ledger.OrderMovements(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, movs)
	f.assertReconciles(t, "P")
}

func TestRevert_CantidadNegativaEsInvalida(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 5, 0)
	_, err := f.ledger.Revert(context.Background(), "P", -1, "undo", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestGetOrCreate_ProductoInactivo(t *testing.T) {
	f := newFixture(t)
	f.product(t, "P", false)
	_, err := f.ledger.GetOrCreate(context.Background(), "P")
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
}

func TestGetOrCreate_DevuelveExistente(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 8, 1)
	rec, err := f.ledger.GetOrCreate(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, 8, rec.Quantity)
	assert.Equal(t, 1, rec.MinStock)
}

func TestCreateRecord_Duplicado(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 1, 0)
	_, err := f.ledger.CreateRecord(context.Background(), inventory.CreateRecordInput{ProductID: "P"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateRecord_InventarioInicialRegistraEntrada(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "P", 12, 0)
	hist, err := f.ledger.History(context.Background(), "P", 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "Inventario inicial", hist[0].Reason)
	assert.Equal(t, 0, hist[0].QuantityBefore)
	assert.Equal(t, 12, hist[0].QuantityAfter)
}

func TestUpdateSettings_NoTocaCantidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "P", 6, 1)

	loc, minStock := "Bodega A-3", 10
	rec, err := f.ledger.UpdateSettings(ctx, "P", inventory.SettingsInput{Location: &loc, MinStock: &minStock})
	require.NoError(t, err)
	assert.Equal(t, "Bodega A-3", rec.Location)
	assert.Equal(t, 10, rec.MinStock)

	got, err := f.ledger.Get(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
	assert.True(t, got.IsLowStock())
}

func TestListLowStock_SoloActivosBajoUmbral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "A", 2, 2)  // en el umbral
	f.stocked(t, "B", 10, 2) // sobre el umbral
	f.stocked(t, "C", 0, 5)  // bajo, pero se desactiva
	require.NoError(t, f.ledger.Deactivate(ctx, "C"))

	low, err := f.ledger.ListLowStock(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "A", low[0].ProductID)
}

func TestReplenishment_OrdenaPorDeficit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stocked(t, "A", 4, 5)
	f.stocked(t, "B", 0, 6)
	f.stocked(t, "C", 50, 5)

	list, err := f.ledger.Replenishment(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].ProductID)
	assert.Equal(t, 9, list[0].SuggestedQty)
	assert.Equal(t, 1, list[0].Priority)
	assert.Equal(t, "A", list[1].ProductID)
	assert.Equal(t, 8, list[1].IdealStock, "5 × 1.5 redondeado hacia arriba")
	assert.Equal(t, 4, list[1].SuggestedQty)
	assert.Equal(t, "SKU-A", list[1].SKU)
}

type failingProducts struct {
	repository.ProductRepository
	err error
}

func (r failingProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, r.err
}

func TestReplenishment_PropagaErrorDeCatalogo(t *testing.T) {
	f := newFixture(t)
	f.stocked(t, "A", 1, 5)

	errDB := errors.New("catálogo caído")
	reads := f.store.Repos()
	reads.Products = failingProducts{ProductRepository: reads.Products, err: errDB}
	ledger := inventory.NewLedger(f.store, reads, f.clock, &clock.Sequence{}, zerolog.Nop())

	_, err := ledger.Replenishment(context.Background())
	assert.ErrorIs(t, err, errDB)
}
