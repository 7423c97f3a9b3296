package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

var tracer = otel.Tracer("gestor-api/tx")

var _ repository.TxRunner = (*TxRunner)(nil)

// txKey clave de contexto de la transacción activa.
type txKey struct{}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si ctx ya lleva una transacción, abre un savepoint (pgx.Tx.Begin) y solo ese tramo
// se deshace cuando fn falla.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	parent, nested := ctx.Value(txKey{}).(pgx.Tx)

	ctx, span := tracer.Start(ctx, "transaction", trace.WithAttributes(attribute.Bool("tx.nested", nested)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var tx pgx.Tx
	if nested {
		tx, err = parent.Begin(ctx)
		if err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}
	} else {
		tx, err = r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
	}
	// Rollback tras Commit es no-op; con ctx de fondo para que complete aunque ctx se cancele.
	defer func() { _ = tx.Rollback(context.Background()) }()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx, NewRepos(tx)); err != nil {
		return txError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		if nested {
			return fmt.Errorf("release savepoint: %w", err)
		}
		return txError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// NewRepos repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Products:  NewProductRepository(q),
		Customers: NewCustomerRepository(q),
		Couriers:  NewCourierRepository(q),
		Inventory: NewInventoryRepository(q),
		Movements: NewMovementRepository(q),
		Orders:    NewOrderRepository(q),
		Routes:    NewRouteRepository(q),
	}
}
