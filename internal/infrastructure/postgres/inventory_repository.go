package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const inventoryColumns = `id, product_id, quantity, min_stock, location, active, created_at, updated_at`

// InventoryRepo registros de existencias sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

type inventoryRow struct {
	ID        string    `db:"id"`
	ProductID string    `db:"product_id"`
	Quantity  int       `db:"quantity"`
	MinStock  int       `db:"min_stock"`
	Location  string    `db:"location"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r inventoryRow) toEntity() *entity.InventoryRecord {
	rec := entity.InventoryRecord(r)
	return &rec
}

// GetByProduct obtiene el registro del producto o nil.
func (r *InventoryRepo) GetByProduct(ctx context.Context, productID string) (*entity.InventoryRecord, error) {
	if !isUUID(productID) {
		return nil, nil
	}
	var rec entity.InventoryRecord
	err := r.q.QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_records WHERE product_id = $1`, productID,
	).Scan(&rec.ID, &rec.ProductID, &rec.Quantity, &rec.MinStock, &rec.Location, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return &rec, nil
}

// Create inserta el registro; domain.ErrDuplicate si el producto ya tiene uno.
func (r *InventoryRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_records (`+inventoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.ProductID, rec.Quantity, rec.MinStock, rec.Location, rec.Active, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory record: %w", err)
	}
	return nil
}

// CreateIfAbsent inserta con ON CONFLICT DO NOTHING y devuelve la fila vigente.
func (r *InventoryRepo) CreateIfAbsent(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_records (`+inventoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id) DO NOTHING`,
		rec.ID, rec.ProductID, rec.Quantity, rec.MinStock, rec.Location, rec.Active, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory record: %w", err)
	}
	existing, err := r.GetByProduct(ctx, rec.ProductID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("inventory record for %s vanished after insert", rec.ProductID)
	}
	return existing, nil
}

// ApplyDelta actualización condicional en una sola sentencia: la fila queda bloqueada
// hasta el fin de la transacción y la cantidad nunca baja de cero.
func (r *InventoryRepo) ApplyDelta(ctx context.Context, productID string, delta int) (int, bool, error) {
	if !isUUID(productID) {
		return 0, false, nil
	}
	var after int
	err := r.q.QueryRow(ctx, `
		UPDATE inventory_records
		SET quantity = quantity + $2, updated_at = now()
		WHERE product_id = $1 AND quantity + $2 >= 0
		RETURNING quantity`,
		productID, delta,
	).Scan(&after)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("apply inventory delta: %w", err)
	}
	return after, true, nil
}

// UpdateSettings persiste ubicación, umbral y flag activo.
func (r *InventoryRepo) UpdateSettings(ctx context.Context, rec *entity.InventoryRecord) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_records SET location = $2, min_stock = $3, active = $4, updated_at = $5
		WHERE product_id = $1`,
		rec.ProductID, rec.Location, rec.MinStock, rec.Active, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory settings: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InventoryRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.InventoryRecord, error) {
	q := psql.Select(inventoryColumns).From("inventory_records").
		OrderBy("created_at", "id").
		Limit(uint64(limit)).Offset(uint64(offset))
	if activeOnly {
		q = q.Where("active")
	}
	return r.selectRecords(ctx, q.ToSql)
}

// ListLowStock registros activos con quantity <= min_stock.
func (r *InventoryRepo) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.InventoryRecord, error) {
	q := psql.Select(inventoryColumns).From("inventory_records").
		Where("active").
		Where("quantity <= min_stock").
		OrderBy("created_at", "id").
		Limit(uint64(limit)).Offset(uint64(offset))
	return r.selectRecords(ctx, q.ToSql)
}

func (r *InventoryRepo) selectRecords(ctx context.Context, build func() (string, []any, error)) ([]*entity.InventoryRecord, error) {
	sql, args, err := build()
	if err != nil {
		return nil, fmt.Errorf("build inventory query: %w", err)
	}
	var rows []inventoryRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	out := make([]*entity.InventoryRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, type, quantity, delta, reason, order_id, quantity_before, quantity_after, created_at`

// MovementRepo historial append-only de movimientos (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

type movementRow struct {
	ID             string    `db:"id"`
	ProductID      string    `db:"product_id"`
	Type           string    `db:"type"`
	Quantity       int       `db:"quantity"`
	Delta          int       `db:"delta"`
	Reason         string    `db:"reason"`
	OrderID        *string   `db:"order_id"`
	QuantityBefore int       `db:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r movementRow) toEntity() (*entity.Movement, error) {
	typ, err := entity.ParseMovementType(r.Type)
	if err != nil {
		return nil, err
	}
	return &entity.Movement{
		ID: r.ID, ProductID: r.ProductID, Type: typ, Quantity: r.Quantity, Delta: r.Delta,
		Reason: r.Reason, OrderID: r.OrderID, QuantityBefore: r.QuantityBefore,
		QuantityAfter: r.QuantityAfter, CreatedAt: r.CreatedAt,
	}, nil
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.ProductID, string(m.Type), m.Quantity, m.Delta, m.Reason, m.OrderID,
		m.QuantityBefore, m.QuantityAfter, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByProduct más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	if !isUUID(productID) {
		return []*entity.Movement{}, nil
	}
	q := psql.Select(movementColumns).From("inventory_movements").
		Where("product_id = ?", productID).
		OrderBy("seq DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
	return r.selectMovements(ctx, q.ToSql)
}

// ListByOrder en orden de registro.
func (r *MovementRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Movement, error) {
	if !isUUID(orderID) {
		return []*entity.Movement{}, nil
	}
	q := psql.Select(movementColumns).From("inventory_movements").
		Where("order_id = ?", orderID).
		OrderBy("seq")
	return r.selectMovements(ctx, q.ToSql)
}

func (r *MovementRepo) Latest(ctx context.Context, productID string) (*entity.Movement, error) {
	list, err := r.ListByProduct(ctx, productID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *MovementRepo) SumDeltas(ctx context.Context, productID string) (int, int, error) {
	if !isUUID(productID) {
		return 0, 0, nil
	}
	var sum, count int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0), COUNT(*)
		FROM inventory_movements WHERE product_id = $1`, productID,
	).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("sum movement deltas: %w", err)
	}
	return sum, count, nil
}

func (r *MovementRepo) selectMovements(ctx context.Context, build func() (string, []any, error)) ([]*entity.Movement, error) {
	sql, args, err := build()
	if err != nil {
		return nil, fmt.Errorf("build movement query: %w", err)
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	out := make([]*entity.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
