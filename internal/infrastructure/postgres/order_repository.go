package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, code, customer_id, address, notes, status, total, active, created_at, updated_at, delivered_at`

// OrderRepo pedidos con sus ítems (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

type orderRow struct {
	ID          string          `db:"id"`
	Code        string          `db:"code"`
	CustomerID  string          `db:"customer_id"`
	Address     string          `db:"address"`
	Notes       string          `db:"notes"`
	Status      string          `db:"status"`
	Total       decimal.Decimal `db:"total"`
	Active      bool            `db:"active"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	DeliveredAt *time.Time      `db:"delivered_at"`
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID: r.ID, Code: r.Code, CustomerID: r.CustomerID, Address: r.Address, Notes: r.Notes,
		Status: entity.OrderStatus(r.Status), Total: r.Total, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, DeliveredAt: r.DeliveredAt,
	}
}

type orderItemRow struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal"`
}

// Create inserta la cabecera y los ítems en un batch.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.Code, o.CustomerID, o.Address, o.Notes, string(o.Status), o.Total, o.Active,
		o.CreatedAt, o.UpdatedAt, o.DeliveredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	if len(o.Items) == 0 {
		return nil
	}
	ins := psql.Insert("order_items").
		Columns("id", "order_id", "product_id", "quantity", "unit_price", "subtotal", "position")
	for i, it := range o.Items {
		ins = ins.Values(it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal, i)
	}
	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order items: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del pedido hasta el fin de la transacción.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var row orderRow
	if err := pgxscan.Get(ctx, r.q, &row, query, id); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o := row.toEntity()
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *OrderRepo) items(ctx context.Context, orderIDs []string) (map[string][]entity.OrderItem, error) {
	sql, args, err := psql.Select("id", "order_id", "product_id", "quantity", "unit_price", "subtotal").
		From("order_items").
		Where(squirrel.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order items: %w", err)
	}
	var rows []orderItemRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	out := make(map[string][]entity.OrderItem, len(orderIDs))
	for _, it := range rows {
		out[it.OrderID] = append(out[it.OrderID], entity.OrderItem(it))
	}
	return out, nil
}

// Update persiste estado, notas, fecha de entrega y flag activo.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, notes = $3, address = $4, active = $5, updated_at = $6, delivered_at = $7
		WHERE id = $1`,
		o.ID, string(o.Status), o.Notes, o.Address, o.Active, o.UpdatedAt, o.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más recientes primero, con ítems.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter, limit, offset int) ([]*entity.Order, error) {
	q := psql.Select(orderColumns).From("orders").
		OrderBy("seq DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*f.Status)})
	}
	if f.CustomerID != "" {
		if !isUUID(f.CustomerID) {
			return []*entity.Order{}, nil
		}
		q = q.Where(squirrel.Eq{"customer_id": f.CustomerID})
	}
	if f.ActiveOnly {
		q = q.Where("active")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders: %w", err)
	}
	var rows []orderRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(rows) == 0 {
		return []*entity.Order{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		o := row.toEntity()
		o.Items = items[o.ID]
		out = append(out, o)
	}
	return out, nil
}

// CountByStatus pedidos activos en el estado dado.
func (r *OrderRepo) CountByStatus(ctx context.Context, status entity.OrderStatus) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1 AND active`, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
