package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

var _ repository.RouteRepository = (*RouteRepo)(nil)

const routeColumns = `id, courier_id, status, planned_date, distance_km, estimated_minutes, active, started_at, finished_at, created_at, updated_at`

// RouteRepo rutas y la tabla route_orders (usable con pool o tx).
type RouteRepo struct {
	q Querier
}

// NewRouteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRouteRepository(q Querier) *RouteRepo {
	return &RouteRepo{q: q}
}

type routeRow struct {
	ID               string     `db:"id"`
	CourierID        string     `db:"courier_id"`
	Status           string     `db:"status"`
	PlannedDate      time.Time  `db:"planned_date"`
	DistanceKm       *float64   `db:"distance_km"`
	EstimatedMinutes *int       `db:"estimated_minutes"`
	Active           bool       `db:"active"`
	StartedAt        *time.Time `db:"started_at"`
	FinishedAt       *time.Time `db:"finished_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r routeRow) toEntity() *entity.Route {
	return &entity.Route{
		ID: r.ID, CourierID: r.CourierID, Status: entity.RouteStatus(r.Status),
		PlannedDate: r.PlannedDate, DistanceKm: r.DistanceKm, EstimatedMinutes: r.EstimatedMinutes,
		Active: r.Active, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, OrderIDs: []string{},
	}
}

type routeOrderRow struct {
	RouteID string `db:"route_id"`
	OrderID string `db:"order_id"`
}

// Create inserta la ruta y sus pedidos en el orden recibido.
func (r *RouteRepo) Create(ctx context.Context, rt *entity.Route) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO routes (`+routeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rt.ID, rt.CourierID, string(rt.Status), rt.PlannedDate, rt.DistanceKm, rt.EstimatedMinutes,
		rt.Active, rt.StartedAt, rt.FinishedAt, rt.CreatedAt, rt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert route: %w", err)
	}
	if len(rt.OrderIDs) == 0 {
		return nil
	}
	ins := psql.Insert("route_orders").Columns("route_id", "order_id", "position")
	for i, orderID := range rt.OrderIDs {
		ins = ins.Values(rt.ID, orderID, i)
	}
	sql, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert route orders: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert route orders: %w", err)
	}
	return nil
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*entity.Route, error) {
	return r.get(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la ruta hasta el fin de la transacción.
func (r *RouteRepo) GetForUpdate(ctx context.Context, id string) (*entity.Route, error) {
	return r.get(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1 FOR UPDATE`, id)
}

func (r *RouteRepo) get(ctx context.Context, query, id string) (*entity.Route, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var row routeRow
	if err := pgxscan.Get(ctx, r.q, &row, query, id); err != nil {
		if pgxscan.NotFound(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get route: %w", err)
	}
	rt := row.toEntity()
	ids, err := r.orderIDs(ctx, []string{rt.ID})
	if err != nil {
		return nil, err
	}
	if got, ok := ids[rt.ID]; ok {
		rt.OrderIDs = got
	}
	return rt, nil
}

func (r *RouteRepo) orderIDs(ctx context.Context, routeIDs []string) (map[string][]string, error) {
	sql, args, err := psql.Select("route_id", "order_id").From("route_orders").
		Where(squirrel.Eq{"route_id": routeIDs}).
		OrderBy("route_id", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select route orders: %w", err)
	}
	var rows []routeOrderRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list route orders: %w", err)
	}
	out := make(map[string][]string, len(routeIDs))
	for _, row := range rows {
		out[row.RouteID] = append(out[row.RouteID], row.OrderID)
	}
	return out, nil
}

// Update persiste estado, métricas, marcas de tiempo y flag activo. No toca route_orders.
func (r *RouteRepo) Update(ctx context.Context, rt *entity.Route) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE routes SET status = $2, planned_date = $3, distance_km = $4, estimated_minutes = $5,
			active = $6, started_at = $7, finished_at = $8, updated_at = $9
		WHERE id = $1`,
		rt.ID, string(rt.Status), rt.PlannedDate, rt.DistanceKm, rt.EstimatedMinutes,
		rt.Active, rt.StartedAt, rt.FinishedAt, rt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update route: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AttachOrder agrega el pedido al final de la ruta; si ya estaba no hace nada.
func (r *RouteRepo) AttachOrder(ctx context.Context, routeID, orderID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO route_orders (route_id, order_id, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0) FROM route_orders WHERE route_id = $1
		ON CONFLICT (route_id, order_id) DO NOTHING`,
		routeID, orderID,
	)
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}
	return nil
}

func (r *RouteRepo) DetachOrder(ctx context.Context, routeID, orderID string) (bool, error) {
	if !isUUID(routeID) || !isUUID(orderID) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM route_orders WHERE route_id = $1 AND order_id = $2`, routeID, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("detach order: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// OpenRouteForOrder ruta PLANNED o IN_PROGRESS que contiene el pedido, o "".
func (r *RouteRepo) OpenRouteForOrder(ctx context.Context, orderID, excludeRouteID string) (string, error) {
	if !isUUID(orderID) {
		return "", nil
	}
	q := psql.Select("r.id").
		From("route_orders ro").
		Join("routes r ON r.id = ro.route_id").
		Where(squirrel.Eq{"ro.order_id": orderID}).
		Where(squirrel.Eq{"r.status": []string{string(entity.RoutePlanned), string(entity.RouteInProgress)}}).
		Limit(1)
	if excludeRouteID != "" {
		q = q.Where(squirrel.NotEq{"r.id": excludeRouteID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build open route query: %w", err)
	}
	var id string
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find open route: %w", err)
	}
	return id, nil
}

// List más recientes primero.
func (r *RouteRepo) List(ctx context.Context, f repository.RouteFilter, limit, offset int) ([]*entity.Route, error) {
	q := psql.Select(routeColumns).From("routes").
		OrderBy("seq DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
	if f.CourierID != "" {
		if !isUUID(f.CourierID) {
			return []*entity.Route{}, nil
		}
		q = q.Where(squirrel.Eq{"courier_id": f.CourierID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*f.Status)})
	}
	if f.ActiveOnly {
		q = q.Where("active")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list routes: %w", err)
	}
	var rows []routeRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	out := make([]*entity.Route, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	orderIDs, err := r.orderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		rt := row.toEntity()
		if got, ok := orderIDs[rt.ID]; ok {
			rt.OrderIDs = got
		}
		out = append(out, rt)
	}
	return out, nil
}
