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

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.CourierRepository  = (*CourierRepo)(nil)
)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

type customerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, phone, address, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Phone, customer.Address,
		customer.Active, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, name, email, phone, address, active, created_at, updated_at
		FROM customers WHERE id = $1`
	var c entity.Customer
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Update actualiza datos de contacto y estado.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE customers SET name = $2, email = $3, phone = $4, address = $5, active = $6, updated_at = $7
		WHERE id = $1`,
		customer.ID, customer.Name, customer.Email, customer.Phone, customer.Address,
		customer.Active, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista clientes con paginación.
func (r *CustomerRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Customer, error) {
	q := psql.Select("id", "name", "email", "phone", "address", "active", "created_at", "updated_at").
		From("customers").
		OrderBy("created_at", "id").
		Limit(uint64(limit)).Offset(uint64(offset))
	if activeOnly {
		q = q.Where("active")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list customers: %w", err)
	}
	var rows []customerRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]*entity.Customer, 0, len(rows))
	for _, c := range rows {
		out = append(out, &entity.Customer{
			ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address,
			Active: c.Active, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		})
	}
	return out, nil
}

// CourierRepo implementación de CourierRepository (usable con pool o tx).
type CourierRepo struct {
	q Querier
}

func NewCourierRepository(q Querier) *CourierRepo {
	return &CourierRepo{q: q}
}

type courierRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *CourierRepo) Create(ctx context.Context, c *entity.Courier) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO couriers (id, name, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Phone, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert courier: %w", err)
	}
	return nil
}

func (r *CourierRepo) GetByID(ctx context.Context, id string) (*entity.Courier, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var c entity.Courier
	err := r.q.QueryRow(ctx, `
		SELECT id, name, phone, active, created_at, updated_at
		FROM couriers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier: %w", err)
	}
	return &c, nil
}

func (r *CourierRepo) Update(ctx context.Context, c *entity.Courier) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE couriers SET name = $2, phone = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		c.ID, c.Name, c.Phone, c.Active, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update courier: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CourierRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Courier, error) {
	q := psql.Select("id", "name", "phone", "active", "created_at", "updated_at").
		From("couriers").
		OrderBy("created_at", "id").
		Limit(uint64(limit)).Offset(uint64(offset))
	if activeOnly {
		q = q.Where("active")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list couriers: %w", err)
	}
	var rows []courierRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list couriers: %w", err)
	}
	out := make([]*entity.Courier, 0, len(rows))
	for _, c := range rows {
		out = append(out, &entity.Courier{
			ID: c.ID, Name: c.Name, Phone: c.Phone, Active: c.Active,
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		})
	}
	return out, nil
}
