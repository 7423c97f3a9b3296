package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/gestor-api/internal/domain"
)

// Querier lo que comparten *pgxpool.Pool y pgx.Tx. Los repos reciben uno u otro.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// psql builder de squirrel con placeholders $n.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isUUID las columnas id son UUID: un texto que no parsea no puede existir y,
// enviado a Postgres, abortaría la transacción con 22P02.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isRetryable serialization_failure (40001) o deadlock_detected (40P01).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// txError convierte fallas de serialización o deadlock en un Conflict reintentable.
func txError(err error) error {
	if err != nil && isRetryable(err) {
		return domain.Conflict("transaction", "", "concurrent modification, retry the operation")
	}
	return err
}
