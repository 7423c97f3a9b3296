package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los casos de uso devuelven *Error; errors.Is contra estos sentinels identifica la categoría.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrBusinessRule      = errors.New("business rule violated")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrConflict          = errors.New("conflict with current state")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// Kind categoría de un error de dominio.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindBusinessRule
	KindInvalidTransition
	KindConflict
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindBusinessRule:
		return "BUSINESS_RULE"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	case KindConflict:
		return "CONFLICT"
	case KindDuplicate:
		return "DUPLICATE"
	default:
		return "INTERNAL"
	}
}

// Error error tipado con código estable para clientes y detalles estructurados.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error // sentinel o causa
}

func (e *Error) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrBusinessRule) sobre un InsufficientStock.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrBusinessRule:
		return e.Kind == KindBusinessRule
	case ErrInvalidTransition:
		return e.Kind == KindInvalidTransition
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrDuplicate:
		return e.Kind == KindDuplicate
	}
	return false
}

// WithDetail añade un detalle y devuelve el mismo error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func isSentinel(err error) bool {
	switch err {
	case ErrNotFound, ErrInvalidInput, ErrBusinessRule, ErrInsufficientStock,
		ErrInvalidTransition, ErrConflict, ErrDuplicate, ErrUnauthorized, ErrForbidden:
		return true
	}
	return false
}

// NotFound entidad inexistente (o inactiva cuando la operación lo exige).
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
		Err:     ErrNotFound,
	}
}

// BusinessRule operación válida en forma pero prohibida por una regla.
func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message, Err: ErrBusinessRule}
}

// InsufficientStock es un BusinessRule con las cantidades en juego.
func InsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Kind:    KindBusinessRule,
		Code:    "INSUFFICIENT_STOCK",
		Message: fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available),
		Details: map[string]any{"product_id": productID, "requested": requested, "available": available},
		Err:     ErrInsufficientStock,
	}
}

// InvalidTransition cambio de estado fuera de la tabla de transiciones.
func InvalidTransition(entity, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		Details: map[string]any{"entity": entity, "from": from, "to": to},
		Err:     ErrInvalidTransition,
	}
}

// RouteClosed transición desde un estado terminal de ruta.
func RouteClosed(routeID, status string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "ROUTE_CLOSED",
		Message: "route already closed",
		Details: map[string]any{"route_id": routeID, "status": status},
		Err:     ErrInvalidTransition,
	}
}

// Conflict escritura concurrente o violación de unicidad de estado.
func Conflict(entity, id, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("%s %s was modified concurrently", entity, id)
	}
	return &Error{
		Kind:    KindConflict,
		Code:    "CONFLICT",
		Message: message,
		Details: map[string]any{"entity": entity, "id": id},
		Err:     ErrConflict,
	}
}

// InvalidInput entrada mal formada.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: "INVALID_INPUT", Message: message, Err: ErrInvalidInput}
}

// Duplicate clave única repetida (SKU, registro de inventario por producto).
func Duplicate(entity, key string) *Error {
	return &Error{
		Kind:    KindDuplicate,
		Code:    "DUPLICATE",
		Message: fmt.Sprintf("%s %s already exists", entity, key),
		Details: map[string]any{"entity": entity, "key": key},
		Err:     ErrDuplicate,
	}
}

// AsError extrae el *Error de la cadena, si existe.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
