package entity

import (
	"fmt"
	"time"
)

// DefaultLocation ubicación asignada a los registros creados de forma perezosa.
const DefaultLocation = "Sin ubicación"

// InventoryRecord existencias actuales de un producto (un registro por producto).
// Quantity nunca es negativa; solo el ledger la modifica.
type InventoryRecord struct {
	ID        string
	ProductID string
	Quantity  int
	MinStock  int // umbral de reposición
	Location  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSufficient indica si hay al menos n unidades.
func (r *InventoryRecord) HasSufficient(n int) bool {
	return r.Quantity >= n
}

// IsLowStock indica si la cantidad está en o por debajo del umbral.
func (r *InventoryRecord) IsLowStock() bool {
	return r.Quantity <= r.MinStock
}

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementEntrada MovementType = "ENTRADA" // entrada
	MovementSalida  MovementType = "SALIDA"  // salida
	MovementAjuste  MovementType = "AJUSTE"  // ajuste
)

// ParseMovementType valida el tipo recibido desde fuera (filtros HTTP, filas de DB).
func ParseMovementType(s string) (MovementType, error) {
	switch t := MovementType(s); t {
	case MovementEntrada, MovementSalida, MovementAjuste:
		return t, nil
	}
	return "", fmt.Errorf("tipo de movimiento desconocido %q", s)
}

// Movement entrada inmutable del historial de inventario.
// Quantity es el valor absoluto del cambio y Delta su valor con signo;
// QuantityAfter == QuantityBefore + Delta.
type Movement struct {
	ID             string
	ProductID      string
	Type           MovementType
	Quantity       int
	Delta          int
	Reason         string
	OrderID        *string // pedido que originó el movimiento, si aplica
	QuantityBefore int
	QuantityAfter  int
	CreatedAt      time.Time
}

// NewMovement arma el movimiento de un cambio delta sobre una cantidad previa.
// delta > 0 es ENTRADA, delta < 0 es SALIDA.
func NewMovement(id, productID string, before, delta int, reason string, orderID *string, at time.Time) *Movement {
	typ, abs := MovementEntrada, delta
	if delta < 0 {
		typ, abs = MovementSalida, -delta
	}
	return &Movement{
		ID:             id,
		ProductID:      productID,
		Type:           typ,
		Quantity:       abs,
		Delta:          delta,
		Reason:         reason,
		OrderID:        orderID,
		QuantityBefore: before,
		QuantityAfter:  before + delta,
		CreatedAt:      at,
	}
}
