package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible del catálogo.
// Price es el precio de lista; los ítems de pedido copian el precio vigente al crear el pedido.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
