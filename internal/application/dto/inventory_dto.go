package dto

import (
	"time"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// CreateInventoryRequest body para POST /api/inventory.
type CreateInventoryRequest struct {
	ProductID       string `json:"product_id"`
	InitialQuantity int    `json:"initial_quantity"`
	Location        string `json:"location"`
	MinStock        int    `json:"min_stock"`
}

// AdjustInventoryRequest body para POST /api/inventory/:productId/adjust.
// Delta positivo suma, negativo resta.
type AdjustInventoryRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// UpdateInventoryRequest body para PUT /api/inventory/:productId. No permite cambiar la cantidad.
type UpdateInventoryRequest struct {
	Location *string `json:"location"`
	MinStock *int    `json:"min_stock"`
}

// InventoryResponse registro de inventario en respuestas.
type InventoryResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	MinStock  int       `json:"min_stock"`
	Location  string    `json:"location"`
	Active    bool      `json:"active"`
	LowStock  bool      `json:"low_stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

func InventoryFromEntity(r *entity.InventoryRecord) InventoryResponse {
	return InventoryResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		MinStock:  r.MinStock,
		Location:  r.Location,
		Active:    r.Active,
		LowStock:  r.IsLowStock(),
		UpdatedAt: r.UpdatedAt,
	}
}

// MovementResponse movimiento del historial.
type MovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	Delta          int       `json:"delta"`
	Reason         string    `json:"reason"`
	OrderID        *string   `json:"order_id,omitempty"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	CreatedAt      time.Time `json:"created_at"`
}

func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		Delta:          m.Delta,
		Reason:         m.Reason,
		OrderID:        m.OrderID,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		CreatedAt:      m.CreatedAt,
	}
}

// ReplenishmentSuggestion sugerencia de reposición para un producto en o bajo su umbral.
type ReplenishmentSuggestion struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	Location     string `json:"location"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
	IdealStock   int    `json:"ideal_stock"`   // MinStock * 1.5
	SuggestedQty int    `json:"suggested_qty"` // IdealStock - CurrentStock
	Priority     int    `json:"priority"`      // 1 = más urgente
}
