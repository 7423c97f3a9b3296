package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Address    string             `json:"address"`
	Notes      string             `json:"notes,omitempty"`
	Items      []OrderItemRequest `json:"items"`
}

// OrderItemRequest línea del pedido. UnitPrice opcional: si falta se usa el precio del catálogo.
type OrderItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// UpdateStatusRequest body para PATCH /api/{orders,routes}/:id/status.
// Reason solo aplica cuando un pedido pasa a CANCELLED.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CancelOrderRequest body para POST /api/orders/:id/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderResponse pedido con sus ítems.
type OrderResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code"`
	CustomerID  string              `json:"customer_id"`
	Address     string              `json:"address"`
	Notes       string              `json:"notes,omitempty"`
	Status      string              `json:"status"`
	Total       decimal.Decimal     `json:"total"`
	Active      bool                `json:"active"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
}

// OrderItemResponse línea del pedido en respuestas.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ReversalFailureResponse reversión de stock que no se pudo aplicar al cancelar.
type ReversalFailureResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Error     string `json:"error"`
}

// CancelOrderResponse resultado de la cancelación. Partial=true si alguna reversión falló.
type CancelOrderResponse struct {
	Order           OrderResponse             `json:"order"`
	Partial         bool                      `json:"partial"`
	FailedReversals []ReversalFailureResponse `json:"failed_reversals,omitempty"`
}

// OrderListResponse lista paginada de pedidos.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// StatusCountResponse conteo de pedidos por estado.
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func OrderFromEntity(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		Code:        o.Code,
		CustomerID:  o.CustomerID,
		Address:     o.Address,
		Notes:       o.Notes,
		Status:      string(o.Status),
		Total:       o.Total,
		Active:      o.Active,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		DeliveredAt: o.DeliveredAt,
	}
}
