package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestor-api/internal/domain"
)

// OrderStatus estado del ciclo de vida de un pedido.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderInTransit  OrderStatus = "IN_TRANSIT"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses todos los estados en orden de avance.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderInTransit, OrderDelivered, OrderCancelled}

// PENDING -> PROCESSING -> IN_TRANSIT -> DELIVERED; CANCELLED desde cualquier estado no terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderInTransit, OrderCancelled},
	OrderInTransit:  {OrderDelivered, OrderCancelled},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// ParseOrderStatus acepta el nombre canónico sin distinguir mayúsculas.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := orderTransitions[st]; !ok {
		return "", domain.InvalidInput(fmt.Sprintf("unknown order status %q", s))
	}
	return st, nil
}

// CanTransitionTo consulta la tabla de transiciones.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal DELIVERED y CANCELLED no admiten más cambios.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// IsRoutable indica si un pedido en este estado puede asignarse a una ruta.
func (s OrderStatus) IsRoutable() bool {
	return !s.IsTerminal()
}

// Order pedido de un cliente. Es dueño de sus ítems.
type Order struct {
	ID          string
	Code        string // código legible PED-YYYYMMDD-XXXXXX
	CustomerID  string
	Address     string
	Notes       string
	Status      OrderStatus
	Total       decimal.Decimal
	Items       []OrderItem
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeliveredAt *time.Time
}

// OrderCode construye el código legible a partir de la fecha y el ID.
func OrderCode(id string, at time.Time) string {
	compact := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(compact) > 6 {
		compact = compact[len(compact)-6:]
	}
	return fmt.Sprintf("PED-%s-%s", at.Format("20060102"), compact)
}

// RecalculateTotal total = suma de subtotales.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal)
	}
	o.Total = total
}

// TransitionTo aplica un cambio de estado validado contra la tabla.
// Al pasar a DELIVERED registra la fecha de entrega si aún no existe.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return domain.InvalidTransition("order", string(o.Status), string(next))
	}
	o.Status = next
	o.UpdatedAt = now
	if next == OrderDelivered && o.DeliveredAt == nil {
		at := now
		o.DeliveredAt = &at
	}
	return nil
}

// Cancel marca el pedido como CANCELLED y anota el motivo en las observaciones.
// No toca inventario: la reversión la hace el caso de uso.
func (o *Order) Cancel(reason string, now time.Time) error {
	switch o.Status {
	case OrderDelivered:
		return domain.BusinessRule("ORDER_DELIVERED", fmt.Sprintf("order %s is already delivered", o.ID))
	case OrderCancelled:
		return domain.BusinessRule("ORDER_CANCELLED", fmt.Sprintf("order %s is already cancelled", o.ID))
	}
	note := "CANCELADO: " + reason
	if strings.TrimSpace(o.Notes) != "" {
		o.Notes = o.Notes + " | " + note
	} else {
		o.Notes = note
	}
	o.Status = OrderCancelled
	o.UpdatedAt = now
	return nil
}

// OrderItem línea de pedido. Subtotal = Quantity × UnitPrice.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewOrderItem crea la línea con el subtotal ya calculado.
func NewOrderItem(id, orderID, productID string, quantity int, unitPrice decimal.Decimal) OrderItem {
	it := OrderItem{ID: id, OrderID: orderID, ProductID: productID}
	it.Quantity = quantity
	it.SetUnitPrice(unitPrice)
	return it
}

func (it *OrderItem) SetQuantity(q int) {
	it.Quantity = q
	it.recalc()
}

func (it *OrderItem) SetUnitPrice(p decimal.Decimal) {
	it.UnitPrice = p
	it.recalc()
}

func (it *OrderItem) recalc() {
	it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
