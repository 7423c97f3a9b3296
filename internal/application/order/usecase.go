package order

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

// UseCase ciclo de vida de pedidos: creación con descuento atómico de inventario,
// transiciones de estado y cancelación con reversión de stock.
type UseCase struct {
	txRunner repository.TxRunner
	reads    repository.Repos
	ledger   *inventory.Ledger
	clock    clock.Clock
	ids      clock.IDGenerator
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner repository.TxRunner,
	reads repository.Repos,
	ledger *inventory.Ledger,
	clk clock.Clock,
	ids clock.IDGenerator,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		txRunner: txRunner,
		reads:    reads,
		ledger:   ledger,
		clock:    clk,
		ids:      ids,
		log:      log.With().Str("component", "order").Logger(),
	}
}

// ItemInput línea solicitada. UnitPrice nil = precio del catálogo al momento del pedido.
type ItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateInput datos para crear un pedido.
type CreateInput struct {
	CustomerID string
	Address    string
	Notes      string
	Items      []ItemInput
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return domain.InvalidInput("customer_id is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return domain.InvalidInput("address is required")
	}
	if len(in.Items) == 0 {
		return domain.InvalidInput("order must have at least one item")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return domain.InvalidInput(fmt.Sprintf("items[%d]: product_id is required", i))
		}
		if it.Quantity < 1 {
			return domain.InvalidInput(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return domain.InvalidInput(fmt.Sprintf("items[%d]: unit_price must not be negative", i))
		}
	}
	return nil
}

// Create valida cliente y productos, y dentro de una sola transacción inserta el pedido
// y descuenta el inventario de cada ítem. Si cualquier descuento falla no queda nada persistido.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *entity.Order
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		customer, err := repos.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		if customer == nil {
			return domain.NotFound("customer", in.CustomerID)
		}
		if !customer.Active {
			return domain.BusinessRule("CUSTOMER_INACTIVE", fmt.Sprintf("customer %s is inactive", in.CustomerID))
		}

		now := uc.clock.Now()
		orderID := uc.ids.NewID()
		o := &entity.Order{
			ID:         orderID,
			Code:       entity.OrderCode(orderID, now),
			CustomerID: in.CustomerID,
			Address:    strings.TrimSpace(in.Address),
			Notes:      strings.TrimSpace(in.Notes),
			Status:     entity.OrderPending,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
			Items:      make([]entity.OrderItem, 0, len(in.Items)),
		}

		for _, it := range in.Items {
			product, err := repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return domain.NotFound("product", it.ProductID)
			}
			if !product.Active {
				return domain.BusinessRule("PRODUCT_INACTIVE", fmt.Sprintf("product %s is inactive", it.ProductID))
			}
			price := product.Price
			if it.UnitPrice != nil {
				price = *it.UnitPrice
			}
			o.Items = append(o.Items, entity.NewOrderItem(uc.ids.NewID(), orderID, it.ProductID, it.Quantity, price))
		}
		o.RecalculateTotal()

		// El pedido va primero: los movimientos lo referencian.
		if err := repos.Orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		reason := "Venta - Pedido " + o.Code
		for _, item := range byProduct(o.Items) {
			if _, err := uc.ledger.DeductInTx(ctx, repos, item.ProductID, item.Quantity, reason, &orderID); err != nil {
				return err
			}
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("order_id", created.ID).
		Str("code", created.Code).
		Str("total", created.Total.StringFixed(2)).
		Int("items", len(created.Items)).
		Msg("pedido creado")
	return created, nil
}

// Transition cambia el estado según la tabla de transiciones. Nunca toca inventario:
// una transición directa a CANCELLED no devuelve stock (para eso está Cancel).
func (uc *UseCase) Transition(ctx context.Context, orderID string, next entity.OrderStatus) (*entity.Order, error) {
	var out *entity.Order
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		o, err := uc.lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		if err := o.TransitionTo(next, uc.clock.Now()); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		uc.log.Info().Str("order_id", o.ID).Str("from", string(from)).Str("to", string(next)).Msg("estado de pedido actualizado")
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReversalFailure reversión de stock que no se aplicó durante una cancelación.
type ReversalFailure struct {
	ProductID string
	Quantity  int
	Err       error
}

// CancelResult resultado de Cancel. El pedido queda CANCELLED aunque haya reversiones fallidas.
type CancelResult struct {
	Order           *entity.Order
	FailedReversals []ReversalFailure
}

// Partial true si alguna reversión de stock falló.
func (r *CancelResult) Partial() bool { return len(r.FailedReversals) > 0 }

// Cancel marca el pedido CANCELLED y devuelve al inventario la cantidad de cada ítem.
// Cada reversión corre en su propio savepoint: si una falla se registra, se reporta en
// FailedReversals y la cancelación continúa. Todo se confirma en una sola transacción.
func (uc *UseCase) Cancel(ctx context.Context, orderID, reason string) (*CancelResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "sin motivo"
	}

	var res *CancelResult
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		res = &CancelResult{}
		o, err := uc.lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if err := o.Cancel(reason, uc.clock.Now()); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		revertReason := "Cancelación de pedido - " + reason
		for _, item := range byProduct(o.Items) {
			err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
				_, err := uc.ledger.RevertInTx(ctx, repos, item.ProductID, item.Quantity, revertReason, &o.ID)
				return err
			})
			if err != nil {
				uc.log.Warn().Err(err).
					Str("order_id", o.ID).
					Str("product_id", item.ProductID).
					Int("quantity", item.Quantity).
					Msg("no se pudo revertir stock al cancelar pedido")
				res.FailedReversals = append(res.FailedReversals, ReversalFailure{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Err:       err,
				})
			}
		}
		res.Order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", res.Order.ID).Int("failed_reversals", len(res.FailedReversals)).Msg("pedido cancelado")
	return res, nil
}

// Deactivate baja lógica del pedido. No cambia su estado ni el inventario.
func (uc *UseCase) Deactivate(ctx context.Context, orderID string) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		o, err := uc.lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		o.Active = false
		o.UpdatedAt = uc.clock.Now()
		if err := repos.Orders.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
}

func (uc *UseCase) lockOrder(ctx context.Context, repos repository.Repos, orderID string) (*entity.Order, error) {
	o, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, domain.NotFound("order", orderID)
	}
	return o, nil
}

// Get devuelve el pedido con sus ítems.
func (uc *UseCase) Get(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := uc.reads.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, domain.NotFound("order", orderID)
	}
	return o, nil
}

// List pedidos más recientes primero.
func (uc *UseCase) List(ctx context.Context, filter repository.OrderFilter, limit, offset int) ([]*entity.Order, error) {
	limit, offset = dto.ClampPage(limit, offset)
	return uc.reads.Orders.List(ctx, filter, limit, offset)
}

// CountByStatus pedidos activos en el estado dado.
func (uc *UseCase) CountByStatus(ctx context.Context, status entity.OrderStatus) (int, error) {
	return uc.reads.Orders.CountByStatus(ctx, status)
}

// CountAll conteo por cada estado, en orden de avance.
func (uc *UseCase) CountAll(ctx context.Context) ([]dto.StatusCountResponse, error) {
	out := make([]dto.StatusCountResponse, 0, len(entity.OrderStatuses))
	for _, st := range entity.OrderStatuses {
		n, err := uc.reads.Orders.CountByStatus(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("count orders: %w", err)
		}
		out = append(out, dto.StatusCountResponse{Status: string(st), Count: n})
	}
	return out, nil
}

// byProduct copia de los ítems ordenada por ProductID. Descuentos y reversiones recorren
// los ítems en este orden para que dos pedidos concurrentes bloqueen las filas de
// inventario en la misma secuencia.
func byProduct(items []entity.OrderItem) []entity.OrderItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b entity.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out
}
