package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

// Ledger es el único punto que modifica cantidades de inventario.
// Cada cambio es un UPDATE condicional (la cantidad nunca queda negativa) más un movimiento
// con cantidad antes/después, ambos en la misma transacción.
type Ledger struct {
	txRunner repository.TxRunner
	reads    repository.Repos
	clock    clock.Clock
	ids      clock.IDGenerator
	log      zerolog.Logger
}

// NewLedger construye el ledger. reads son repositorios fuera de transacción para consultas.
func NewLedger(txRunner repository.TxRunner, reads repository.Repos, clk clock.Clock, ids clock.IDGenerator, log zerolog.Logger) *Ledger {
	return &Ledger{
		txRunner: txRunner,
		reads:    reads,
		clock:    clk,
		ids:      ids,
		log:      log.With().Str("component", "inventory.ledger").Logger(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutaciones
// ──────────────────────────────────────────────────────────────────────────────

// Adjust suma delta (positivo o negativo) a las existencias del producto y registra
// un movimiento ENTRADA o SALIDA. Crea el registro si no existe.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int, reason string) (*entity.InventoryRecord, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.InvalidInput("product_id is required")
	}
	if delta == 0 {
		return nil, domain.InvalidInput("delta must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Ajuste manual"
	}

	var out *entity.InventoryRecord
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if _, err := l.getOrCreateInTx(ctx, repos, productID); err != nil {
			return err
		}
		if _, err := l.apply(ctx, repos, productID, delta, reason, nil); err != nil {
			return err
		}
		rec, err := repos.Inventory.GetByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("get inventory: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("product_id", productID).Int("delta", delta).Int("quantity", out.Quantity).Msg("inventario ajustado")
	return out, nil
}

// Deduct descuenta quantity unidades en su propia transacción.
func (l *Ledger) Deduct(ctx context.Context, productID string, quantity int, reason string, orderRef *string) (*entity.Movement, error) {
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		mov, err = l.DeductInTx(ctx, repos, productID, quantity, reason, orderRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// DeductInTx descuenta dentro de una transacción ya abierta por el llamador.
// Falla con InsufficientStock si la cantidad disponible es menor que quantity.
func (l *Ledger) DeductInTx(ctx context.Context, repos repository.Repos, productID string, quantity int, reason string, orderRef *string) (*entity.Movement, error) {
	if quantity <= 0 {
		return nil, domain.InvalidInput("quantity must be positive")
	}
	if _, err := l.getOrCreateInTx(ctx, repos, productID); err != nil {
		return nil, err
	}
	return l.apply(ctx, repos, productID, -quantity, reason, orderRef)
}

// Revert devuelve quantity unidades al inventario en su propia transacción.
func (l *Ledger) Revert(ctx context.Context, productID string, quantity int, reason string, orderRef *string) (*entity.Movement, error) {
	var mov *entity.Movement
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		mov, err = l.RevertInTx(ctx, repos, productID, quantity, reason, orderRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// RevertInTx incrementa las existencias y registra una ENTRADA.
// No verifica que exista un descuento previo: dos llamadas suman dos veces.
// quantity 0 no toca el inventario ni registra movimiento y devuelve (nil, nil).
func (l *Ledger) RevertInTx(ctx context.Context, repos repository.Repos, productID string, quantity int, reason string, orderRef *string) (*entity.Movement, error) {
	if quantity < 0 {
		return nil, domain.InvalidInput("quantity must not be negative")
	}
	if quantity == 0 {
		return nil, nil
	}
	if _, err := l.getOrCreateInTx(ctx, repos, productID); err != nil {
		return nil, err
	}
	return l.apply(ctx, repos, productID, quantity, reason, orderRef)
}

// GetOrCreate devuelve el registro del producto, creándolo con cantidad 0 si no existe.
// El producto debe existir y estar activo para crear el registro.
func (l *Ledger) GetOrCreate(ctx context.Context, productID string) (*entity.InventoryRecord, error) {
	var rec *entity.InventoryRecord
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		rec, err = l.getOrCreateInTx(ctx, repos, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateRecordInput datos para el alta explícita de un registro de inventario.
type CreateRecordInput struct {
	ProductID       string
	InitialQuantity int
	Location        string
	MinStock        int
}

// CreateRecord da de alta el registro del producto. Si InitialQuantity > 0 registra
// una ENTRADA "Inventario inicial". Falla con ErrDuplicate si ya existe.
func (l *Ledger) CreateRecord(ctx context.Context, in CreateRecordInput) (*entity.InventoryRecord, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.InvalidInput("product_id is required")
	}
	if in.InitialQuantity < 0 || in.MinStock < 0 {
		return nil, domain.InvalidInput("initial quantity and min stock must not be negative")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = entity.DefaultLocation
	}

	var out *entity.InventoryRecord
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := l.requireActiveProduct(ctx, repos, in.ProductID); err != nil {
			return err
		}
		now := l.clock.Now()
		rec := &entity.InventoryRecord{
			ID:        l.ids.NewID(),
			ProductID: in.ProductID,
			MinStock:  in.MinStock,
			Location:  location,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Inventory.Create(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.Duplicate("inventory record for product", in.ProductID)
			}
			return fmt.Errorf("create inventory: %w", err)
		}
		if in.InitialQuantity > 0 {
			mov, err := l.apply(ctx, repos, in.ProductID, in.InitialQuantity, "Inventario inicial", nil)
			if err != nil {
				return err
			}
			rec.Quantity = mov.QuantityAfter
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SettingsInput campos modificables de un registro. nil = no cambia.
type SettingsInput struct {
	Location *string
	MinStock *int
}

// UpdateSettings cambia ubicación y umbral. La cantidad solo cambia vía Adjust/Deduct/Revert.
func (l *Ledger) UpdateSettings(ctx context.Context, productID string, in SettingsInput) (*entity.InventoryRecord, error) {
	if in.MinStock != nil && *in.MinStock < 0 {
		return nil, domain.InvalidInput("min stock must not be negative")
	}
	return l.mutateSettings(ctx, productID, func(rec *entity.InventoryRecord) {
		if in.Location != nil {
			rec.Location = strings.TrimSpace(*in.Location)
		}
		if in.MinStock != nil {
			rec.MinStock = *in.MinStock
		}
	})
}

// Deactivate baja lógica del registro; conserva cantidad e historial.
func (l *Ledger) Deactivate(ctx context.Context, productID string) error {
	_, err := l.mutateSettings(ctx, productID, func(rec *entity.InventoryRecord) {
		rec.Active = false
	})
	return err
}

func (l *Ledger) mutateSettings(ctx context.Context, productID string, mutate func(*entity.InventoryRecord)) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		rec, err := repos.Inventory.GetByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("get inventory: %w", err)
		}
		if rec == nil {
			return domain.NotFound("inventory record", productID)
		}
		mutate(rec)
		rec.UpdatedAt = l.clock.Now()
		if err := repos.Inventory.UpdateSettings(ctx, rec); err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// apply ejecuta el UPDATE condicional y registra el movimiento.
func (l *Ledger) apply(ctx context.Context, repos repository.Repos, productID string, delta int, reason string, orderRef *string) (*entity.Movement, error) {
	after, ok, err := repos.Inventory.ApplyDelta(ctx, productID, delta)
	if err != nil {
		return nil, fmt.Errorf("apply inventory delta: %w", err)
	}
	if !ok {
		available := 0
		rec, err := repos.Inventory.GetByProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get inventory: %w", err)
		}
		if rec != nil {
			available = rec.Quantity
		}
		return nil, domain.InsufficientStock(productID, -delta, available)
	}
	mov := entity.NewMovement(l.ids.NewID(), productID, after-delta, delta, reason, orderRef, l.clock.Now())
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}
	return mov, nil
}

func (l *Ledger) getOrCreateInTx(ctx context.Context, repos repository.Repos, productID string) (*entity.InventoryRecord, error) {
	rec, err := repos.Inventory.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	if rec != nil {
		return rec, nil
	}
	if err := l.requireActiveProduct(ctx, repos, productID); err != nil {
		return nil, err
	}
	now := l.clock.Now()
	rec, err = repos.Inventory.CreateIfAbsent(ctx, &entity.InventoryRecord{
		ID:        l.ids.NewID(),
		ProductID: productID,
		Location:  entity.DefaultLocation,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create inventory: %w", err)
	}
	return rec, nil
}

func (l *Ledger) requireActiveProduct(ctx context.Context, repos repository.Repos, productID string) error {
	product, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return domain.NotFound("product", productID)
	}
	if !product.Active {
		return domain.BusinessRule("PRODUCT_INACTIVE", fmt.Sprintf("product %s is inactive", productID))
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

// Get devuelve el registro del producto o NotFound.
func (l *Ledger) Get(ctx context.Context, productID string) (*entity.InventoryRecord, error) {
	rec, err := l.reads.Inventory.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	if rec == nil {
		return nil, domain.NotFound("inventory record", productID)
	}
	return rec, nil
}

// Quantity existencias actuales. 0 si el producto existe pero aún no tiene registro.
func (l *Ledger) Quantity(ctx context.Context, productID string) (int, error) {
	rec, err := l.reads.Inventory.GetByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get inventory: %w", err)
	}
	if rec != nil {
		return rec.Quantity, nil
	}
	product, err := l.reads.Products.GetByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return 0, domain.NotFound("product", productID)
	}
	return 0, nil
}

// List registros de inventario paginados.
func (l *Ledger) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.InventoryRecord, error) {
	limit, offset = dto.ClampPage(limit, offset)
	return l.reads.Inventory.List(ctx, activeOnly, limit, offset)
}

// ListLowStock registros activos en o por debajo del umbral.
func (l *Ledger) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.InventoryRecord, error) {
	limit, offset = dto.ClampPage(limit, offset)
	return l.reads.Inventory.ListLowStock(ctx, limit, offset)
}

// History movimientos del producto, más reciente primero.
func (l *Ledger) History(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	limit, offset = dto.ClampPage(limit, offset)
	return l.reads.Movements.ListByProduct(ctx, productID, limit, offset)
}

// OrderMovements movimientos asociados a un pedido (descuentos y reversiones), en orden de creación.
// Sirve para conciliar: una reversión repetida aparece como ENTRADA duplicada.
func (l *Ledger) OrderMovements(ctx context.Context, orderID string) ([]*entity.Movement, error) {
	return l.reads.Movements.ListByOrder(ctx, orderID)
}
