package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/gestor-api/internal/domain"
)

// Reconciliation compara la cantidad del registro contra el historial de movimientos.
type Reconciliation struct {
	ProductID          string `json:"product_id"`
	Quantity           int    `json:"quantity"`
	SumOfDeltas        int    `json:"sum_of_deltas"`
	MovementCount      int    `json:"movement_count"`
	LatestAfter        *int   `json:"latest_quantity_after,omitempty"`
	MatchesHistory     bool   `json:"matches_history"`
	MatchesLatestAfter bool   `json:"matches_latest_after"`
}

// Consistent true si la cantidad coincide con la suma de deltas y con el último movimiento.
func (r Reconciliation) Consistent() bool {
	return r.MatchesHistory && r.MatchesLatestAfter
}

// Reconcile verifica la consistencia del ledger para un producto. No corrige nada.
func (l *Ledger) Reconcile(ctx context.Context, productID string) (*Reconciliation, error) {
	rec, err := l.reads.Inventory.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	if rec == nil {
		return nil, domain.NotFound("inventory record", productID)
	}
	sum, count, err := l.reads.Movements.SumDeltas(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	latest, err := l.reads.Movements.Latest(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("latest movement: %w", err)
	}

	out := &Reconciliation{
		ProductID:      productID,
		Quantity:       rec.Quantity,
		SumOfDeltas:    sum,
		MovementCount:  count,
		MatchesHistory: sum == rec.Quantity,
	}
	if latest != nil {
		after := latest.QuantityAfter
		out.LatestAfter = &after
		out.MatchesLatestAfter = after == rec.Quantity
	} else {
		out.MatchesLatestAfter = rec.Quantity == 0
	}
	if !out.Consistent() {
		l.log.Warn().Str("product_id", productID).Int("quantity", rec.Quantity).Int("sum_of_deltas", sum).
			Msg("inventario no concilia con su historial")
	}
	return out, nil
}
