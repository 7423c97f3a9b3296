package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/gestor-api/internal/application/dto"
)

// Stock ideal = umbral × 3/2, redondeado hacia arriba.
const (
	idealStockNum = 3
	idealStockDen = 2
)

// Replenishment genera la lista de reposición: registros activos en o bajo su umbral,
// con la cantidad sugerida para llegar al stock ideal. Ordenada por mayor déficit.
func (l *Ledger) Replenishment(ctx context.Context) ([]dto.ReplenishmentSuggestion, error) {
	var suggestions []dto.ReplenishmentSuggestion
	for offset := 0; ; offset += dto.MaxLimit {
		page, err := l.reads.Inventory.ListLowStock(ctx, dto.MaxLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("list low stock: %w", err)
		}
		for _, rec := range page {
			ideal := (rec.MinStock*idealStockNum + idealStockDen - 1) / idealStockDen
			suggested := ideal - rec.Quantity
			if suggested < 0 {
				suggested = 0
			}
			s := dto.ReplenishmentSuggestion{
				ProductID:    rec.ProductID,
				Location:     rec.Location,
				CurrentStock: rec.Quantity,
				MinStock:     rec.MinStock,
				IdealStock:   ideal,
				SuggestedQty: suggested,
			}
			p, err := l.reads.Products.GetByID(ctx, rec.ProductID)
			if err != nil {
				return nil, fmt.Errorf("get product %s: %w", rec.ProductID, err)
			}
			if p != nil {
				s.SKU, s.ProductName = p.SKU, p.Name
			}
			suggestions = append(suggestions, s)
		}
		if len(page) < dto.MaxLimit {
			break
		}
	}

	// Primero mayor déficit bajo el umbral; a igual déficit, mayor cantidad sugerida.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA, defB := a.MinStock-a.CurrentStock, b.MinStock-b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.SuggestedQty > b.SuggestedQty
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	if suggestions == nil {
		suggestions = []dto.ReplenishmentSuggestion{}
	}
	return suggestions, nil
}
