package memory

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

type inventoryRepo struct{ s *Store }

func (r *inventoryRepo) GetByProduct(ctx context.Context, productID string) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	err := r.s.with(ctx, func(st *state) error {
		if rec, ok := st.inventory[productID]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *inventoryRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.inventory[rec.ProductID]; ok {
			return domain.ErrDuplicate
		}
		st.inventory[rec.ProductID] = *rec
		st.inventoryKeys = append(st.inventoryKeys, rec.ProductID)
		return nil
	})
}

func (r *inventoryRepo) CreateIfAbsent(ctx context.Context, rec *entity.InventoryRecord) (*entity.InventoryRecord, error) {
	var out entity.InventoryRecord
	err := r.s.with(ctx, func(st *state) error {
		if existing, ok := st.inventory[rec.ProductID]; ok {
			out = existing
			return nil
		}
		st.inventory[rec.ProductID] = *rec
		st.inventoryKeys = append(st.inventoryKeys, rec.ProductID)
		out = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inventoryRepo) ApplyDelta(ctx context.Context, productID string, delta int) (int, bool, error) {
	var (
		after int
		ok    bool
	)
	err := r.s.with(ctx, func(st *state) error {
		rec, found := st.inventory[productID]
		if !found || rec.Quantity+delta < 0 {
			return nil
		}
		rec.Quantity += delta
		st.inventory[productID] = rec
		after, ok = rec.Quantity, true
		return nil
	})
	return after, ok, err
}

func (r *inventoryRepo) UpdateSettings(ctx context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(ctx, func(st *state) error {
		cur, ok := st.inventory[rec.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Location = rec.Location
		cur.MinStock = rec.MinStock
		cur.Active = rec.Active
		cur.UpdatedAt = rec.UpdatedAt
		st.inventory[rec.ProductID] = cur
		return nil
	})
}

func (r *inventoryRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.InventoryRecord, error) {
	return r.filter(ctx, func(rec entity.InventoryRecord) bool { return !activeOnly || rec.Active }, limit, offset)
}

func (r *inventoryRepo) ListLowStock(ctx context.Context, limit, offset int) ([]*entity.InventoryRecord, error) {
	return r.filter(ctx, func(rec entity.InventoryRecord) bool { return rec.Active && rec.IsLowStock() }, limit, offset)
}

func (r *inventoryRepo) filter(ctx context.Context, keep func(entity.InventoryRecord) bool, limit, offset int) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.InventoryRecord, 0)
		for _, pid := range st.inventoryKeys {
			rec := st.inventory[pid]
			if keep(rec) {
				all = append(all, &rec)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

type movementRepo struct{ s *Store }

func (r *movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	return r.s.with(ctx, func(st *state) error {
		st.movements = append(st.movements, copyMovement(*m))
		return nil
	})
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Movement, 0)
		for i := len(st.movements) - 1; i >= 0; i-- {
			if st.movements[i].ProductID == productID {
				m := copyMovement(st.movements[i])
				all = append(all, &m)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *movementRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	err := r.s.with(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.OrderID != nil && *m.OrderID == orderID {
				c := copyMovement(m)
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) Latest(ctx context.Context, productID string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.s.with(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if st.movements[i].ProductID == productID {
				m := copyMovement(st.movements[i])
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) SumDeltas(ctx context.Context, productID string) (int, int, error) {
	var sum, count int
	err := r.s.with(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID {
				sum += m.Delta
				count++
			}
		}
		return nil
	})
	return sum, count, err
}
