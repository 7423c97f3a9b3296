package memory

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, o *entity.Order) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.orders[o.ID] = copyOrder(*o)
		st.orderIDs = append(st.orderIDs, o.ID)
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.s.with(ctx, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
		return nil
	})
	return out, err
}

// GetForUpdate el store ya está bloqueado dentro de la transacción.
func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) Update(ctx context.Context, o *entity.Order) error {
	return r.s.with(ctx, func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = o.Status
		cur.Notes = o.Notes
		cur.Active = o.Active
		cur.UpdatedAt = o.UpdatedAt
		cur.DeliveredAt = o.DeliveredAt
		st.orders[o.ID] = copyOrder(cur)
		return nil
	})
}

func (r *orderRepo) List(ctx context.Context, f repository.OrderFilter, limit, offset int) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Order, 0)
		for i := len(st.orderIDs) - 1; i >= 0; i-- {
			o := st.orders[st.orderIDs[i]]
			if f.Status != nil && o.Status != *f.Status {
				continue
			}
			if f.CustomerID != "" && o.CustomerID != f.CustomerID {
				continue
			}
			if f.ActiveOnly && !o.Active {
				continue
			}
			c := copyOrder(o)
			all = append(all, &c)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *orderRepo) CountByStatus(ctx context.Context, status entity.OrderStatus) (int, error) {
	n := 0
	err := r.s.with(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.Status == status && o.Active {
				n++
			}
		}
		return nil
	})
	return n, err
}
