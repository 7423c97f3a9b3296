package memory

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range st.products {
			if existing.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		st.productIDs = append(st.productIDs, p.ID)
		return nil
	})
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.with(ctx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.with(ctx, func(st *state) error {
		for _, id := range st.productIDs {
			if p := st.products[id]; p.SKU == sku {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Product, 0, len(st.productIDs))
		for _, id := range st.productIDs {
			p := st.products[id]
			if activeOnly && !p.Active {
				continue
			}
			all = append(all, &p)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(ctx context.Context, c *entity.Customer) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.customers[c.ID]; ok {
			return domain.ErrDuplicate
		}
		st.customers[c.ID] = *c
		st.customerIDs = append(st.customerIDs, c.ID)
		return nil
	})
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.s.with(ctx, func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *customerRepo) Update(ctx context.Context, c *entity.Customer) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.customers[c.ID]; !ok {
			return domain.ErrNotFound
		}
		st.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Customer, 0, len(st.customerIDs))
		for _, id := range st.customerIDs {
			c := st.customers[id]
			if activeOnly && !c.Active {
				continue
			}
			all = append(all, &c)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

type courierRepo struct{ s *Store }

func (r *courierRepo) Create(ctx context.Context, c *entity.Courier) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.couriers[c.ID]; ok {
			return domain.ErrDuplicate
		}
		st.couriers[c.ID] = *c
		st.courierIDs = append(st.courierIDs, c.ID)
		return nil
	})
}

func (r *courierRepo) GetByID(ctx context.Context, id string) (*entity.Courier, error) {
	var out *entity.Courier
	err := r.s.with(ctx, func(st *state) error {
		if c, ok := st.couriers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *courierRepo) Update(ctx context.Context, c *entity.Courier) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.couriers[c.ID]; !ok {
			return domain.ErrNotFound
		}
		st.couriers[c.ID] = *c
		return nil
	})
}

func (r *courierRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Courier, error) {
	var out []*entity.Courier
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Courier, 0, len(st.courierIDs))
		for _, id := range st.courierIDs {
			c := st.couriers[id]
			if activeOnly && !c.Active {
				continue
			}
			all = append(all, &c)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
