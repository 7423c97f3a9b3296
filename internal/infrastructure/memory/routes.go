package memory

import (
	"context"

	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

type routeRepo struct{ s *Store }

func (r *routeRepo) Create(ctx context.Context, rt *entity.Route) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.routes[rt.ID]; ok {
			return domain.ErrDuplicate
		}
		st.routes[rt.ID] = copyRoute(*rt)
		st.routeIDs = append(st.routeIDs, rt.ID)
		return nil
	})
}

func (r *routeRepo) GetByID(ctx context.Context, id string) (*entity.Route, error) {
	var out *entity.Route
	err := r.s.with(ctx, func(st *state) error {
		if rt, ok := st.routes[id]; ok {
			c := copyRoute(rt)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *routeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Route, error) {
	return r.GetByID(ctx, id)
}

func (r *routeRepo) Update(ctx context.Context, rt *entity.Route) error {
	return r.s.with(ctx, func(st *state) error {
		cur, ok := st.routes[rt.ID]
		if !ok {
			return domain.ErrNotFound
		}
		// la lista de pedidos solo cambia vía AttachOrder/DetachOrder
		ids := cur.OrderIDs
		cur = copyRoute(*rt)
		cur.OrderIDs = ids
		st.routes[rt.ID] = cur
		return nil
	})
}

func (r *routeRepo) AttachOrder(ctx context.Context, routeID, orderID string) error {
	return r.s.with(ctx, func(st *state) error {
		rt, ok := st.routes[routeID]
		if !ok {
			return domain.ErrNotFound
		}
		if rt.HasOrder(orderID) {
			return nil
		}
		rt.OrderIDs = append(append([]string(nil), rt.OrderIDs...), orderID)
		st.routes[routeID] = rt
		return nil
	})
}

func (r *routeRepo) DetachOrder(ctx context.Context, routeID, orderID string) (bool, error) {
	removed := false
	err := r.s.with(ctx, func(st *state) error {
		rt, ok := st.routes[routeID]
		if !ok {
			return domain.ErrNotFound
		}
		ids := make([]string, 0, len(rt.OrderIDs))
		for _, id := range rt.OrderIDs {
			if id == orderID {
				removed = true
				continue
			}
			ids = append(ids, id)
		}
		rt.OrderIDs = ids
		st.routes[routeID] = rt
		return nil
	})
	return removed, err
}

func (r *routeRepo) OpenRouteForOrder(ctx context.Context, orderID, excludeRouteID string) (string, error) {
	found := ""
	err := r.s.with(ctx, func(st *state) error {
		for _, id := range st.routeIDs {
			rt := st.routes[id]
			if id == excludeRouteID || rt.Status.IsClosed() {
				continue
			}
			if rt.HasOrder(orderID) {
				found = id
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *routeRepo) List(ctx context.Context, f repository.RouteFilter, limit, offset int) ([]*entity.Route, error) {
	var out []*entity.Route
	err := r.s.with(ctx, func(st *state) error {
		all := make([]*entity.Route, 0)
		for i := len(st.routeIDs) - 1; i >= 0; i-- {
			rt := st.routes[st.routeIDs[i]]
			if f.CourierID != "" && rt.CourierID != f.CourierID {
				continue
			}
			if f.Status != nil && rt.Status != *f.Status {
				continue
			}
			if f.ActiveOnly && !rt.Active {
				continue
			}
			c := copyRoute(rt)
			all = append(all, &c)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
