package route

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

// UseCase ciclo de vida de rutas de entrega. Una ruta solo referencia pedidos por ID
// y nunca cambia su estado.
type UseCase struct {
	txRunner  repository.TxRunner
	reads     repository.Repos
	clock     clock.Clock
	ids       clock.IDGenerator
	generator ManifestGenerator
	log       zerolog.Logger
}

// NewUseCase construye el caso de uso. generator puede ser nil si no se exponen manifiestos.
func NewUseCase(
	txRunner repository.TxRunner,
	reads repository.Repos,
	clk clock.Clock,
	ids clock.IDGenerator,
	generator ManifestGenerator,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		reads:     reads,
		clock:     clk,
		ids:       ids,
		generator: generator,
		log:       log.With().Str("component", "route").Logger(),
	}
}

// CreateInput datos para crear una ruta.
type CreateInput struct {
	CourierID        string
	PlannedDate      time.Time
	DistanceKm       *float64
	EstimatedMinutes *int
	OrderIDs         []string
}

// Create registra una ruta PLANNED para el mensajero con los pedidos elegibles.
// Un pedido DELIVERED o CANCELLED hace fallar toda la creación.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.Route, error) {
	if strings.TrimSpace(in.CourierID) == "" {
		return nil, domain.InvalidInput("courier_id is required")
	}
	if in.PlannedDate.IsZero() {
		return nil, domain.InvalidInput("planned_date is required")
	}
	if in.DistanceKm != nil && *in.DistanceKm < 0 {
		return nil, domain.InvalidInput("distance_km must not be negative")
	}
	if in.EstimatedMinutes != nil && *in.EstimatedMinutes < 0 {
		return nil, domain.InvalidInput("estimated_minutes must not be negative")
	}

	var out *entity.Route
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		courier, err := repos.Couriers.GetByID(ctx, in.CourierID)
		if err != nil {
			return fmt.Errorf("get courier: %w", err)
		}
		if courier == nil {
			return domain.NotFound("courier", in.CourierID)
		}
		if !courier.Active {
			return domain.BusinessRule("COURIER_INACTIVE", fmt.Sprintf("courier %s is inactive", in.CourierID))
		}

		orderIDs := dedupe(in.OrderIDs)
		for _, id := range orderIDs {
			if err := uc.checkEligible(ctx, repos, id, ""); err != nil {
				return err
			}
		}

		now := uc.clock.Now()
		rt := &entity.Route{
			ID:               uc.ids.NewID(),
			CourierID:        in.CourierID,
			Status:           entity.RoutePlanned,
			PlannedDate:      dateOnly(in.PlannedDate),
			DistanceKm:       in.DistanceKm,
			EstimatedMinutes: in.EstimatedMinutes,
			OrderIDs:         orderIDs,
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := repos.Routes.Create(ctx, rt); err != nil {
			return fmt.Errorf("create route: %w", err)
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("route_id", out.ID).Str("courier_id", out.CourierID).Int("orders", len(out.OrderIDs)).Msg("ruta creada")
	return out, nil
}

// AssignOrders agrega pedidos a la ruta. Los ya asignados se omiten sin error.
// Si alguno no es elegible no se agrega ninguno.
func (uc *UseCase) AssignOrders(ctx context.Context, routeID string, orderIDs []string) (*entity.Route, error) {
	if len(orderIDs) == 0 {
		return nil, domain.InvalidInput("order_ids must not be empty")
	}

	var out *entity.Route
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		rt, err := uc.lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if rt.Status.IsClosed() {
			return domain.RouteClosed(rt.ID, string(rt.Status))
		}

		pending := make([]string, 0, len(orderIDs))
		for _, id := range dedupe(orderIDs) {
			if rt.HasOrder(id) {
				continue
			}
			if err := uc.checkEligible(ctx, repos, id, rt.ID); err != nil {
				return err
			}
			pending = append(pending, id)
		}
		for _, id := range pending {
			if err := repos.Routes.AttachOrder(ctx, rt.ID, id); err != nil {
				return fmt.Errorf("attach order: %w", err)
			}
			rt.OrderIDs = append(rt.OrderIDs, id)
		}
		if len(pending) > 0 {
			rt.UpdatedAt = uc.clock.Now()
			if err := repos.Routes.Update(ctx, rt); err != nil {
				return fmt.Errorf("update route: %w", err)
			}
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveOrder quita el pedido de la ruta sin tocar el pedido.
// Igual que AssignOrders, no cambia la composición de una ruta cerrada.
func (uc *UseCase) RemoveOrder(ctx context.Context, routeID, orderID string) (*entity.Route, error) {
	var out *entity.Route
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		rt, err := uc.lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		if rt.Status.IsClosed() {
			return domain.RouteClosed(rt.ID, string(rt.Status))
		}
		removed, err := repos.Routes.DetachOrder(ctx, rt.ID, orderID)
		if err != nil {
			return fmt.Errorf("detach order: %w", err)
		}
		if !removed {
			return domain.NotFound("order on route", orderID)
		}
		ids := make([]string, 0, len(rt.OrderIDs))
		for _, id := range rt.OrderIDs {
			if id != orderID {
				ids = append(ids, id)
			}
		}
		rt.OrderIDs = ids
		rt.UpdatedAt = uc.clock.Now()
		if err := repos.Routes.Update(ctx, rt); err != nil {
			return fmt.Errorf("update route: %w", err)
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition cambia el estado de la ruta. Desde COMPLETED o CANCELLED falla con "route already closed".
func (uc *UseCase) Transition(ctx context.Context, routeID string, next entity.RouteStatus) (*entity.Route, error) {
	var out *entity.Route
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		rt, err := uc.lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		from := rt.Status
		if err := rt.TransitionTo(next, uc.clock.Now()); err != nil {
			return err
		}
		if err := repos.Routes.Update(ctx, rt); err != nil {
			return fmt.Errorf("update route: %w", err)
		}
		uc.log.Info().Str("route_id", rt.ID).Str("from", string(from)).Str("to", string(next)).Msg("estado de ruta actualizado")
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate baja lógica de la ruta.
func (uc *UseCase) Deactivate(ctx context.Context, routeID string) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		rt, err := uc.lockRoute(ctx, repos, routeID)
		if err != nil {
			return err
		}
		rt.Active = false
		rt.UpdatedAt = uc.clock.Now()
		if err := repos.Routes.Update(ctx, rt); err != nil {
			return fmt.Errorf("update route: %w", err)
		}
		return nil
	})
}

// Get devuelve la ruta con los IDs de sus pedidos.
func (uc *UseCase) Get(ctx context.Context, routeID string) (*entity.Route, error) {
	rt, err := uc.reads.Routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	if rt == nil {
		return nil, domain.NotFound("route", routeID)
	}
	return rt, nil
}

// List rutas más recientes primero.
func (uc *UseCase) List(ctx context.Context, filter repository.RouteFilter, limit, offset int) ([]*entity.Route, error) {
	limit, offset = dto.ClampPage(limit, offset)
	return uc.reads.Routes.List(ctx, filter, limit, offset)
}

// checkEligible bloquea el pedido y verifica que se pueda programar:
// existe, no está DELIVERED/CANCELLED y no está en otra ruta abierta.
func (uc *UseCase) checkEligible(ctx context.Context, repos repository.Repos, orderID, routeID string) error {
	o, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return domain.NotFound("order", orderID)
	}
	if !o.Status.IsRoutable() {
		return domain.BusinessRule("ORDER_NOT_ROUTABLE",
			fmt.Sprintf("order %s cannot be scheduled: status %s", orderID, o.Status)).
			WithDetail("order_id", orderID).
			WithDetail("status", string(o.Status))
	}
	other, err := repos.Routes.OpenRouteForOrder(ctx, orderID, routeID)
	if err != nil {
		return fmt.Errorf("check open routes: %w", err)
	}
	if other != "" {
		return domain.Conflict("order", orderID,
			fmt.Sprintf("order %s is already assigned to open route %s", orderID, other)).
			WithDetail("route_id", other)
	}
	return nil
}

func (uc *UseCase) lockRoute(ctx context.Context, repos repository.Repos, routeID string) (*entity.Route, error) {
	rt, err := repos.Routes.GetForUpdate(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	if rt == nil {
		return nil, domain.NotFound("route", routeID)
	}
	return rt, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
