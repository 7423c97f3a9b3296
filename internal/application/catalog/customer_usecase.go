package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/pkg/clock"
)

// CustomerUseCase casos de uso para clientes.
type CustomerUseCase struct {
	repo  repository.CustomerRepository
	clock clock.Clock
	ids   clock.IDGenerator
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository, clk clock.Clock, ids clock.IDGenerator) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, clock: clk, ids: ids}
}

// Create crea un nuevo cliente activo.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("name is required")
	}
	now := uc.clock.Now()
	customer := &entity.Customer{
		ID:        uc.ids.NewID(),
		Name:      name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	out := dto.CustomerFromEntity(customer)
	return &out, nil
}

func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, domain.NotFound("customer", id)
	}
	out := dto.CustomerFromEntity(c)
	return &out, nil
}

// Update actualiza los campos enviados. Active=false es la baja lógica.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if c == nil {
		return nil, domain.NotFound("customer", id)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.InvalidInput("name must not be empty")
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	c.UpdatedAt = uc.clock.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	out := dto.CustomerFromEntity(c)
	return &out, nil
}

// List lista clientes.
func (uc *CustomerUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) ([]dto.CustomerResponse, error) {
	limit, offset = dto.ClampPage(limit, offset)
	list, err := uc.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CustomerFromEntity(c))
	}
	return out, nil
}

// CourierUseCase casos de uso para mensajeros.
type CourierUseCase struct {
	repo  repository.CourierRepository
	clock clock.Clock
	ids   clock.IDGenerator
}

func NewCourierUseCase(repo repository.CourierRepository, clk clock.Clock, ids clock.IDGenerator) *CourierUseCase {
	return &CourierUseCase{repo: repo, clock: clk, ids: ids}
}

func (uc *CourierUseCase) Create(ctx context.Context, in dto.CreateCourierRequest) (*dto.CourierResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("name is required")
	}
	now := uc.clock.Now()
	c := &entity.Courier{
		ID:        uc.ids.NewID(),
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create courier: %w", err)
	}
	out := dto.CourierFromEntity(c)
	return &out, nil
}

func (uc *CourierUseCase) GetByID(ctx context.Context, id string) (*dto.CourierResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get courier: %w", err)
	}
	if c == nil {
		return nil, domain.NotFound("courier", id)
	}
	out := dto.CourierFromEntity(c)
	return &out, nil
}

func (uc *CourierUseCase) Update(ctx context.Context, id string, in dto.UpdateCourierRequest) (*dto.CourierResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get courier: %w", err)
	}
	if c == nil {
		return nil, domain.NotFound("courier", id)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.InvalidInput("name must not be empty")
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	c.UpdatedAt = uc.clock.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update courier: %w", err)
	}
	out := dto.CourierFromEntity(c)
	return &out, nil
}

func (uc *CourierUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) ([]dto.CourierResponse, error) {
	limit, offset = dto.ClampPage(limit, offset)
	list, err := uc.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list couriers: %w", err)
	}
	out := make([]dto.CourierResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CourierFromEntity(c))
	}
	return out, nil
}
