package catalog

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

// ProductUseCase casos de uso CRUD para productos. El stock se maneja en el inventario.
type ProductUseCase struct {
	repo  repository.ProductRepository
	clock clock.Clock
	ids   clock.IDGenerator
	log   zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, clk clock.Clock, ids clock.IDGenerator, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, clock: clk, ids: ids, log: log.With().Str("component", "catalog").Logger()}
}

// Create crea un producto activo. El SKU es único.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.InvalidInput("sku and name are required")
	}
	if in.Price.IsNegative() {
		return nil, domain.InvalidInput("price must not be negative")
	}
	existing, err := uc.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	if existing != nil {
		return nil, domain.Duplicate("product", sku)
	}
	now := uc.clock.Now()
	product := &entity.Product{
		ID:          uc.ids.NewID(),
		SKU:         sku,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Duplicate("product", sku)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	uc.log.Info().Str("product_id", product.ID).Str("sku", sku).Msg("producto creado")
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("product", id)
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// Update actualiza los campos enviados. Cambiar el precio no afecta pedidos existentes.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.NotFound("product", id)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.InvalidInput("name must not be empty")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.InvalidInput("price must not be negative")
		}
		product.Price = *in.Price
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	product.UpdatedAt = uc.clock.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	out := dto.ProductFromEntity(product)
	return &out, nil
}

// Deactivate baja lógica. Los pedidos existentes conservan sus ítems.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := uc.Update(ctx, id, dto.UpdateProductRequest{Active: &inactive})
	return err
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) (*dto.ProductListResponse, error) {
	limit, offset = dto.ClampPage(limit, offset)
	list, err := uc.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ProductFromEntity(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
