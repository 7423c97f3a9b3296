package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
)

// InventoryHandler maneja existencias, ajustes y kardex (protegido).
type InventoryHandler struct {
	ledger *inventory.Ledger
	log    zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, log: log}
}

func recordsResponse(list []*entity.InventoryRecord) []dto.InventoryResponse {
	out := make([]dto.InventoryResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.InventoryFromEntity(r))
	}
	return out
}

func movementsResponse(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementFromEntity(m))
	}
	return out
}

// List godoc
// @Summary      Listar inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int   false  "Límite"
// @Param        offset  query  int   false  "Desplazamiento"
// @Param        all     query  bool  false  "Incluir inactivos"
// @Success      200  {array}  dto.InventoryResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	list, err := h.ledger.List(c.UserContext(), !c.QueryBool("all", false), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(recordsResponse(list))
}

// LowStock godoc
// @Summary      Productos en o bajo su stock mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.InventoryResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	list, err := h.ledger.ListLowStock(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(recordsResponse(list))
}

// Replenishment godoc
// @Summary      Sugerencias de reposición
// @Description  Registros en o bajo el umbral con la cantidad para llegar a 1.5 × stock mínimo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReplenishmentSuggestion
// @Router       /api/inventory/replenishment [get]
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	out, err := h.ledger.Replenishment(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Existencias de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	rec, err := h.ledger.Get(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InventoryFromEntity(rec))
}

// Ensure godoc
// @Summary      Obtener o crear el registro de inventario
// @Description  Crea el registro con cantidad 0 si el producto activo aún no lo tiene.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/ensure [post]
func (h *InventoryHandler) Ensure(c *fiber.Ctx) error {
	rec, err := h.ledger.GetOrCreate(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InventoryFromEntity(rec))
}

// Movements godoc
// @Summary      Kardex del producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "Límite"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventory/{productId}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	list, err := h.ledger.History(c.UserContext(), c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(movementsResponse(list))
}

// Reconcile godoc
// @Summary      Conciliar existencias contra el kardex
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  inventory.Reconciliation
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.ledger.Reconcile(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de existencias
// @Description  Delta positivo registra ENTRADA, negativo SALIDA. Nunca deja la cantidad negativa.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                      true  "ID del producto"
// @Param        body       body  dto.AdjustInventoryRequest  true  "delta y motivo"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.ledger.Adjust(c.UserContext(), c.Params("productId"), in.Delta, in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Str("product_id", rec.ProductID).Int("delta", in.Delta).Msg("ajuste de inventario")
	return c.JSON(dto.InventoryFromEntity(rec))
}

// Create godoc
// @Summary      Crear registro de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInventoryRequest  true  "Producto, cantidad inicial, ubicación y umbral"
// @Success      201   {object}  dto.InventoryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.ledger.CreateRecord(c.UserContext(), inventory.CreateRecordInput{
		ProductID:       in.ProductID,
		InitialQuantity: in.InitialQuantity,
		Location:        in.Location,
		MinStock:        in.MinStock,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.InventoryFromEntity(rec))
}

// UpdateSettings godoc
// @Summary      Actualizar ubicación o stock mínimo
// @Description  No modifica la cantidad; para eso está el ajuste.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                      true  "ID del producto"
// @Param        body       body  dto.UpdateInventoryRequest  true  "location y/o min_stock"
// @Success      200  {object}  dto.InventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [put]
func (h *InventoryHandler) UpdateSettings(c *fiber.Ctx) error {
	var in dto.UpdateInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.ledger.UpdateSettings(c.UserContext(), c.Params("productId"), inventory.SettingsInput{
		Location: in.Location,
		MinStock: in.MinStock,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.InventoryFromEntity(rec))
}

// Deactivate godoc
// @Summary      Desactivar registro de inventario
// @Tags         inventory
// @Security     Bearer
// @Param        productId  path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId} [delete]
func (h *InventoryHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.ledger.Deactivate(c.UserContext(), c.Params("productId")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
