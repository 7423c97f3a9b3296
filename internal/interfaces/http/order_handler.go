package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/application/order"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

// OrderHandler maneja pedidos (protegido).
type OrderHandler struct {
	uc     *order.UseCase
	ledger *inventory.Ledger
	log    zerolog.Logger
}

// NewOrderHandler construye el handler. ledger se usa solo para el kardex del pedido.
func NewOrderHandler(uc *order.UseCase, ledger *inventory.Ledger, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, ledger: ledger, log: log}
}

func cancelResponse(res *order.CancelResult) dto.CancelOrderResponse {
	out := dto.CancelOrderResponse{Order: dto.OrderFromEntity(res.Order), Partial: res.Partial()}
	for _, f := range res.FailedReversals {
		out.FailedReversals = append(out.FailedReversals, dto.ReversalFailureResponse{
			ProductID: f.ProductID,
			Quantity:  f.Quantity,
			Error:     f.Err.Error(),
		})
	}
	return out
}

// Create godoc
// @Summary      Crear pedido
// @Description  Descuenta el stock de cada ítem en la misma transacción. Si un ítem falla no se guarda nada.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Cliente, dirección e ítems"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	items := make([]order.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	o, err := h.uc.Create(c.UserContext(), order.CreateInput{
		CustomerID: in.CustomerID,
		Address:    in.Address,
		Notes:      in.Notes,
		Items:      items,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(o))
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "PENDING, PROCESSING, IN_TRANSIT, DELIVERED o CANCELLED"
// @Param        customer_id  query  string  false  "Filtrar por cliente"
// @Param        all          query  bool    false  "Incluir inactivos"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.OrderListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	filter := repository.OrderFilter{
		CustomerID: c.Query("customer_id"),
		ActiveOnly: !c.QueryBool("all", false),
	}
	if s := c.Query("status"); s != "" {
		st, err := entity.ParseOrderStatus(s)
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter.Status = &st
	}
	page := pageFromQuery(c)
	list, err := h.uc.List(c.UserContext(), filter, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, dto.OrderFromEntity(o))
	}
	return c.JSON(dto.OrderListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Counts godoc
// @Summary      Pedidos activos por estado
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StatusCountResponse
// @Router       /api/orders/counts [get]
func (h *OrderHandler) Counts(c *fiber.Ctx) error {
	out, err := h.uc.CountAll(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido
// @Description  CANCELLED se procesa como cancelación y devuelve el stock; la respuesta es entonces CancelOrderResponse.
// @Description  Cancelar un pedido DELIVERED o ya CANCELLED responde 422 (ORDER_DELIVERED, ORDER_CANCELLED), igual que POST /cancel.
// @Description  Las demás transiciones inválidas responden 409.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del pedido"
// @Param        body  body  dto.UpdateStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	next, err := entity.ParseOrderStatus(in.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if next == entity.OrderCancelled {
		res, err := h.uc.Cancel(c.UserContext(), c.Params("id"), in.Reason)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(cancelResponse(res))
	}
	o, err := h.uc.Transition(c.UserContext(), c.Params("id"), next)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Description  Devuelve el stock de cada ítem. Si alguna reversión falla el pedido queda cancelado y partial=true.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "ID del pedido"
// @Param        body  body  dto.CancelOrderRequest  false  "Motivo"
// @Success      200   {object}  dto.CancelOrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	res, err := h.uc.Cancel(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(cancelResponse(res))
}

// Movements godoc
// @Summary      Movimientos de inventario del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/orders/{id}/movements [get]
func (h *OrderHandler) Movements(c *fiber.Ctx) error {
	list, err := h.ledger.OrderMovements(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(movementsResponse(list))
}

// Deactivate godoc
// @Summary      Baja lógica del pedido
// @Tags         orders
// @Security     Bearer
// @Param        id   path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
