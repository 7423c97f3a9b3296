package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/route"
	"github.com/jhoicas/gestor-api/internal/domain"
	"github.com/jhoicas/gestor-api/internal/domain/entity"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
)

// RouteHandler maneja rutas de entrega (protegido).
type RouteHandler struct {
	uc  *route.UseCase
	log zerolog.Logger
}

// NewRouteHandler construye el handler.
func NewRouteHandler(uc *route.UseCase, log zerolog.Logger) *RouteHandler {
	return &RouteHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear ruta
// @Description  Todos los pedidos deben existir y no estar entregados ni cancelados.
// @Tags         routes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRouteRequest  true  "Mensajero, fecha (YYYY-MM-DD) y pedidos"
// @Success      201   {object}  dto.RouteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/routes [post]
func (h *RouteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRouteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	var planned time.Time
	if in.PlannedDate != "" {
		t, err := time.Parse(dto.DateLayout, in.PlannedDate)
		if err != nil {
			return respondError(c, h.log, domain.InvalidInput(fmt.Sprintf("planned_date must be YYYY-MM-DD, got %q", in.PlannedDate)))
		}
		planned = t
	}
	rt, err := h.uc.Create(c.UserContext(), route.CreateInput{
		CourierID:        in.CourierID,
		PlannedDate:      planned,
		DistanceKm:       in.DistanceKm,
		EstimatedMinutes: in.EstimatedMinutes,
		OrderIDs:         in.OrderIDs,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RouteFromEntity(rt))
}

// GetByID godoc
// @Summary      Obtener ruta
// @Tags         routes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ruta"
// @Success      200  {object}  dto.RouteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/routes/{id} [get]
func (h *RouteHandler) GetByID(c *fiber.Ctx) error {
	rt, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.RouteFromEntity(rt))
}

// List godoc
// @Summary      Listar rutas
// @Tags         routes
// @Security     Bearer
// @Produce      json
// @Param        courier_id  query  string  false  "Filtrar por mensajero"
// @Param        status      query  string  false  "PLANNED, IN_PROGRESS, COMPLETED o CANCELLED"
// @Param        all         query  bool    false  "Incluir inactivas"
// @Success      200  {object}  dto.RouteListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/routes [get]
func (h *RouteHandler) List(c *fiber.Ctx) error {
	filter := repository.RouteFilter{
		CourierID:  c.Query("courier_id"),
		ActiveOnly: !c.QueryBool("all", false),
	}
	if s := c.Query("status"); s != "" {
		st, err := entity.ParseRouteStatus(s)
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
	items := make([]dto.RouteResponse, 0, len(list))
	for _, rt := range list {
		items = append(items, dto.RouteFromEntity(rt))
	}
	return c.JSON(dto.RouteListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// AssignOrders godoc
// @Summary      Asignar pedidos a la ruta
// @Description  Los pedidos ya asignados se ignoran. Si alguno no es elegible no se asigna ninguno.
// @Tags         routes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la ruta"
// @Param        body  body  dto.AssignOrdersRequest  true  "IDs de pedidos"
// @Success      200   {object}  dto.RouteResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/orders [post]
func (h *RouteHandler) AssignOrders(c *fiber.Ctx) error {
	var in dto.AssignOrdersRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rt, err := h.uc.AssignOrders(c.UserContext(), c.Params("id"), in.OrderIDs)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.RouteFromEntity(rt))
}

// RemoveOrder godoc
// @Summary      Quitar pedido de la ruta
// @Description  Una ruta COMPLETED o CANCELLED no cambia su lista de pedidos (409 ROUTE_CLOSED).
// @Tags         routes
// @Security     Bearer
// @Produce      json
// @Param        id       path  string  true  "ID de la ruta"
// @Param        orderId  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.RouteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/orders/{orderId} [delete]
func (h *RouteHandler) RemoveOrder(c *fiber.Ctx) error {
	rt, err := h.uc.RemoveOrder(c.UserContext(), c.Params("id"), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.RouteFromEntity(rt))
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la ruta
// @Tags         routes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la ruta"
// @Param        body  body  dto.UpdateStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.RouteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/status [patch]
func (h *RouteHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	next, err := entity.ParseRouteStatus(in.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	rt, err := h.uc.Transition(c.UserContext(), c.Params("id"), next)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.RouteFromEntity(rt))
}

// Deactivate godoc
// @Summary      Baja lógica de la ruta
// @Tags         routes
// @Security     Bearer
// @Param        id   path  string  true  "ID de la ruta"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/routes/{id} [delete]
func (h *RouteHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Manifest godoc
// @Summary      Hoja de ruta en PDF
// @Description  Paradas con cliente, dirección, productos y total, para el mensajero.
// @Tags         routes
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la ruta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/routes/{id}/manifest.pdf [get]
func (h *RouteHandler) Manifest(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.uc.Manifest(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdfBytes)
}
