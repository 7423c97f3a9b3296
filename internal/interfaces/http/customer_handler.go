package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/catalog"
	"github.com/jhoicas/gestor-api/internal/application/dto"
)

// CustomerHandler maneja clientes (protegido).
type CustomerHandler struct {
	uc  *catalog.CustomerUseCase
	log zerolog.Logger
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *catalog.CustomerUseCase, log zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear cliente
// @Tags         customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCustomerRequest  true  "Datos del cliente"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener cliente
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del cliente"
// @Success      200  {object}  dto.CustomerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar clientes
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int   false  "Límite"
// @Param        offset  query  int   false  "Desplazamiento"
// @Param        all     query  bool  false  "Incluir inactivos"
// @Success      200  {array}  dto.CustomerResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.List(c.UserContext(), !c.QueryBool("all", false), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cliente
// @Tags         customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del cliente"
// @Param        body  body  dto.UpdateCustomerRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.CustomerResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// CourierHandler maneja mensajeros (protegido).
type CourierHandler struct {
	uc  *catalog.CourierUseCase
	log zerolog.Logger
}

func NewCourierHandler(uc *catalog.CourierUseCase, log zerolog.Logger) *CourierHandler {
	return &CourierHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear mensajero
// @Tags         couriers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCourierRequest  true  "Datos del mensajero"
// @Success      201   {object}  dto.CourierResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/couriers [post]
func (h *CourierHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCourierRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener mensajero
// @Tags         couriers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del mensajero"
// @Success      200  {object}  dto.CourierResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/couriers/{id} [get]
func (h *CourierHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar mensajeros
// @Tags         couriers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CourierResponse
// @Router       /api/couriers [get]
func (h *CourierHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.List(c.UserContext(), !c.QueryBool("all", false), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar mensajero
// @Tags         couriers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del mensajero"
// @Param        body  body  dto.UpdateCourierRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.CourierResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/couriers/{id} [put]
func (h *CourierHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCourierRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
