package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/gestor-api/internal/application/dto"
	"github.com/jhoicas/gestor-api/internal/application/route"
	"github.com/jhoicas/gestor-api/internal/domain"
)

// statusFor traduce la categoría del error de dominio a código HTTP.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindBusinessRule:
		return fiber.StatusUnprocessableEntity
	case domain.KindInvalidTransition, domain.KindConflict, domain.KindDuplicate:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError escribe el ErrorResponse correspondiente a err.
// Los errores sin tipo de dominio salen como 500 sin exponer la causa.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	if de, ok := domain.AsError(err); ok {
		status := statusFor(de.Kind)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: de.Code, Message: de.Message, Details: de.Details})
	}
	if errors.Is(err, route.ErrManifestUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "MANIFEST_UNAVAILABLE", Message: err.Error()})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// ErrorHandler para fiber.Config: rutas inexistentes, métodos no permitidos y panics recuperados.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "HTTP_" + strconv.Itoa(fe.Code)
			if fe.Code == fiber.StatusNotFound {
				code = "NOT_FOUND"
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
		}
		return respondError(c, log, err)
	}
}

// pageFromQuery lee limit/offset del query string ya normalizados.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultLimit), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
