package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden importa: ErrValidation se evalúa aparte para usar el mensaje de ValidationError.
var errorMappings = []errorMapping{
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "AUTHENTICATION_REQUIRED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicateDocument, fiber.StatusConflict, "DUPLICATE_DOCUMENT"},
	{domain.ErrDuplicateBusiness, fiber.StatusConflict, "DUPLICATE_BUSINESS"},
	{domain.ErrInvalidItems, fiber.StatusBadRequest, "INVALID_ITEMS"},
	{domain.ErrInvalidAmount, fiber.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrAmountExceedsBalance, fiber.StatusBadRequest, "AMOUNT_EXCEEDS_BALANCE"},
	{domain.ErrIssuerIncomplete, fiber.StatusBadRequest, "ISSUER_INCOMPLETE"},
	{domain.ErrCertificateMissing, fiber.StatusBadRequest, "CERTIFICATE_MISSING"},
	{domain.ErrSandboxNotAccepted, fiber.StatusBadRequest, "SANDBOX_NOT_ACCEPTED"},
	{domain.ErrAlreadyEmitted, fiber.StatusConflict, "ALREADY_EMITTED"},
	{domain.ErrEmissionInProgress, fiber.StatusConflict, "EMISSION_IN_PROGRESS"},
	{domain.ErrConcurrentUpdate, fiber.StatusConflict, "CONCURRENT_UPDATE"},
	{domain.ErrTransport, fiber.StatusBadGateway, "TRANSPORT_ERROR"},
}

// writeError traduce un error de caso de uso a {error, code}. Los errores no reconocidos
// se registran y se responden como INTERNAL sin exponer el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: ve.Message})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("operación sin respuesta a tiempo")
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación no respondió a tiempo, intenta de nuevo"})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			// ErrInvalidItems viene envuelto con el detalle del ítem.
			if m.err == domain.ErrInvalidItems {
				msg = err.Error()
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// ErrorHandler para fiber.Config: errores de Fiber (404 de ruta, body demasiado grande) y panics recuperados.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		return writeError(c, log, err)
	}
}
