package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// BusinessHandler negocios del usuario autenticado.
type BusinessHandler struct {
	uc       *billing.BusinessUseCase
	validate *requestValidator
	log      zerolog.Logger
}

func NewBusinessHandler(uc *billing.BusinessUseCase, log zerolog.Logger) *BusinessHandler {
	return &BusinessHandler{uc: uc, validate: newRequestValidator(), log: log}
}

// List GET /api/businesses
func (h *BusinessHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BusinessListResponse{OK: true, Businesses: list})
}

// Create POST /api/businesses
func (h *BusinessHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBusinessRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, in); !ok {
		return err
	}
	b, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BusinessEnvelope{OK: true, Business: b})
}

// UpdateIssuer PUT /api/businesses/:id/issuer
func (h *BusinessHandler) UpdateIssuer(c *fiber.Ctx) error {
	var in dto.UpdateIssuerRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, in); !ok {
		return err
	}
	b, err := h.uc.UpdateIssuer(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BusinessEnvelope{OK: true, Business: b})
}
