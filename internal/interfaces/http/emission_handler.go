package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// EmissionHandler emisión al registro tributario (BETA y producción).
type EmissionHandler struct {
	uc       *billing.EmissionOrchestrator
	validate *requestValidator
	log      zerolog.Logger
}

func NewEmissionHandler(uc *billing.EmissionOrchestrator, log zerolog.Logger) *EmissionHandler {
	return &EmissionHandler{uc: uc, validate: newRequestValidator(), log: log}
}

// EmitSandbox valida el comprobante en BETA.
// POST /api/billing/invoices/:id/emit-cpe
func (h *EmissionHandler) EmitSandbox(c *fiber.Ctx) error {
	in, ok, err := h.emitRequest(c)
	if !ok {
		return err
	}
	res, err := h.uc.ValidateSandbox(c.UserContext(), GetUserID(c), in.BusinessID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// EmitProduction emite en producción. Requiere BETA aceptado.
// POST /api/billing/invoices/:id/emit-cpe-prod
func (h *EmissionHandler) EmitProduction(c *fiber.Ctx) error {
	in, ok, err := h.emitRequest(c)
	if !ok {
		return err
	}
	res, err := h.uc.EmitProduction(c.UserContext(), GetUserID(c), in.BusinessID, c.Params("id"), in.ExpectedDocument)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *EmissionHandler) emitRequest(c *fiber.Ctx) (dto.EmitRequest, bool, error) {
	var in dto.EmitRequest
	if err := c.BodyParser(&in); err != nil {
		return in, false, errInvalidBody(c)
	}
	ok, err := h.validate.check(c, in)
	return in, ok, err
}

// Preview datos para confirmar la emisión en producción.
// GET /api/billing/invoices/:id/emission-preview?businessId=
func (h *EmissionHandler) Preview(c *fiber.Ctx) error {
	res, err := h.uc.Preview(c.UserContext(), GetUserID(c), c.Query("businessId"), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// DownloadCDR descarga el zip de la constancia de producción.
// GET /api/billing/invoices/:id/cdr?businessId=
func (h *EmissionHandler) DownloadCDR(c *fiber.Ctx) error {
	data, filename, err := h.uc.DownloadCDR(c.UserContext(), GetUserID(c), c.Query("businessId"), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// Readiness requisitos de emisión del negocio.
// GET /api/billing/emission-readiness?businessId=
func (h *EmissionHandler) Readiness(c *fiber.Ctx) error {
	var q dto.BusinessQuery
	if err := c.QueryParser(&q); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, q); !ok {
		return err
	}
	res, err := h.uc.Readiness(c.UserContext(), GetUserID(c), q.BusinessID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}
