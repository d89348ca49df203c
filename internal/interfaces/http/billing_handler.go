package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// BillingHandler comprobantes y cobranza (protegido).
type BillingHandler struct {
	invoices *billing.InvoiceUseCase
	payments *billing.PaymentUseCase
	validate *requestValidator
	log      zerolog.Logger
}

// NewBillingHandler construye el handler.
func NewBillingHandler(invoices *billing.InvoiceUseCase, payments *billing.PaymentUseCase, log zerolog.Logger) *BillingHandler {
	return &BillingHandler{invoices: invoices, payments: payments, validate: newRequestValidator(), log: log}
}

// CreateInvoice crea un comprobante con sus ítems.
// POST /api/billing/invoices
func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, in); !ok {
		return err
	}
	invoice, err := h.invoices.CreateInvoice(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.InvoiceEnvelope{OK: true, Invoice: invoice})
}

// ListInvoices lista comprobantes del negocio.
// GET /api/billing/invoices?businessId=&documentType=&paymentStatus=&limit=
func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	q, ok, err := h.listQuery(c)
	if !ok {
		return err
	}
	invoices, err := h.invoices.ListInvoices(c.UserContext(), GetUserID(c), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.InvoiceListResponse{OK: true, Invoices: invoices})
}

// Summary tablero: ventas del mes y cartera pendiente.
// GET /api/billing/summary?businessId=
func (h *BillingHandler) Summary(c *fiber.Ctx) error {
	var q dto.BusinessQuery
	if err := c.QueryParser(&q); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, q); !ok {
		return err
	}
	res, err := h.invoices.Summary(c.UserContext(), GetUserID(c), q.BusinessID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// ExportCSV descarga el listado como CSV.
// GET /api/billing/invoices/export?businessId=&documentType=&paymentStatus=&limit=
func (h *BillingHandler) ExportCSV(c *fiber.Ctx) error {
	q, ok, err := h.listQuery(c)
	if !ok {
		return err
	}
	data, err := h.invoices.ExportCSV(c.UserContext(), GetUserID(c), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="comprobantes.csv"`)
	return c.Send(data)
}

func (h *BillingHandler) listQuery(c *fiber.Ctx) (dto.ListInvoicesQuery, bool, error) {
	var q dto.ListInvoicesQuery
	if err := c.QueryParser(&q); err != nil {
		return q, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if ok, err := h.validate.check(c, q); !ok {
		return q, false, err
	}
	return q, true, nil
}

// GetInvoice detalle de un comprobante.
// GET /api/billing/invoices/:id?businessId=
func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	invoice, err := h.invoices.GetInvoice(c.UserContext(), GetUserID(c), c.Query("businessId"), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.InvoiceEnvelope{OK: true, Invoice: invoice})
}

// ListPayments abonos de un comprobante.
// GET /api/billing/invoices/:id/payments?businessId=
func (h *BillingHandler) ListPayments(c *fiber.Ctx) error {
	payments, err := h.payments.ListPayments(c.UserContext(), GetUserID(c), c.Query("businessId"), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PaymentListResponse{OK: true, Payments: payments})
}

// RegisterPayment registra un abono.
// POST /api/billing/invoices/:id/payments
func (h *BillingHandler) RegisterPayment(c *fiber.Ctx) error {
	var in dto.RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, in); !ok {
		return err
	}
	res, err := h.payments.RegisterPayment(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// MarkPaid salda el comprobante.
// POST /api/billing/invoices/:id/mark-paid
func (h *BillingHandler) MarkPaid(c *fiber.Ctx) error {
	var in dto.MarkPaidRequest
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody(c)
	}
	if ok, err := h.validate.check(c, in); !ok {
		return err
	}
	res, err := h.payments.MarkInvoicePaid(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}
