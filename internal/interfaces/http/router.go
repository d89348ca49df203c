package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC  *billing.InvoiceUseCase
	PaymentUC  *billing.PaymentUseCase
	EmissionUC *billing.EmissionOrchestrator
	BusinessUC *billing.BusinessUseCase
	JWTSecret  string
	Log        zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Negocios
	businessHandler := NewBusinessHandler(deps.BusinessUC, deps.Log)
	businesses := protected.Group("/businesses")
	businesses.Get("/", businessHandler.List)
	businesses.Post("/", businessHandler.Create)
	businesses.Put("/:id/issuer", businessHandler.UpdateIssuer)

	// Comprobantes y cobranza
	billingHandler := NewBillingHandler(deps.InvoiceUC, deps.PaymentUC, deps.Log)
	emissionHandler := NewEmissionHandler(deps.EmissionUC, deps.Log)
	bill := protected.Group("/billing")
	bill.Get("/emission-readiness", emissionHandler.Readiness)
	bill.Get("/summary", billingHandler.Summary)

	invoices := bill.Group("/invoices")
	invoices.Post("/", billingHandler.CreateInvoice)
	invoices.Get("/", billingHandler.ListInvoices)
	// export antes de /:id
	invoices.Get("/export", billingHandler.ExportCSV)
	invoices.Get("/:id", billingHandler.GetInvoice)
	invoices.Get("/:id/payments", billingHandler.ListPayments)
	invoices.Post("/:id/payments", billingHandler.RegisterPayment)
	invoices.Post("/:id/mark-paid", billingHandler.MarkPaid)

	// Emisión CPE
	invoices.Post("/:id/emit-cpe", emissionHandler.EmitSandbox)
	invoices.Post("/:id/emit-cpe-prod", emissionHandler.EmitProduction)
	invoices.Get("/:id/emission-preview", emissionHandler.Preview)
	invoices.Get("/:id/cdr", emissionHandler.DownloadCDR)
}
