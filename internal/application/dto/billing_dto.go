package dto

// CreateInvoiceRequest entrada para crear un comprobante.
type CreateInvoiceRequest struct {
	BusinessID             string               `json:"businessId" validate:"required,max=64"`
	DocumentType           string               `json:"documentType" validate:"required"`
	Serie                  string               `json:"serie" validate:"max=8"`
	Numero                 string               `json:"numero" validate:"max=20"`
	CustomerName           string               `json:"customerName" validate:"max=200"`
	CustomerDocumentType   string               `json:"customerDocumentType" validate:"required"`
	CustomerDocumentNumber string               `json:"customerDocumentNumber" validate:"max=20"`
	IssueDate              string               `json:"issueDate"`
	DueDate                string               `json:"dueDate,omitempty"`
	Items                  []InvoiceItemRequest `json:"items" validate:"max=200,dive"`
}

// InvoiceItemRequest ítem de entrada. taxRate admite 18 o 0.18.
type InvoiceItemRequest struct {
	Description string `json:"description" validate:"max=500"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	TaxRate     Amount `json:"taxRate"`
}

// ListInvoicesQuery filtros del listado.
type ListInvoicesQuery struct {
	BusinessID    string `query:"businessId" validate:"required"`
	DocumentType  string `query:"documentType" validate:"max=10"`
	PaymentStatus string `query:"paymentStatus" validate:"max=10"`
	Limit         int    `query:"limit" validate:"gte=0"`
}

// BusinessQuery query con solo businessId.
type BusinessQuery struct {
	BusinessID string `query:"businessId" validate:"required"`
}

// RegisterPaymentRequest entrada para registrar un abono.
type RegisterPaymentRequest struct {
	BusinessID  string `json:"businessId" validate:"required"`
	Amount      Amount `json:"amount"`
	PaymentDate string `json:"paymentDate,omitempty"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// MarkPaidRequest entrada para saldar la factura en un solo abono.
type MarkPaidRequest struct {
	BusinessID  string `json:"businessId" validate:"required"`
	PaymentDate string `json:"paymentDate,omitempty"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// EmitRequest entrada de emisión. ExpectedDocument ("F001-00001") es la confirmación
// explícita del usuario antes de emitir en producción.
type EmitRequest struct {
	BusinessID       string `json:"businessId" validate:"required"`
	ExpectedDocument string `json:"expectedDocument,omitempty" validate:"max=40"`
}

// InvoiceItemResponse ítem con sus importes.
type InvoiceItemResponse struct {
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	TaxRate     Amount `json:"taxRate"`
	Subtotal    Amount `json:"subtotal"`
	IGV         Amount `json:"igv"`
	Total       Amount `json:"total"`
}

// InvoiceResponse comprobante tal como lo consume la UI. paymentStatus es el estado efectivo.
type InvoiceResponse struct {
	ID                     string                `json:"id"`
	BusinessID             string                `json:"businessId"`
	DocumentType           string                `json:"documentType"`
	Serie                  string                `json:"serie"`
	Numero                 string                `json:"numero"`
	CustomerName           string                `json:"customerName"`
	CustomerDocumentType   string                `json:"customerDocumentType"`
	CustomerDocumentNumber string                `json:"customerDocumentNumber"`
	IssueDate              string                `json:"issueDate"`
	DueDate                *string               `json:"dueDate"`
	Subtotal               Amount                `json:"subtotal"`
	IGV                    Amount                `json:"igv"`
	Total                  Amount                `json:"total"`
	PaidAmount             Amount                `json:"paidAmount"`
	Balance                Amount                `json:"balance"`
	PaymentStatus          string                `json:"paymentStatus"`
	Status                 string                `json:"status"`
	Source                 string                `json:"source"`
	Items                  []InvoiceItemResponse `json:"items"`

	CpeBetaStatus        *string `json:"cpeBetaStatus"`
	CpeBetaCode          *string `json:"cpeBetaCode"`
	CpeBetaDescription   *string `json:"cpeBetaDescription"`
	CpeBetaError         *string `json:"cpeBetaError"`
	CpeBetaLastAttemptAt *string `json:"cpeBetaLastAttemptAt"`

	CpeStatus        *string `json:"cpeStatus"`
	CpeProvider      *string `json:"cpeProvider"`
	CpeTicket        *string `json:"cpeTicket"`
	CpeCode          *string `json:"cpeCode"`
	CpeDescription   *string `json:"cpeDescription"`
	CpeError         *string `json:"cpeError"`
	CpeLastAttemptAt *string `json:"cpeLastAttemptAt"`
	CpeAcceptedAt    *string `json:"cpeAcceptedAt"`
	CpeHasCdr        bool    `json:"cpeHasCdr"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// InvoiceEnvelope respuesta {ok, invoice}.
type InvoiceEnvelope struct {
	OK      bool             `json:"ok"`
	Invoice *InvoiceResponse `json:"invoice"`
}

// InvoiceListResponse respuesta {ok, invoices}.
type InvoiceListResponse struct {
	OK       bool               `json:"ok"`
	Invoices []*InvoiceResponse `json:"invoices"`
}

// PaymentResponse abono registrado.
type PaymentResponse struct {
	ID          string `json:"id"`
	Amount      Amount `json:"amount"`
	PaymentDate string `json:"paymentDate"`
	Note        string `json:"note"`
	CreatedAt   string `json:"createdAt"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

// PaymentListResponse respuesta {ok, payments}.
type PaymentListResponse struct {
	OK       bool               `json:"ok"`
	Payments []*PaymentResponse `json:"payments"`
}

// PaymentResultResponse resultado de registrar un abono o marcar pagada.
// PaymentID es null cuando mark-paid no tuvo nada que pagar.
type PaymentResultResponse struct {
	OK            bool    `json:"ok"`
	PaymentID     *string `json:"paymentId"`
	PaidAmount    Amount  `json:"paidAmount"`
	Balance       Amount  `json:"balance"`
	PaymentStatus string  `json:"paymentStatus"`
}

// CDRResponse constancia de recepción devuelta por el servicio.
type CDRResponse struct {
	Code        *string `json:"code"`
	Description *string `json:"description"`
	ZipBase64   *string `json:"zipBase64,omitempty"`
}

// EmitResultResponse resultado de un intento de emisión. Status puede ser ERROR con Error poblado.
type EmitResultResponse struct {
	Channel  string       `json:"channel"`
	Status   string       `json:"status"`
	Provider string       `json:"provider"`
	Ticket   *string      `json:"ticket"`
	CDR      *CDRResponse `json:"cdr,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// EmitResponse respuesta {ok, result, invoice}.
type EmitResponse struct {
	OK      bool                `json:"ok"`
	Result  *EmitResultResponse `json:"result"`
	Invoice *InvoiceResponse    `json:"invoice"`
}

// EmissionReadinessResponse estado de los requisitos de emisión del negocio.
type EmissionReadinessResponse struct {
	OK                  bool    `json:"ok"`
	BusinessID          string  `json:"businessId"`
	IssuerReady         bool    `json:"issuerReady"`
	Certificate         string  `json:"certificate"` // configured | missing | unknown
	CertificateFilename *string `json:"certificateFilename"`
	Ready               bool    `json:"ready"`
	BlockReason         string  `json:"blockReason,omitempty"`
}

// EmissionPreviewResponse datos para la confirmación humana previa a producción.
type EmissionPreviewResponse struct {
	OK                bool   `json:"ok"`
	InvoiceID         string `json:"invoiceId"`
	DocumentType      string `json:"documentType"`
	Serie             string `json:"serie"`
	Numero            string `json:"numero"`
	Document          string `json:"document"`
	CustomerName      string `json:"customerName"`
	Total             Amount `json:"total"`
	Environment       string `json:"environment"`
	BetaStatus        string `json:"betaStatus"`
	ProdStatus        string `json:"prodStatus"`
	CanEmitProduction bool   `json:"canEmitProduction"`
	BlockReason       string `json:"blockReason,omitempty"`
}

// BillingSummaryResponse indicadores del tablero de facturación.
type BillingSummaryResponse struct {
	OK            bool   `json:"ok"`
	BusinessID    string `json:"businessId"`
	From          string `json:"from"`
	To            string `json:"to"`
	Sales         Amount `json:"sales"`
	Customers     int    `json:"customers"`
	Products      int    `json:"products"`
	PendingCount  int    `json:"pendingCount"`
	PendingAmount Amount `json:"pendingAmount"`
	OverdueCount  int    `json:"overdueCount"`
	OverdueAmount Amount `json:"overdueAmount"`
}
