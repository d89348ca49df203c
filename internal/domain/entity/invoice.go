package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/money"
)

// DocumentType tipo de comprobante de pago.
type DocumentType string

const (
	DocumentFactura DocumentType = "FACTURA"
	DocumentBoleta  DocumentType = "BOLETA"
)

// Valid indica si el tipo es uno de los soportados.
func (t DocumentType) Valid() bool {
	return t == DocumentFactura || t == DocumentBoleta
}

// CustomerDocumentType tipo de documento de identidad del cliente.
type CustomerDocumentType string

const (
	CustomerRUC  CustomerDocumentType = "RUC"
	CustomerDNI  CustomerDocumentType = "DNI"
	CustomerOtro CustomerDocumentType = "OTRO"
)

// Valid indica si el tipo es uno de los soportados.
func (t CustomerDocumentType) Valid() bool {
	return t == CustomerRUC || t == CustomerDNI || t == CustomerOtro
}

// PaymentStatus estado de cobranza. VENCIDO nunca se persiste: se deriva con EffectiveStatus.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDIENTE"
	PaymentPartial PaymentStatus = "PARCIAL"
	PaymentPaid    PaymentStatus = "PAGADO"
	PaymentOverdue PaymentStatus = "VENCIDO"
)

// Valid indica si el estado es conocido (incluye VENCIDO, válido como filtro).
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentOverdue:
		return true
	}
	return false
}

const (
	InvoiceStatusIssued = "EMITIDA"
	InvoiceSourceManual = "MANUAL"
)

// NormalizeDocumentKey recorta y pasa a mayúsculas serie o número.
// Un Caser guarda estado, por eso se crea uno por llamada.
func NormalizeDocumentKey(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// Invoice comprobante (factura o boleta) con su cobranza y su estado de emisión por canal.
type Invoice struct {
	ID                     string
	OwnerID                string
	BusinessID             string
	DocumentType           DocumentType
	Serie                  string
	Numero                 string
	CustomerName           string
	CustomerDocumentType   CustomerDocumentType
	CustomerDocumentNumber string
	IssueDate              time.Time  // fecha civil, medianoche UTC
	DueDate                *time.Time // fecha civil, medianoche UTC
	Items                  []InvoiceItem
	Subtotal               decimal.Decimal
	IGV                    decimal.Decimal
	Total                  decimal.Decimal
	PaidAmount             decimal.Decimal
	Balance                decimal.Decimal
	PaymentStatus          PaymentStatus // PENDIENTE | PARCIAL | PAGADO
	Status                 string
	Source                 string
	Beta                   EmissionState
	Prod                   EmissionState
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DocumentLabel devuelve "SERIE-NUMERO".
func (inv *Invoice) DocumentLabel() string {
	return inv.Serie + "-" + inv.Numero
}

// IsOverdue indica si el vencimiento ya pasó con saldo pendiente. today es la fecha civil
// del negocio (medianoche UTC): una factura que vence hoy aún no está vencida.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	if inv.DueDate == nil || inv.PaymentStatus == PaymentPaid || !inv.Balance.IsPositive() {
		return false
	}
	return inv.DueDate.Before(today)
}

// EffectiveStatus estado visible al usuario.
func (inv *Invoice) EffectiveStatus(today time.Time) PaymentStatus {
	if inv.IsOverdue(today) {
		return PaymentOverdue
	}
	return inv.PaymentStatus
}

// ApplyPayment registra un abono sobre los totales de la factura y devuelve el monto
// almacenado (redondeado). La comparación con el saldo usa el monto sin redondear.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) (decimal.Decimal, error) {
	stored := money.Round2(amount)
	if !amount.IsPositive() || !stored.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if amount.GreaterThan(inv.Balance) {
		return decimal.Zero, domain.ErrAmountExceedsBalance
	}
	inv.PaidAmount = money.Round2(inv.PaidAmount.Add(stored))
	inv.Balance = money.Round2(inv.Total.Sub(inv.PaidAmount))
	if inv.Balance.IsNegative() {
		inv.Balance = decimal.Zero
	}
	if inv.Balance.IsZero() {
		inv.PaymentStatus = PaymentPaid
	} else {
		inv.PaymentStatus = PaymentPartial
	}
	return stored, nil
}

// Emission devuelve el estado del canal indicado.
func (inv *Invoice) Emission(ch Channel) *EmissionState {
	if ch == ChannelProd {
		return &inv.Prod
	}
	return &inv.Beta
}
