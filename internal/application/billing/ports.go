package billing

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// BillingTxRunner ejecuta fn dentro de una transacción con un repositorio atado a ella.
// Si fn devuelve error se hace rollback.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// CertificateStatus estado del certificado digital del negocio en el servicio de emisión.
type CertificateStatus struct {
	Configured bool
	Filename   string
	SizeBytes  int64
	SHA256     string
}

// IssuerData datos del emisor enviados junto al comprobante.
type IssuerData struct {
	RUC          string `json:"ruc"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	Ubigeo       string `json:"ubigeo"`
	Department   string `json:"department,omitempty"`
	Province     string `json:"province,omitempty"`
	District     string `json:"district,omitempty"`
}

// SubmitRequest documento a enviar a un canal.
type SubmitRequest struct {
	BusinessID string
	Issuer     IssuerData
	Invoice    *entity.Invoice
}

// CDR constancia de recepción. ZipBase64 puede venir vacío.
type CDR struct {
	Code        string
	Description string
	ZipBase64   string
}

// SubmitResult respuesta del servicio cuando procesó el documento (aceptado o rechazado).
type SubmitResult struct {
	Status   entity.EmissionStatus // ACEPTADO | RECHAZADO
	Provider string
	Ticket   string
	CDR      *CDR
}

// RegistryClient puerto de salida hacia el servicio de comprobantes electrónicos.
// Un error de Submit significa que el documento no fue procesado (red, timeout, error del servicio).
type RegistryClient interface {
	CertificateStatus(ctx context.Context, businessID string) (*CertificateStatus, error)
	Submit(ctx context.Context, ch entity.Channel, req SubmitRequest) (*SubmitResult, error)
}

// EmissionLocker lock por factura compartido por ambos canales.
// TryLock devuelve domain.ErrEmissionInProgress si ya está tomado.
type EmissionLocker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// ArtifactStorage almacenamiento de constancias CDR.
type ArtifactStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}
