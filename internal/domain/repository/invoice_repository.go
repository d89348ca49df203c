package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// InvoiceFilter criterios del listado de comprobantes de un negocio.
type InvoiceFilter struct {
	BusinessID    string
	DocumentType  entity.DocumentType  // vacío = todos
	PaymentStatus entity.PaymentStatus // estado efectivo; vacío = todos
	Today         time.Time            // fecha civil usada para derivar VENCIDO
	Limit         int
}

// InvoiceRepository define el puerto de persistencia de comprobantes y sus abonos.
// Los Get* devuelven (nil, nil) si la factura no existe en el negocio.
type InvoiceRepository interface {
	// Create inserta la factura con sus ítems. Devuelve domain.ErrDuplicateDocument
	// si (negocio, tipo, serie, número) ya existe.
	Create(ctx context.Context, inv *entity.Invoice) error
	ExistsDocument(ctx context.Context, businessID string, docType entity.DocumentType, serie, numero string) (bool, error)
	GetByID(ctx context.Context, businessID, id string) (*entity.Invoice, error)
	// GetByIDForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, businessID, id string) (*entity.Invoice, error)
	List(ctx context.Context, f InvoiceFilter) ([]*entity.Invoice, error)
	// RecordPayment agrega el abono y actualiza pagado/saldo/estado solo si paid_amount sigue
	// siendo expectedPaid; si no, devuelve domain.ErrConcurrentUpdate.
	RecordPayment(ctx context.Context, inv *entity.Invoice, p *entity.Payment, expectedPaid decimal.Decimal) error
	ListPayments(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	// UpdateEmission persiste solo los campos del canal indicado.
	UpdateEmission(ctx context.Context, inv *entity.Invoice, ch entity.Channel) error
}
