package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/money"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500

	// largos de columna; se miden después de normalizar (ß pasa a SS)
	maxSerieLen       = 8
	maxNumeroLen      = 20
	maxCustomerDocLen = 20
)

// InvoiceUseCase alta y consulta de comprobantes.
type InvoiceUseCase struct {
	txRunner    BillingTxRunner
	invoiceRepo repository.InvoiceRepository
	access      businessAccess
	cal         Calendar
	log         zerolog.Logger
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	businessRepo repository.BusinessRepository,
	cal Calendar,
	log zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		access:      businessAccess{repo: businessRepo},
		cal:         cal,
		log:         log,
	}
}

// CreateInvoice valida la entrada, calcula los totales y guarda la factura en PENDIENTE.
//
// Orden de validación: campos obligatorios, FACTURA exige RUC, fechas, duplicado, ítems.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, in.BusinessID)
	if err != nil {
		return nil, err
	}

	inv, err := uc.buildInvoice(biz, in)
	if err != nil {
		return nil, err
	}
	err = uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		exists, err := invoiceRepo.ExistsDocument(ctx, biz.ID, inv.DocumentType, inv.Serie, inv.Numero)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateDocument
		}
		items, err := buildItems(in.Items)
		if err != nil {
			return err
		}
		inv.Items = items
		totals := make([]money.Totals, len(items))
		for i, it := range items {
			totals[i] = money.Totals{Subtotal: it.Subtotal, IGV: it.IGV, Total: it.Total}
		}
		agg := money.Aggregate(totals)
		inv.Subtotal, inv.IGV, inv.Total = agg.Subtotal, agg.IGV, agg.Total
		inv.PaidAmount = decimal.Zero
		inv.Balance = agg.Total
		inv.PaymentStatus = entity.PaymentPending
		if inv.Balance.IsZero() {
			inv.PaymentStatus = entity.PaymentPaid
		}
		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateDocument) || errors.Is(err, domain.ErrInvalidItems) {
			return nil, err
		}
		return nil, fmt.Errorf("crear factura: %w", err)
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("business_id", biz.ID).
		Str("document", inv.DocumentLabel()).
		Str("total", inv.Total.StringFixed(2)).
		Msg("factura creada")
	return toInvoiceResponse(inv, uc.cal.Today()), nil
}

func (uc *InvoiceUseCase) buildInvoice(biz *entity.Business, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	serie := entity.NormalizeDocumentKey(in.Serie)
	numero := entity.NormalizeDocumentKey(in.Numero)
	customerName := strings.TrimSpace(in.CustomerName)
	customerDoc := strings.TrimSpace(in.CustomerDocumentNumber)

	switch {
	case serie == "":
		return nil, domain.NewValidationError("la serie es obligatoria")
	case numero == "":
		return nil, domain.NewValidationError("el número es obligatorio")
	case customerName == "":
		return nil, domain.NewValidationError("el nombre del cliente es obligatorio")
	case customerDoc == "":
		return nil, domain.NewValidationError("el documento del cliente es obligatorio")
	case utf8.RuneCountInString(serie) > maxSerieLen:
		return nil, domain.NewValidationError(fmt.Sprintf("la serie admite hasta %d caracteres", maxSerieLen))
	case utf8.RuneCountInString(numero) > maxNumeroLen:
		return nil, domain.NewValidationError(fmt.Sprintf("el número admite hasta %d caracteres", maxNumeroLen))
	case utf8.RuneCountInString(customerDoc) > maxCustomerDocLen:
		return nil, domain.NewValidationError(fmt.Sprintf("el documento del cliente admite hasta %d caracteres", maxCustomerDocLen))
	}

	docType := entity.DocumentType(strings.ToUpper(strings.TrimSpace(in.DocumentType)))
	if !docType.Valid() {
		return nil, domain.NewValidationError("tipo de comprobante inválido")
	}
	custType := entity.CustomerDocumentType(strings.ToUpper(strings.TrimSpace(in.CustomerDocumentType)))
	if !custType.Valid() {
		return nil, domain.NewValidationError("tipo de documento del cliente inválido")
	}
	if docType == entity.DocumentFactura && custType != entity.CustomerRUC {
		return nil, domain.NewValidationError("la factura requiere un cliente con RUC")
	}

	if strings.TrimSpace(in.IssueDate) == "" {
		return nil, domain.NewValidationError("la fecha de emisión es obligatoria")
	}
	issueDate, err := uc.cal.ParseDate(in.IssueDate)
	if err != nil {
		return nil, err
	}
	inv := &entity.Invoice{
		ID:                     uuid.New().String(),
		OwnerID:                biz.OwnerID,
		BusinessID:             biz.ID,
		DocumentType:           docType,
		Serie:                  serie,
		Numero:                 numero,
		CustomerName:           customerName,
		CustomerDocumentType:   custType,
		CustomerDocumentNumber: customerDoc,
		IssueDate:              issueDate,
		Status:                 entity.InvoiceStatusIssued,
		Source:                 entity.InvoiceSourceManual,
	}
	if strings.TrimSpace(in.DueDate) != "" {
		due, err := uc.cal.ParseDate(in.DueDate)
		if err != nil {
			return nil, err
		}
		if due.Before(issueDate) {
			return nil, domain.NewValidationError("el vencimiento no puede ser anterior a la emisión")
		}
		inv.DueDate = &due
	}
	now := uc.cal.Now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	return inv, nil
}

func buildItems(in []dto.InvoiceItemRequest) ([]entity.InvoiceItem, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: agrega al menos un ítem", domain.ErrInvalidItems)
	}
	items := make([]entity.InvoiceItem, 0, len(in))
	for i, raw := range in {
		desc := strings.TrimSpace(raw.Description)
		qty := raw.Quantity.Decimal()
		price := raw.UnitPrice.Decimal()
		rate := money.NormalizeTaxRate(raw.TaxRate.Decimal())
		switch {
		case desc == "":
			return nil, fmt.Errorf("%w: el ítem %d no tiene descripción", domain.ErrInvalidItems, i+1)
		case !qty.IsPositive():
			return nil, fmt.Errorf("%w: el ítem %d debe tener cantidad mayor a cero", domain.ErrInvalidItems, i+1)
		case price.IsNegative():
			return nil, fmt.Errorf("%w: el ítem %d tiene precio negativo", domain.ErrInvalidItems, i+1)
		case rate.GreaterThanOrEqual(decimal.NewFromInt(1)):
			return nil, fmt.Errorf("%w: el ítem %d tiene una tasa de impuesto inválida", domain.ErrInvalidItems, i+1)
		}
		t := money.ComputeLine(money.Line{Quantity: qty, UnitPrice: price, TaxRate: rate})
		items = append(items, entity.InvoiceItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			TaxRate:     rate,
			Subtotal:    t.Subtotal,
			IGV:         t.IGV,
			Total:       t.Total,
		})
	}
	return items, nil
}

// GetInvoice obtiene una factura del negocio. Una factura de otro negocio se reporta como no encontrada.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, userID, businessID, id string) (*dto.InvoiceResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, biz.ID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return toInvoiceResponse(inv, uc.cal.Today()), nil
}

// ListInvoices lista las facturas del negocio, más recientes primero.
// El filtro paymentStatus usa el estado efectivo (incluye VENCIDO).
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, userID string, q dto.ListInvoicesQuery) ([]*dto.InvoiceResponse, error) {
	invoices, today, err := uc.list(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, today))
	}
	return out, nil
}

func (uc *InvoiceUseCase) list(ctx context.Context, userID string, q dto.ListInvoicesQuery) ([]*entity.Invoice, time.Time, error) {
	biz, err := uc.access.authorize(ctx, userID, q.BusinessID)
	if err != nil {
		return nil, time.Time{}, err
	}
	f := repository.InvoiceFilter{
		BusinessID: biz.ID,
		Today:      uc.cal.Today(),
		Limit:      q.Limit,
	}
	if q.DocumentType != "" {
		f.DocumentType = entity.DocumentType(strings.ToUpper(q.DocumentType))
		if !f.DocumentType.Valid() {
			return nil, time.Time{}, domain.NewValidationError("documentType inválido")
		}
	}
	if q.PaymentStatus != "" {
		f.PaymentStatus = entity.PaymentStatus(strings.ToUpper(q.PaymentStatus))
		if !f.PaymentStatus.Valid() {
			return nil, time.Time{}, domain.NewValidationError("paymentStatus inválido")
		}
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	invoices, err := uc.invoiceRepo.List(ctx, f)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("listar facturas: %w", err)
	}
	return invoices, f.Today, nil
}
