package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// PaymentUseCase registro de abonos. Cada abono se aplica con la fila de la factura bloqueada
// y una escritura condicionada al pagado previo, de modo que dos abonos simultáneos nunca
// dejan el saldo negativo.
type PaymentUseCase struct {
	txRunner    BillingTxRunner
	invoiceRepo repository.InvoiceRepository
	access      businessAccess
	cal         Calendar
	log         zerolog.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	businessRepo repository.BusinessRepository,
	cal Calendar,
	log zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		access:      businessAccess{repo: businessRepo},
		cal:         cal,
		log:         log,
	}
}

// RegisterPayment agrega un abono de amount a la factura.
func (uc *PaymentUseCase) RegisterPayment(ctx context.Context, userID, invoiceID string, in dto.RegisterPaymentRequest) (*dto.PaymentResultResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, in.BusinessID)
	if err != nil {
		return nil, err
	}
	amount := in.Amount.Decimal()
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	payment, err := uc.newPayment(userID, invoiceID, in.PaymentDate, in.Note)
	if err != nil {
		return nil, err
	}

	var inv *entity.Invoice
	err = uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		inv, err = lockInvoice(ctx, invoiceRepo, biz.ID, invoiceID)
		if err != nil {
			return err
		}
		expected := inv.PaidAmount
		stored, err := inv.ApplyPayment(amount)
		if err != nil {
			return err
		}
		payment.Amount = stored
		inv.UpdatedAt = payment.CreatedAt
		return invoiceRepo.RecordPayment(ctx, inv, payment, expected)
	})
	if err != nil {
		return nil, wrapLedgerError("registrar abono", err)
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("balance", inv.Balance.StringFixed(2)).
		Msg("abono registrado")
	return paymentResult(&payment.ID, inv), nil
}

// MarkInvoicePaid salda el saldo completo en un solo abono. Si el saldo ya es cero no hace nada
// y devuelve paymentId nulo.
func (uc *PaymentUseCase) MarkInvoicePaid(ctx context.Context, userID, invoiceID string, in dto.MarkPaidRequest) (*dto.PaymentResultResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, in.BusinessID)
	if err != nil {
		return nil, err
	}
	payment, err := uc.newPayment(userID, invoiceID, in.PaymentDate, in.Note)
	if err != nil {
		return nil, err
	}
	if payment.Note == "" {
		payment.Note = "Marcado como pagado"
	}

	var inv *entity.Invoice
	var paid bool
	err = uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		inv, err = lockInvoice(ctx, invoiceRepo, biz.ID, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Balance.IsPositive() {
			return nil
		}
		expected := inv.PaidAmount
		stored, err := inv.ApplyPayment(inv.Balance)
		if err != nil {
			return err
		}
		payment.Amount = stored
		inv.UpdatedAt = payment.CreatedAt
		paid = true
		return invoiceRepo.RecordPayment(ctx, inv, payment, expected)
	})
	if err != nil {
		return nil, wrapLedgerError("marcar pagada", err)
	}
	if !paid {
		return paymentResult(nil, inv), nil
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Msg("factura marcada como pagada")
	return paymentResult(&payment.ID, inv), nil
}

// ListPayments abonos de la factura en orden de registro.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, userID, businessID, invoiceID string) ([]*dto.PaymentResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, biz.ID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	payments, err := uc.invoiceRepo.ListPayments(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("listar abonos: %w", err)
	}
	out := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out, nil
}

func (uc *PaymentUseCase) newPayment(userID, invoiceID, rawDate, note string) (*entity.Payment, error) {
	date := uc.cal.Today()
	if strings.TrimSpace(rawDate) != "" {
		d, err := uc.cal.ParseDate(rawDate)
		if err != nil {
			return nil, err
		}
		date = d
	}
	return &entity.Payment{
		ID:          uuid.New().String(),
		InvoiceID:   invoiceID,
		Amount:      decimal.Zero,
		PaymentDate: date,
		Note:        strings.TrimSpace(note),
		CreatedAt:   uc.cal.Now(),
		CreatedBy:   userID,
	}, nil
}

func lockInvoice(ctx context.Context, repo repository.InvoiceRepository, businessID, invoiceID string) (*entity.Invoice, error) {
	inv, err := repo.GetByIDForUpdate(ctx, businessID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func paymentResult(paymentID *string, inv *entity.Invoice) *dto.PaymentResultResponse {
	return &dto.PaymentResultResponse{
		OK:            true,
		PaymentID:     paymentID,
		PaidAmount:    dto.NewAmount(inv.PaidAmount),
		Balance:       dto.NewAmount(inv.Balance),
		PaymentStatus: string(inv.PaymentStatus),
	}
}

func wrapLedgerError(op string, err error) error {
	for _, known := range []error{
		domain.ErrNotFound, domain.ErrInvalidAmount, domain.ErrAmountExceedsBalance, domain.ErrConcurrentUpdate,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
