package billing_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

func (f *fixture) pay(invoiceID, amount string) (*dto.PaymentResultResponse, error) {
	return f.payments.RegisterPayment(context.Background(), ownerID, invoiceID, dto.RegisterPaymentRequest{
		BusinessID: f.bizID,
		Amount:     amt(amount),
	})
}

func TestRegisterPayment_AbonosHastaSaldar(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "1") // 118.00

	res, err := f.pay(inv.ID, "18")
	require.NoError(t, err)
	require.NotNil(t, res.PaymentID)
	assert.Equal(t, "100", res.Balance.Decimal().String())
	assert.Equal(t, "PARCIAL", res.PaymentStatus)

	res, err = f.pay(inv.ID, "100")
	require.NoError(t, err)
	assert.True(t, res.Balance.Decimal().IsZero())
	assert.Equal(t, "118", res.PaidAmount.Decimal().String())
	assert.Equal(t, "PAGADO", res.PaymentStatus)

	_, err = f.pay(inv.ID, "0.01")
	assert.ErrorIs(t, err, domain.ErrAmountExceedsBalance)

	payments, err := f.payments.ListPayments(context.Background(), ownerID, f.bizID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.Equal(t, ownerID, payments[0].CreatedBy)
}

func TestRegisterPayment_MontosInvalidos(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "2")

	for _, raw := range []string{"0", "-5", "0.004"} {
		_, err := f.pay(inv.ID, raw)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, raw)
	}

	_, err := f.pay(inv.ID, "118.01")
	assert.ErrorIs(t, err, domain.ErrAmountExceedsBalance)

	got, err := f.invoices.GetInvoice(context.Background(), ownerID, f.bizID, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Decimal().IsZero(), "un abono rechazado no modifica la factura")
}

func TestRegisterPayment_SaldoNoAumentaNuncaYNoQuedaNegativo(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "3")

	prev := inv.Balance.Decimal()
	for _, raw := range []string{"10.005", "33.333", "20", "54.66"} {
		res, err := f.pay(inv.ID, raw)
		require.NoError(t, err, raw)
		bal := res.Balance.Decimal()
		assert.True(t, bal.LessThan(prev), "el saldo debe bajar con cada abono")
		assert.False(t, bal.IsNegative())
		assert.True(t, res.PaidAmount.Decimal().Add(bal).Equal(inv.Total.Decimal()))
		prev = bal
	}
}

func TestRegisterPayment_ConcurrentesSoloUnoGana(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "4") // 118.00, 60% = 70.80

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.pay(inv.ID, "70.80")
		}(i)
	}
	wg.Wait()

	var ok, exceeded int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrAmountExceedsBalance):
			exceeded++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, exceeded)

	got, err := f.invoices.GetInvoice(context.Background(), ownerID, f.bizID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "47.2", got.Balance.Decimal().String())
}

func TestMarkInvoicePaid_Idempotente(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "5")
	_, err := f.pay(inv.ID, "18")
	require.NoError(t, err)

	req := dto.MarkPaidRequest{BusinessID: f.bizID}
	res, err := f.payments.MarkInvoicePaid(context.Background(), ownerID, inv.ID, req)
	require.NoError(t, err)
	require.NotNil(t, res.PaymentID)
	assert.Equal(t, "PAGADO", res.PaymentStatus)

	res, err = f.payments.MarkInvoicePaid(context.Background(), ownerID, inv.ID, req)
	require.NoError(t, err)
	assert.Nil(t, res.PaymentID)
	assert.Equal(t, "PAGADO", res.PaymentStatus)

	payments, err := f.payments.ListPayments(context.Background(), ownerID, f.bizID, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "100", payments[1].Amount.Decimal().String())
	assert.Equal(t, "Marcado como pagado", payments[1].Note)
}

func TestPayments_NegocioAjenoOFacturaInexistente(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "6")

	_, err := f.payments.RegisterPayment(context.Background(), intruderID, inv.ID, dto.RegisterPaymentRequest{BusinessID: f.bizID, Amount: amt("1")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.pay("no-existe", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.payments.ListPayments(context.Background(), ownerID, f.bizID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
