package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newInvoice(total string) *entity.Invoice {
	t := decimal.RequireFromString(total)
	return &entity.Invoice{Total: t, Balance: t, PaymentStatus: entity.PaymentPending}
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyPayment
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyPayment_ParcialYLuegoTotal(t *testing.T) {
	inv := newInvoice("118.00")

	stored, err := inv.ApplyPayment(decimal.RequireFromString("50"))
	require.NoError(t, err)
	assert.Equal(t, "50.00", stored.StringFixed(2))
	assert.Equal(t, entity.PaymentPartial, inv.PaymentStatus)
	assert.Equal(t, "68.00", inv.Balance.StringFixed(2))

	_, err = inv.ApplyPayment(decimal.RequireFromString("68"))
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.Balance.IsZero())
	assert.Equal(t, "118.00", inv.PaidAmount.StringFixed(2))
}

func TestApplyPayment_ExcedeSaldo(t *testing.T) {
	inv := newInvoice("100.00")

	_, err := inv.ApplyPayment(decimal.RequireFromString("100.01"))
	assert.ErrorIs(t, err, domain.ErrAmountExceedsBalance)
	assert.Equal(t, "100.00", inv.Balance.StringFixed(2), "el saldo no cambia")
	assert.True(t, inv.PaidAmount.IsZero())
}

// Un monto que redondea al saldo pero lo supera sin redondear se rechaza.
func TestApplyPayment_ComparaSinRedondear(t *testing.T) {
	inv := newInvoice("10.00")
	_, err := inv.ApplyPayment(decimal.RequireFromString("10.004"))
	assert.ErrorIs(t, err, domain.ErrAmountExceedsBalance)
}

func TestApplyPayment_MontoInvalido(t *testing.T) {
	inv := newInvoice("10.00")
	for _, raw := range []string{"0", "-1", "0.004"} {
		_, err := inv.ApplyPayment(decimal.RequireFromString(raw))
		assert.ErrorIsf(t, err, domain.ErrInvalidAmount, "monto %s", raw)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Estado efectivo
// ──────────────────────────────────────────────────────────────────────────────

func TestEffectiveStatus_Vencido(t *testing.T) {
	inv := newInvoice("50.00")
	due := date(2024, 3, 10)
	inv.DueDate = &due

	assert.Equal(t, entity.PaymentPending, inv.EffectiveStatus(date(2024, 3, 10)), "vence hoy: aún no vencida")
	assert.Equal(t, entity.PaymentOverdue, inv.EffectiveStatus(date(2024, 3, 11)))

	inv.PaymentStatus = entity.PaymentPaid
	inv.Balance = decimal.Zero
	assert.Equal(t, entity.PaymentPaid, inv.EffectiveStatus(date(2024, 4, 1)), "pagada nunca vence")
}

func TestEffectiveStatus_SinVencimiento(t *testing.T) {
	inv := newInvoice("50.00")
	assert.Equal(t, entity.PaymentPending, inv.EffectiveStatus(date(2030, 1, 1)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión
// ──────────────────────────────────────────────────────────────────────────────

func TestEmissionState_Record(t *testing.T) {
	inv := newInvoice("10.00")
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	inv.Emission(entity.ChannelProd).Record(entity.EmissionOutcome{Status: entity.EmissionError, Error: "timeout"}, first)
	assert.Equal(t, entity.EmissionError, inv.Prod.Status)
	assert.Nil(t, inv.Prod.AcceptedAt)
	assert.Equal(t, entity.EmissionNotSent, inv.Beta.Status, "el otro canal no cambia")

	second := first.Add(time.Minute)
	inv.Emission(entity.ChannelProd).Record(entity.EmissionOutcome{Status: entity.EmissionAccepted, Code: "0", Ticket: "T-1"}, second)
	assert.Equal(t, entity.EmissionAccepted, inv.Prod.Status)
	assert.Empty(t, inv.Prod.Error, "cada intento sobrescribe el error anterior")
	require.NotNil(t, inv.Prod.AcceptedAt)
	assert.Equal(t, second, *inv.Prod.AcceptedAt)
	assert.Equal(t, second, *inv.Prod.LastAttemptAt)
}

func TestEmissionStatus_String(t *testing.T) {
	assert.Equal(t, "NO_ENVIADO", entity.EmissionNotSent.String())
	assert.Equal(t, "RECHAZADO", entity.EmissionRejected.String())
}

func TestNormalizeDocumentKey(t *testing.T) {
	assert.Equal(t, "F001", entity.NormalizeDocumentKey("  f001 "))
	assert.Equal(t, "00001", entity.NormalizeDocumentKey("00001"))
}

func TestBusiness_IssuerReady(t *testing.T) {
	b := &entity.Business{AddressLine1: "Av. Arequipa 123", Ubigeo: "  "}
	assert.False(t, b.IssuerReady())
	b.Ubigeo = "150101"
	assert.True(t, b.IssuerReady())
}
