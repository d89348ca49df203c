package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
)

const (
	ownerID    = "user-1"
	intruderID = "user-2"
)

// 2026-03-15 10:00 en Lima.
var fixedNow = time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	cal      billing.Calendar
	invoices *billing.InvoiceUseCase
	payments *billing.PaymentUseCase
	business *billing.BusinessUseCase
	bizID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)
	cal := billing.NewCalendar(lima, func() time.Time { return fixedNow })
	log := zerolog.Nop()

	f := &fixture{
		store:    store,
		cal:      cal,
		invoices: billing.NewInvoiceUseCase(store, store.Invoices(), store.Businesses(), cal, log),
		payments: billing.NewPaymentUseCase(store, store.Invoices(), store.Businesses(), cal, log),
		business: billing.NewBusinessUseCase(store.Businesses(), cal, log),
	}
	biz, err := f.business.Create(context.Background(), ownerID, dto.CreateBusinessRequest{
		RUC: "20601234567", Name: "Bodega Central SAC", AddressLine1: "Av. Arequipa 123", Ubigeo: "150101",
	})
	require.NoError(t, err)
	f.bizID = biz.ID
	return f
}

func amt(s string) dto.Amount {
	return dto.NewAmount(decimal.RequireFromString(s))
}

func facturaRequest(bizID, numero string, items ...dto.InvoiceItemRequest) dto.CreateInvoiceRequest {
	if len(items) == 0 {
		items = []dto.InvoiceItemRequest{{Description: "Servicio", Quantity: amt("1"), UnitPrice: amt("100"), TaxRate: amt("18")}}
	}
	return dto.CreateInvoiceRequest{
		BusinessID:             bizID,
		DocumentType:           "FACTURA",
		Serie:                  "F001",
		Numero:                 numero,
		CustomerName:           "Cliente SAC",
		CustomerDocumentType:   "RUC",
		CustomerDocumentNumber: "20100070970",
		IssueDate:              "2026-03-01",
		DueDate:                "2026-03-31",
		Items:                  items,
	}
}

func (f *fixture) createInvoice(t *testing.T, numero string, items ...dto.InvoiceItemRequest) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.invoices.CreateInvoice(context.Background(), ownerID, facturaRequest(f.bizID, numero, items...))
	require.NoError(t, err)
	return inv
}
