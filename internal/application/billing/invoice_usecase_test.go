package billing_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

func TestCreateInvoice_RedondeoPorLinea(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "00001",
		dto.InvoiceItemRequest{Description: "A", Quantity: amt("2"), UnitPrice: amt("10.005"), TaxRate: amt("0.18")},
		dto.InvoiceItemRequest{Description: "B", Quantity: amt("1"), UnitPrice: amt("5.004"), TaxRate: amt("0.18")},
	)

	assert.Equal(t, "25.01", inv.Subtotal.Decimal().StringFixed(2))
	assert.Equal(t, "4.50", inv.IGV.Decimal().StringFixed(2))
	assert.Equal(t, "29.51", inv.Total.Decimal().StringFixed(2))
	assert.Equal(t, "29.51", inv.Balance.Decimal().StringFixed(2))
	assert.True(t, inv.PaidAmount.Decimal().IsZero())
	assert.Equal(t, "PENDIENTE", inv.PaymentStatus)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "23.61", inv.Items[0].Total.Decimal().StringFixed(2))
}

func TestCreateInvoice_TasaComoPorcentaje(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "2",
		dto.InvoiceItemRequest{Description: "A", Quantity: amt("1"), UnitPrice: amt("100"), TaxRate: amt("18")},
	)
	assert.Equal(t, "0.18", inv.Items[0].TaxRate.Decimal().String())
	assert.Equal(t, "118.00", inv.Total.Decimal().StringFixed(2))
}

func TestCreateInvoice_DuplicadoSinImportarMayusculas(t *testing.T) {
	f := newFixture(t)
	f.createInvoice(t, "00010")

	req := facturaRequest(f.bizID, " 00010 ")
	req.Serie = "f001"
	_, err := f.invoices.CreateInvoice(context.Background(), ownerID, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateDocument)

	// mismo número como boleta: otro documento
	req = facturaRequest(f.bizID, "00010")
	req.DocumentType = "BOLETA"
	req.CustomerDocumentType = "DNI"
	req.CustomerDocumentNumber = "12345678"
	_, err = f.invoices.CreateInvoice(context.Background(), ownerID, req)
	assert.NoError(t, err)
}

func TestCreateInvoice_ConcurrentesMismoDocumento(t *testing.T) {
	f := newFixture(t)
	series := []string{"F001", "f001", " F001", "f001 "}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := facturaRequest(f.bizID, "00077")
			req.Serie = series[i%len(series)]
			_, errs[i] = f.invoices.CreateInvoice(context.Background(), ownerID, req)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrDuplicateDocument):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(errs)-1, dup)

	list, err := f.invoices.ListInvoices(context.Background(), ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*dto.CreateInvoiceRequest)
		msg    string
	}{
		{"factura con DNI", func(r *dto.CreateInvoiceRequest) { r.CustomerDocumentType = "DNI" }, "la factura requiere un cliente con RUC"},
		{"sin serie", func(r *dto.CreateInvoiceRequest) { r.Serie = "  " }, "la serie es obligatoria"},
		{"sin cliente", func(r *dto.CreateInvoiceRequest) { r.CustomerName = "" }, "el nombre del cliente es obligatorio"},
		{"tipo inválido", func(r *dto.CreateInvoiceRequest) { r.DocumentType = "NOTA" }, "tipo de comprobante inválido"},
		{"vence antes de emitir", func(r *dto.CreateInvoiceRequest) { r.DueDate = "2026-02-01" }, "el vencimiento no puede ser anterior a la emisión"},
		{"sin fecha", func(r *dto.CreateInvoiceRequest) { r.IssueDate = "" }, "la fecha de emisión es obligatoria"},
		{"serie que crece al normalizar", func(r *dto.CreateInvoiceRequest) { r.Serie = "ßßßßßßßß" }, "la serie admite hasta 8 caracteres"},
		{"número largo", func(r *dto.CreateInvoiceRequest) { r.Numero = strings.Repeat("ß", 11) }, "el número admite hasta 20 caracteres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := facturaRequest(f.bizID, "99")
			tc.mutate(&req)
			_, err := f.invoices.CreateInvoice(context.Background(), ownerID, req)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}

func TestCreateInvoice_ItemsInvalidos(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name  string
		items []dto.InvoiceItemRequest
	}{
		{"sin ítems", []dto.InvoiceItemRequest{}},
		{"cantidad cero", []dto.InvoiceItemRequest{{Description: "A", Quantity: amt("0"), UnitPrice: amt("1")}}},
		{"precio negativo", []dto.InvoiceItemRequest{{Description: "A", Quantity: amt("1"), UnitPrice: amt("-1")}}},
		{"sin descripción", []dto.InvoiceItemRequest{{Description: " ", Quantity: amt("1"), UnitPrice: amt("1")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := facturaRequest(f.bizID, "50")
			req.Items = tc.items
			_, err := f.invoices.CreateInvoice(context.Background(), ownerID, req)
			assert.ErrorIs(t, err, domain.ErrInvalidItems)
		})
	}
	list, err := f.invoices.ListInvoices(context.Background(), ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID})
	require.NoError(t, err)
	assert.Empty(t, list, "ningún intento inválido debe persistir")
}

func TestCreateInvoice_TotalCeroQuedaPagada(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "3",
		dto.InvoiceItemRequest{Description: "Cortesía", Quantity: amt("1"), UnitPrice: amt("0"), TaxRate: amt("0.18")},
	)
	assert.Equal(t, "PAGADO", inv.PaymentStatus)
}

func TestInvoice_NegocioAjeno(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t, "4")

	_, err := f.invoices.CreateInvoice(context.Background(), intruderID, facturaRequest(f.bizID, "5"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.invoices.GetInvoice(context.Background(), intruderID, f.bizID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.invoices.ListInvoices(context.Background(), "", dto.ListInvoicesQuery{BusinessID: f.bizID})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListInvoices_FiltroVencidoYOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vencida := facturaRequest(f.bizID, "10")
	vencida.IssueDate, vencida.DueDate = "2026-02-01", "2026-03-14"
	_, err := f.invoices.CreateInvoice(ctx, ownerID, vencida)
	require.NoError(t, err)

	venceHoy := facturaRequest(f.bizID, "11")
	venceHoy.IssueDate, venceHoy.DueDate = "2026-03-10", "2026-03-15"
	_, err = f.invoices.CreateInvoice(ctx, ownerID, venceHoy)
	require.NoError(t, err)

	overdue, err := f.invoices.ListInvoices(ctx, ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID, PaymentStatus: "vencido"})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "10", overdue[0].Numero)
	assert.Equal(t, "VENCIDO", overdue[0].PaymentStatus)

	pending, err := f.invoices.ListInvoices(ctx, ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID, PaymentStatus: "PENDIENTE"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "11", pending[0].Numero)

	all, err := f.invoices.ListInvoices(ctx, ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "11", all[0].Numero, "más reciente primero")

	_, err = f.invoices.ListInvoices(ctx, ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID, PaymentStatus: "ANULADO"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExportCSV_Formato(t *testing.T) {
	f := newFixture(t)
	req := facturaRequest(f.bizID, "20")
	req.CustomerName = `Comercial "El Sol" SAC`
	req.DueDate = ""
	_, err := f.invoices.CreateInvoice(context.Background(), ownerID, req)
	require.NoError(t, err)

	data, err := f.invoices.ExportCSV(context.Background(), ownerID, dto.ListInvoicesQuery{BusinessID: f.bizID})
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.HasPrefix(out, "\ufeff"))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Tipo","Serie","Numero","Cliente","TipoDocCliente","DocCliente","Emision","Vencimiento","Subtotal","IGV","Total","Pagado","Saldo","EstadoPago","EstadoCPE","TicketCPE","CodigoCPE"`, lines[0])
	assert.Equal(t, `"FACTURA","F001","20","Comercial ""El Sol"" SAC","RUC","20100070970","1/3/2026","-","100.00","18.00","118.00","0.00","118.00","PENDIENTE","NO_ENVIADO","",""`, lines[1])
}

func TestSummary_VentasDelMesYCartera(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createInvoice(t, "1") // 118, marzo
	_, err := f.payments.RegisterPayment(ctx, ownerID, a.ID, dto.RegisterPaymentRequest{BusinessID: f.bizID, Amount: amt("18")})
	require.NoError(t, err)

	vencida := facturaRequest(f.bizID, "2") // febrero, vencida
	vencida.IssueDate, vencida.DueDate = "2026-02-01", "2026-03-10"
	_, err = f.invoices.CreateInvoice(ctx, ownerID, vencida)
	require.NoError(t, err)

	boleta := facturaRequest(f.bizID, "3",
		dto.InvoiceItemRequest{Description: "Servicio", Quantity: amt("1"), UnitPrice: amt("100"), TaxRate: amt("0.18")},
		dto.InvoiceItemRequest{Description: " Instalación ", Quantity: amt("1"), UnitPrice: amt("50"), TaxRate: amt("0.18")},
	)
	boleta.DocumentType, boleta.Serie = "BOLETA", "B001"
	boleta.CustomerDocumentType, boleta.CustomerDocumentNumber = "DNI", "12345678"
	boleta.IssueDate = "2026-03-05"
	c, err := f.invoices.CreateInvoice(ctx, ownerID, boleta)
	require.NoError(t, err)
	_, err = f.payments.MarkInvoicePaid(ctx, ownerID, c.ID, dto.MarkPaidRequest{BusinessID: f.bizID})
	require.NoError(t, err)

	sum, err := f.invoices.Summary(ctx, ownerID, f.bizID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", sum.From)
	assert.Equal(t, "2026-03-15", sum.To)
	assert.Equal(t, "295", sum.Sales.Decimal().String())
	assert.Equal(t, 2, sum.Customers)
	assert.Equal(t, 2, sum.Products)
	assert.Equal(t, 2, sum.PendingCount)
	assert.Equal(t, "218", sum.PendingAmount.Decimal().String())
	assert.Equal(t, 1, sum.OverdueCount)
	assert.Equal(t, "118", sum.OverdueAmount.Decimal().String())

	_, err = f.invoices.Summary(ctx, intruderID, f.bizID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
