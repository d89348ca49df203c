package billing

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

var csvHeader = []string{
	"Tipo", "Serie", "Numero", "Cliente", "TipoDocCliente", "DocCliente",
	"Emision", "Vencimiento", "Subtotal", "IGV", "Total", "Pagado", "Saldo",
	"EstadoPago", "EstadoCPE", "TicketCPE", "CodigoCPE",
}

const utf8BOM = "\ufeff"

// ExportCSV genera el reporte de comprobantes con los mismos filtros que ListInvoices.
// Cada campo va entre comillas dobles; UTF-8 con BOM para que Excel respete los acentos.
func (uc *InvoiceUseCase) ExportCSV(ctx context.Context, userID string, q dto.ListInvoicesQuery) ([]byte, error) {
	invoices, today, err := uc.list(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return renderCSV(invoices, today), nil
}

func renderCSV(invoices []*entity.Invoice, today time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	writeCSVRow(&buf, csvHeader)
	for _, inv := range invoices {
		writeCSVRow(&buf, []string{
			string(inv.DocumentType),
			inv.Serie,
			inv.Numero,
			inv.CustomerName,
			string(inv.CustomerDocumentType),
			inv.CustomerDocumentNumber,
			formatCSVDate(&inv.IssueDate),
			formatCSVDate(inv.DueDate),
			inv.Subtotal.StringFixed(2),
			inv.IGV.StringFixed(2),
			inv.Total.StringFixed(2),
			inv.PaidAmount.StringFixed(2),
			inv.Balance.StringFixed(2),
			string(inv.EffectiveStatus(today)),
			inv.Prod.Status.String(),
			inv.Prod.Ticket,
			inv.Prod.Code,
		})
	}
	return buf.Bytes()
}

// encoding/csv solo cita los campos que lo necesitan; aquí se citan todos.
func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// d/m/yyyy como en es-PE; "-" si no hay fecha.
func formatCSVDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2/1/2006")
}
