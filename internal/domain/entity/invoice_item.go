package entity

import "github.com/shopspring/decimal"

// InvoiceItem línea de un comprobante. Inmutable una vez creada la factura.
type InvoiceItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // fracción (0.18)
	Subtotal    decimal.Decimal
	IGV         decimal.Decimal
	Total       decimal.Decimal
}
