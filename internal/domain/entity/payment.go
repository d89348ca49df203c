package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment abono registrado contra una factura. Solo se agregan, nunca se editan.
type Payment struct {
	ID          string
	InvoiceID   string
	Amount      decimal.Decimal // > 0, dos decimales
	PaymentDate time.Time       // fecha civil, medianoche UTC
	Note        string
	CreatedAt   time.Time
	CreatedBy   string
}
