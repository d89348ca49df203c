package dto

import (
	"bytes"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain/money"
)

// ErrorResponse cuerpo de error HTTP. El campo error es el mensaje corto que se muestra al usuario.
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError detalle de validación por campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Amount número decimal en JSON. Al leer acepta número o texto ("10,50") con la misma
// tolerancia que money.ParseAmount; al escribir produce un número JSON.
type Amount decimal.Decimal

// NewAmount convierte desde decimal.
func NewAmount(d decimal.Decimal) Amount { return Amount(d) }

// Decimal devuelve el valor como decimal.Decimal.
func (a Amount) Decimal() decimal.Decimal { return decimal.Decimal(a) }

// UnmarshalJSON nunca falla por contenido no numérico: vale cero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		*a = Amount(decimal.Zero)
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*a = Amount(money.ParseAmount(raw))
	return nil
}

// MarshalJSON escribe el valor sin comillas.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}
