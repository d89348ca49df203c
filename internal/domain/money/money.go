// Package money concentra la aritmética de montos y tasas de los comprobantes.
//
// Todos los cálculos usan decimal exacto. Redondeo: mitad hacia arriba a dos decimales,
// por ítem primero y luego sobre la suma.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ParseAmount interpreta un monto ingresado por el usuario. Acepta coma decimal
// ("10,50"); cualquier texto no numérico vale cero. Nunca falla.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeTaxRate lleva la tasa a fracción: negativos y cero valen 0, valores mayores a 1
// se leen como porcentaje (18 -> 0.18).
func NormalizeTaxRate(v decimal.Decimal) decimal.Decimal {
	if !v.IsPositive() {
		return decimal.Zero
	}
	if v.GreaterThan(one) {
		return v.Div(hundred)
	}
	return v
}

// ParseTaxRate combina ParseAmount y NormalizeTaxRate.
func ParseTaxRate(raw string) decimal.Decimal {
	return NormalizeTaxRate(ParseAmount(raw))
}

// Round2 redondea a dos decimales.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Line datos de entrada de un ítem.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal // fracción ya normalizada
}

// Totals subtotal, IGV y total ya redondeados.
type Totals struct {
	Subtotal decimal.Decimal
	IGV      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeLine calcula los importes de un ítem.
func ComputeLine(l Line) Totals {
	subtotal := Round2(l.Quantity.Mul(l.UnitPrice))
	igv := Round2(subtotal.Mul(l.TaxRate))
	return Totals{
		Subtotal: subtotal,
		IGV:      igv,
		Total:    Round2(subtotal.Add(igv)),
	}
}

// Aggregate suma los importes por ítem y redondea cada suma una sola vez.
func Aggregate(lines []Totals) Totals {
	var out Totals
	for _, l := range lines {
		out.Subtotal = out.Subtotal.Add(l.Subtotal)
		out.IGV = out.IGV.Add(l.IGV)
		out.Total = out.Total.Add(l.Total)
	}
	out.Subtotal = Round2(out.Subtotal)
	out.IGV = Round2(out.IGV)
	out.Total = Round2(out.Total)
	return out
}
