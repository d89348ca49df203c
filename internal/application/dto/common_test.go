package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

func TestAmount_UnmarshalNumeroOTexto(t *testing.T) {
	var in struct {
		A dto.Amount `json:"a"`
		B dto.Amount `json:"b"`
		C dto.Amount `json:"c"`
		D dto.Amount `json:"d"`
		E dto.Amount `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 10.005, "b": "12,50", "c": "abc", "d": null, "e": ""}`), &in)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("10.005").Equal(in.A.Decimal()))
	assert.True(t, decimal.RequireFromString("12.5").Equal(in.B.Decimal()))
	assert.True(t, in.C.Decimal().IsZero(), "texto no numérico vale cero")
	assert.True(t, in.D.Decimal().IsZero())
	assert.True(t, in.E.Decimal().IsZero())
}

func TestAmount_MarshalComoNumero(t *testing.T) {
	out, err := json.Marshal(struct {
		Total dto.Amount `json:"total"`
	}{Total: dto.NewAmount(decimal.RequireFromString("29.51"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 29.51}`, string(out))
}

func TestErrorResponse_CampoError(t *testing.T) {
	out, err := json.Marshal(dto.ErrorResponse{Code: "VALIDATION", Message: "serie requerida"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"VALIDATION","error":"serie requerida"}`, string(out))
}
