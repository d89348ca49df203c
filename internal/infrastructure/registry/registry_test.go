package registry_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/registry"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

func sampleInvoice() *entity.Invoice {
	return &entity.Invoice{
		ID:                     "inv-1",
		DocumentType:           entity.DocumentFactura,
		Serie:                  "F001",
		Numero:                 "00001",
		CustomerName:           "Cliente SAC",
		CustomerDocumentType:   entity.CustomerRUC,
		CustomerDocumentNumber: "20100070970",
		IssueDate:              time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Items: []entity.InvoiceItem{{
			Description: "Servicio",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("100"),
			TaxRate:     decimal.RequireFromString("0.18"),
			Subtotal:    decimal.RequireFromString("100"),
			IGV:         decimal.RequireFromString("18"),
			Total:       decimal.RequireFromString("118"),
		}},
		Subtotal: decimal.RequireFromString("100"),
		IGV:      decimal.RequireFromString("18"),
		Total:    decimal.RequireFromString("118"),
	}
}

func sampleRequest() billing.SubmitRequest {
	return billing.SubmitRequest{
		BusinessID: "biz-1",
		Issuer:     billing.IssuerData{RUC: "20601234567", Name: "Mi Empresa", AddressLine1: "Av. Lima 123", Ubigeo: "150101"},
		Invoice:    sampleInvoice(),
	}
}

func TestCDR_ConstruirYLeer(t *testing.T) {
	inv := sampleInvoice()
	zipBytes, err := registry.BuildCDRZip(inv, registry.CDRContent{
		IssuerRUC:   "20601234567",
		Ticket:      "T-1",
		Code:        "0",
		Description: "La Factura numero F001-00001, ha sido aceptada",
		At:          time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	code, desc, err := registry.ParseCDR(zipBytes)
	require.NoError(t, err)
	assert.Equal(t, "0", code)
	assert.Equal(t, "La Factura numero F001-00001, ha sido aceptada", desc)
	assert.Equal(t, "R-20601234567-01-F001-00001", registry.CDRFilename("20601234567", inv))
}

func TestParseCDR_ZipInvalido(t *testing.T) {
	_, _, err := registry.ParseCDR([]byte("no es un zip"))
	assert.Error(t, err)
}

func TestSimulator_AceptaYRechaza(t *testing.T) {
	sim := registry.NewSimulator(nil, zerolog.Nop())
	ctx := context.Background()

	res, err := sim.Submit(ctx, entity.ChannelBeta, sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.EmissionAccepted, res.Status)
	assert.Equal(t, registry.SimulatorProvider, res.Provider)
	assert.Contains(t, res.Ticket, "SIM-BETA-")
	require.NotNil(t, res.CDR)
	assert.Equal(t, "0", res.CDR.Code)
	assert.NotEmpty(t, res.CDR.ZipBase64)

	req := sampleRequest()
	req.Invoice.CustomerDocumentNumber = "123"
	res, err = sim.Submit(ctx, entity.ChannelProd, req)
	require.NoError(t, err)
	assert.Equal(t, entity.EmissionRejected, res.Status)
	assert.Equal(t, "2800", res.CDR.Code)
}

func TestSimulator_LatenciaRespetaElContexto(t *testing.T) {
	sim := registry.NewSimulator(nil, zerolog.Nop()).WithLatency(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sim.Submit(ctx, entity.ChannelBeta, sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSimulator_CertificadoLocal(t *testing.T) {
	ctx := context.Background()

	st, err := registry.NewSimulator(nil, zerolog.Nop()).CertificateStatus(ctx, "biz-1")
	require.NoError(t, err)
	assert.True(t, st.Configured)

	missing := &registry.LocalCertificate{Path: filepath.Join(t.TempDir(), "no-existe.p12")}
	st, err = registry.NewSimulator(missing, zerolog.Nop()).CertificateStatus(ctx, "biz-1")
	require.NoError(t, err)
	assert.False(t, st.Configured)

	bad := filepath.Join(t.TempDir(), "roto.p12")
	require.NoError(t, os.WriteFile(bad, []byte("basura"), 0o600))
	_, err = registry.NewSimulator(&registry.LocalCertificate{Path: bad}, zerolog.Nop()).CertificateStatus(ctx, "biz-1")
	assert.Error(t, err)
}

func newClient(t *testing.T, handler http.HandlerFunc) *registry.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := registry.NewHTTPClient(config.RegistryConfig{
		BaseURL:        srv.URL,
		APIKey:         "secreto",
		Provider:       "SUNAT",
		TimeoutSeconds: 5,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestHTTPClient_SubmitAceptado(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sunat/cpe/prod", r.URL.Path)
		assert.Equal(t, "Bearer secreto", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"status":"ACEPTADO","provider":"SUNAT","ticket":"T-99","cdr":{"code":"0","description":"aceptada"}}}`))
	})

	res, err := c.Submit(context.Background(), entity.ChannelProd, sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.EmissionAccepted, res.Status)
	assert.Equal(t, "T-99", res.Ticket)
	assert.Equal(t, "aceptada", res.CDR.Description)

	assert.Equal(t, "biz-1", got["businessId"])
	inv := got["invoice"].(map[string]any)
	assert.Equal(t, "F001", inv["serie"])
	assert.Equal(t, 118.0, inv["total"])
}

func TestHTTPClient_CodigoDesdeZip(t *testing.T) {
	zipBytes, err := registry.BuildCDRZip(sampleInvoice(), registry.CDRContent{
		IssuerRUC: "20601234567", Ticket: "T-1", Code: "2800", Description: "RUC inválido", At: time.Now(),
	})
	require.NoError(t, err)
	zipB64 := base64.StdEncoding.EncodeToString(zipBytes)

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"status": "RECHAZADO", "ticket": "T-1",
				"cdr": map[string]any{"zipBase64": zipB64},
			},
		})
	})
	res, err := c.Submit(context.Background(), entity.ChannelBeta, sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.EmissionRejected, res.Status)
	assert.Equal(t, "SUNAT", res.Provider)
	assert.Equal(t, "2800", res.CDR.Code)
	assert.Equal(t, "RUC inválido", res.CDR.Description)
}

func TestHTTPClient_ErrorDelServicio(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"SUNAT no disponible"}`))
	})
	_, err := c.Submit(context.Background(), entity.ChannelBeta, sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "SUNAT no disponible")
}

func TestHTTPClient_CertificateStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sunat/certificate/status", r.URL.Path)
		assert.Equal(t, "biz-1", r.URL.Query().Get("businessId"))
		_, _ = w.Write([]byte(`{"ok":true,"configured":true,"filename":"empresa.p12","sizeBytes":2048}`))
	})
	st, err := c.CertificateStatus(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.True(t, st.Configured)
	assert.Equal(t, "empresa.p12", st.Filename)
	assert.Equal(t, int64(2048), st.SizeBytes)
}

func TestNewHTTPClient_SinURL(t *testing.T) {
	_, err := registry.NewHTTPClient(config.RegistryConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
