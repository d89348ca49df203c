// Package registry implementa el acceso al servicio de comprobantes electrónicos (SUNAT):
// el cliente HTTP del servicio colaborador, el simulador de desarrollo y la lectura de CDR.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

const maxResponseBytes = 1 << 20

// HTTPClient cliente del servicio colaborador que firma y envía a SUNAT.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	provider   string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ billing.RegistryClient = (*HTTPClient)(nil)

// NewHTTPClient construye el cliente. El timeout de cada envío lo fija el orquestador;
// el del http.Client es un tope adicional.
func NewHTTPClient(cfg config.RegistryConfig, log zerolog.Logger) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("REGISTRY_BASE_URL es requerido")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("REGISTRY_BASE_URL inválido: %w", err)
	}
	return &HTTPClient{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		provider:   cfg.Provider,
		httpClient: &http.Client{Timeout: cfg.Timeout() + 5*time.Second},
		log:        log,
	}, nil
}

// ── payloads ──────────────────────────────────────────────────────────────────

type wireItem struct {
	Description string      `json:"description"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unitPrice"`
	TaxRate     json.Number `json:"taxRate"`
	Subtotal    json.Number `json:"subtotal"`
	IGV         json.Number `json:"igv"`
	Total       json.Number `json:"total"`
}

type wireInvoice struct {
	ID                     string      `json:"id"`
	DocumentType           string      `json:"documentType"`
	DocumentTypeCode       string      `json:"documentTypeCode"`
	Serie                  string      `json:"serie"`
	Numero                 string      `json:"numero"`
	CustomerName           string      `json:"customerName"`
	CustomerDocumentType   string      `json:"customerDocumentType"`
	CustomerDocumentNumber string      `json:"customerDocumentNumber"`
	IssueDate              string      `json:"issueDate"`
	DueDate                *string     `json:"dueDate,omitempty"`
	Currency               string      `json:"currency"`
	Items                  []wireItem  `json:"items"`
	Subtotal               json.Number `json:"subtotal"`
	IGV                    json.Number `json:"igv"`
	Total                  json.Number `json:"total"`
}

type submitPayload struct {
	BusinessID string             `json:"businessId"`
	Issuer     billing.IssuerData `json:"issuer"`
	Invoice    wireInvoice        `json:"invoice"`
}

type wireCDR struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	ZipBase64   string `json:"zipBase64"`
}

type submitResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result *struct {
		Status   string   `json:"status"`
		Provider string   `json:"provider"`
		Ticket   string   `json:"ticket"`
		CDR      *wireCDR `json:"cdr"`
	} `json:"result"`
}

type certificateResponse struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	Configured bool   `json:"configured"`
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"sizeBytes"`
	SHA256     string `json:"sha256"`
}

func toWireInvoice(inv *entity.Invoice) wireInvoice {
	w := wireInvoice{
		ID:                     inv.ID,
		DocumentType:           string(inv.DocumentType),
		DocumentTypeCode:       documentTypeCode(inv.DocumentType),
		Serie:                  inv.Serie,
		Numero:                 inv.Numero,
		CustomerName:           inv.CustomerName,
		CustomerDocumentType:   string(inv.CustomerDocumentType),
		CustomerDocumentNumber: inv.CustomerDocumentNumber,
		IssueDate:              inv.IssueDate.Format(time.DateOnly),
		Currency:               "PEN",
		Items:                  make([]wireItem, 0, len(inv.Items)),
		Subtotal:               amount(inv.Subtotal),
		IGV:                    amount(inv.IGV),
		Total:                  amount(inv.Total),
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format(time.DateOnly)
		w.DueDate = &d
	}
	for _, it := range inv.Items {
		w.Items = append(w.Items, wireItem{
			Description: it.Description,
			Quantity:    json.Number(it.Quantity.String()),
			UnitPrice:   json.Number(it.UnitPrice.String()),
			TaxRate:     json.Number(it.TaxRate.String()),
			Subtotal:    amount(it.Subtotal),
			IGV:         amount(it.IGV),
			Total:       amount(it.Total),
		})
	}
	return w
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// ── operaciones ───────────────────────────────────────────────────────────────

// CertificateStatus GET /sunat/certificate/status?businessId=
func (c *HTTPClient) CertificateStatus(ctx context.Context, businessID string) (*billing.CertificateStatus, error) {
	endpoint := c.baseURL + "/sunat/certificate/status?businessId=" + url.QueryEscape(businessID)
	var out certificateResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" && !out.OK {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransport, out.Error)
	}
	return &billing.CertificateStatus{
		Configured: out.Configured,
		Filename:   out.Filename,
		SizeBytes:  out.SizeBytes,
		SHA256:     out.SHA256,
	}, nil
}

// Submit POST /sunat/cpe/beta o /sunat/cpe/prod.
func (c *HTTPClient) Submit(ctx context.Context, ch entity.Channel, req billing.SubmitRequest) (*billing.SubmitResult, error) {
	if req.Invoice == nil {
		return nil, errors.New("registry: comprobante vacío")
	}
	path := "/sunat/cpe/beta"
	if ch == entity.ChannelProd {
		path = "/sunat/cpe/prod"
	}
	body, err := json.Marshal(submitPayload{
		BusinessID: req.BusinessID,
		Issuer:     req.Issuer,
		Invoice:    toWireInvoice(req.Invoice),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: serializar comprobante: %w", err)
	}

	var out submitResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+path, body, &out); err != nil {
		return nil, err
	}
	if out.Result == nil {
		msg := out.Error
		if msg == "" {
			msg = "respuesta sin resultado"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrTransport, msg)
	}

	res := &billing.SubmitResult{
		Provider: out.Result.Provider,
		Ticket:   out.Result.Ticket,
	}
	if res.Provider == "" {
		res.Provider = c.provider
	}
	switch strings.ToUpper(strings.TrimSpace(out.Result.Status)) {
	case "ACEPTADO", "ACCEPTED":
		res.Status = entity.EmissionAccepted
	case "RECHAZADO", "REJECTED":
		res.Status = entity.EmissionRejected
	default:
		return nil, fmt.Errorf("%w: estado de respuesta desconocido %q", domain.ErrTransport, out.Result.Status)
	}
	if cdr := out.Result.CDR; cdr != nil {
		res.CDR = &billing.CDR{Code: cdr.Code, Description: cdr.Description, ZipBase64: cdr.ZipBase64}
		c.fillFromZip(res.CDR)
	}
	return res, nil
}

// fillFromZip completa código y descripción leyendo el XML del zip cuando el servicio no los envía.
func (c *HTTPClient) fillFromZip(cdr *billing.CDR) {
	if (cdr.Code != "" && cdr.Description != "") || cdr.ZipBase64 == "" {
		return
	}
	zipBytes, err := decodeBase64(cdr.ZipBase64)
	if err != nil {
		c.log.Warn().Err(err).Msg("registry: CDR con base64 inválido")
		return
	}
	code, desc, err := ParseCDR(zipBytes)
	if err != nil {
		c.log.Warn().Err(err).Msg("registry: no se pudo leer el CDR")
		return
	}
	if cdr.Code == "" {
		cdr.Code = code
	}
	if cdr.Description == "" {
		cdr.Description = desc
	}
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("registry: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: timeout o cancelación: %w", domain.ErrTransport, ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w: HTTP %d: %s", domain.ErrTransport, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%w: HTTP %d", domain.ErrTransport, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: respuesta inválida: %v", domain.ErrTransport, err)
	}
	return nil
}
