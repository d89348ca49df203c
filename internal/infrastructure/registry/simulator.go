package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// SimulatorProvider nombre informado por el simulador.
const SimulatorProvider = "SIMULADOR"

// Códigos de respuesta usados por el simulador.
const (
	codeAccepted       = "0"
	codeInvalidRUC     = "2800"
	codeInvalidIssuer  = "2010"
	codeNegativeAmount = "2638"
)

// Simulator responde como el servicio sin salir del proceso (REGISTRY_MODE=dev).
// Acepta todo documento bien formado y devuelve una constancia CDR sintética.
type Simulator struct {
	cert    *LocalCertificate
	now     func() time.Time
	latency time.Duration
	log     zerolog.Logger
}

var _ billing.RegistryClient = (*Simulator)(nil)

// NewSimulator cert nil reporta siempre un certificado configurado.
func NewSimulator(cert *LocalCertificate, log zerolog.Logger) *Simulator {
	return &Simulator{cert: cert, now: time.Now, log: log}
}

// WithLatency agrega una espera a cada envío (útil para probar timeouts y el lock).
func (s *Simulator) WithLatency(d time.Duration) *Simulator {
	s.latency = d
	return s
}

func (s *Simulator) CertificateStatus(_ context.Context, _ string) (*billing.CertificateStatus, error) {
	if s.cert == nil {
		return &billing.CertificateStatus{Configured: true, Filename: "simulado.p12"}, nil
	}
	return s.cert.Status()
}

func (s *Simulator) Submit(ctx context.Context, ch entity.Channel, req billing.SubmitRequest) (*billing.SubmitResult, error) {
	if req.Invoice == nil {
		return nil, fmt.Errorf("simulador: comprobante vacío")
	}
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	inv := req.Invoice
	status := entity.EmissionAccepted
	code := codeAccepted
	desc := acceptedDescription(inv)
	if c, d, rejected := reject(req); rejected {
		status, code, desc = entity.EmissionRejected, c, d
	}

	now := s.now()
	ticket := fmt.Sprintf("SIM-%s-%s", ch, strings.ToUpper(uuid.NewString()[:8]))
	zipBytes, err := BuildCDRZip(inv, CDRContent{
		IssuerRUC:   req.Issuer.RUC,
		Ticket:      ticket,
		Code:        code,
		Description: desc,
		At:          now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("channel", string(ch)).
		Str("document", inv.DocumentLabel()).
		Str("status", string(status)).
		Msg("simulador: comprobante procesado")
	return &billing.SubmitResult{
		Status:   status,
		Provider: SimulatorProvider,
		Ticket:   ticket,
		CDR: &billing.CDR{
			Code:        code,
			Description: desc,
			ZipBase64:   base64.StdEncoding.EncodeToString(zipBytes),
		},
	}, nil
}

func reject(req billing.SubmitRequest) (code, desc string, rejected bool) {
	inv := req.Invoice
	switch {
	case !isRUC(req.Issuer.RUC):
		return codeInvalidIssuer, "El RUC del emisor no es válido", true
	case inv.DocumentType == entity.DocumentFactura && !isRUC(inv.CustomerDocumentNumber):
		return codeInvalidRUC, "El número de RUC del receptor no es válido", true
	case inv.Total.IsNegative():
		return codeNegativeAmount, "El importe total no puede ser negativo", true
	}
	return "", "", false
}

func acceptedDescription(inv *entity.Invoice) string {
	kind := "Factura"
	if inv.DocumentType == entity.DocumentBoleta {
		kind = "Boleta de Venta"
	}
	return fmt.Sprintf("La %s numero %s, ha sido aceptada", kind, inv.DocumentLabel())
}

func isRUC(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
