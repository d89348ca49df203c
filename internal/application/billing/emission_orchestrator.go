package billing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

const defaultEmissionTimeout = 45 * time.Second

// Estados del certificado tal como los ve la UI.
const (
	CertificateConfigured = "configured"
	CertificateMissing    = "missing"
	CertificateUnknown    = "unknown"
)

// EmissionOptions parámetros del orquestador.
type EmissionOptions struct {
	Timeout     time.Duration // tope de cada envío al servicio
	Provider    string        // nombre del proveedor cuando el servicio no lo informa
	Environment string        // destino de producción mostrado en la vista previa
}

// EmissionOrchestrator coordina la validación en BETA y la emisión en PROD de un comprobante.
// Solo una emisión por factura a la vez (ambos canales comparten el lock). Una vez enviado,
// el resultado se guarda aunque el cliente HTTP haya cancelado.
type EmissionOrchestrator struct {
	invoiceRepo repository.InvoiceRepository
	access      businessAccess
	registry    RegistryClient
	locker      EmissionLocker
	storage     ArtifactStorage
	cal         Calendar
	log         zerolog.Logger
	opts        EmissionOptions
}

// NewEmissionOrchestrator construye el orquestador. storage puede ser nil (no se guardan CDR).
func NewEmissionOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	businessRepo repository.BusinessRepository,
	registry RegistryClient,
	locker EmissionLocker,
	storage ArtifactStorage,
	cal Calendar,
	log zerolog.Logger,
	opts EmissionOptions,
) *EmissionOrchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultEmissionTimeout
	}
	if opts.Environment == "" {
		opts.Environment = "PRODUCCION"
	}
	return &EmissionOrchestrator{
		invoiceRepo: invoiceRepo,
		access:      businessAccess{repo: businessRepo},
		registry:    registry,
		locker:      locker,
		storage:     storage,
		cal:         cal,
		log:         log,
		opts:        opts,
	}
}

// ValidateSandbox envía el comprobante al ambiente BETA. Se permite desde cualquier estado BETA;
// cada llamada es un intento nuevo.
func (o *EmissionOrchestrator) ValidateSandbox(ctx context.Context, userID, businessID, invoiceID string) (*dto.EmitResponse, error) {
	return o.emit(ctx, userID, businessID, invoiceID, entity.ChannelBeta, "")
}

// EmitProduction emite el comprobante con efecto legal. Exige BETA aceptado y rechaza una
// segunda emisión sobre un comprobante ya aceptado. expectedDocument, si viene, debe coincidir
// con SERIE-NUMERO del comprobante.
func (o *EmissionOrchestrator) EmitProduction(ctx context.Context, userID, businessID, invoiceID, expectedDocument string) (*dto.EmitResponse, error) {
	return o.emit(ctx, userID, businessID, invoiceID, entity.ChannelProd, expectedDocument)
}

func (o *EmissionOrchestrator) emit(ctx context.Context, userID, businessID, invoiceID string, ch entity.Channel, expectedDocument string) (*dto.EmitResponse, error) {
	biz, err := o.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if !biz.IssuerReady() {
		return nil, domain.ErrIssuerIncomplete
	}

	release, err := o.locker.TryLock(ctx, emissionLockKey(invoiceID))
	if err != nil {
		return nil, err
	}
	defer release()

	inv, err := o.invoiceRepo.GetByID(ctx, biz.ID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	if ch == entity.ChannelProd {
		if err := productionGate(inv, expectedDocument); err != nil {
			return nil, err
		}
	}

	if _, err := o.certificate(ctx, biz.ID); err != nil {
		return nil, err
	}

	// Desde aquí el intento se completa aunque el cliente se desconecte.
	detached := context.WithoutCancel(ctx)
	submitCtx, cancel := context.WithTimeout(detached, o.opts.Timeout)
	res, submitErr := o.registry.Submit(submitCtx, ch, SubmitRequest{
		BusinessID: biz.ID,
		Issuer:     issuerData(biz),
		Invoice:    inv,
	})
	cancel()

	now := o.cal.Now()
	outcome := o.outcome(res, submitErr)
	state := inv.Emission(ch)
	state.Record(outcome, now)
	if ch == entity.ChannelProd && submitErr == nil {
		if key := o.storeCDR(detached, biz.ID, inv, res.CDR); key != "" {
			state.CDRKey = key
		}
	}
	inv.UpdatedAt = now

	if err := o.invoiceRepo.UpdateEmission(detached, inv, ch); err != nil {
		return nil, fmt.Errorf("guardar estado de emisión: %w", err)
	}

	ev := o.log.Info()
	if outcome.Status != entity.EmissionAccepted {
		ev = o.log.Warn()
	}
	ev.Str("invoice_id", inv.ID).
		Str("business_id", biz.ID).
		Str("channel", string(ch)).
		Str("document", inv.DocumentLabel()).
		Str("status", outcome.Status.String()).
		Str("ticket", outcome.Ticket).
		Str("error", outcome.Error).
		Msg("emisión procesada")

	return &dto.EmitResponse{
		OK:      true,
		Result:  emitResult(ch, outcome, res),
		Invoice: toInvoiceResponse(inv, o.cal.Today()),
	}, nil
}

// productionGate se evalúa con la factura recién leída y antes de cualquier llamada externa.
func productionGate(inv *entity.Invoice, expectedDocument string) error {
	if inv.Beta.Status != entity.EmissionAccepted {
		return domain.ErrSandboxNotAccepted
	}
	if inv.Prod.Status == entity.EmissionAccepted {
		return domain.ErrAlreadyEmitted
	}
	expected := entity.NormalizeDocumentKey(expectedDocument)
	if expected != "" && expected != inv.DocumentLabel() {
		return domain.NewValidationError(fmt.Sprintf("el comprobante a emitir es %s, no %s", inv.DocumentLabel(), expected))
	}
	return nil
}

// certificate consulta el certificado. "No configurado" bloquea; una falla de la consulta
// se registra y no bloquea (estado unknown).
func (o *EmissionOrchestrator) certificate(ctx context.Context, businessID string) (*CertificateStatus, error) {
	cert, err := o.registry.CertificateStatus(ctx, businessID)
	if err != nil {
		o.log.Warn().Err(err).Str("business_id", businessID).Msg("no se pudo consultar el certificado")
		return nil, nil
	}
	if cert == nil || !cert.Configured {
		return cert, domain.ErrCertificateMissing
	}
	return cert, nil
}

func (o *EmissionOrchestrator) outcome(res *SubmitResult, err error) entity.EmissionOutcome {
	if err != nil {
		return entity.EmissionOutcome{
			Status:   entity.EmissionError,
			Provider: o.opts.Provider,
			Error:    submitErrorMessage(err),
		}
	}
	out := entity.EmissionOutcome{
		Status:   res.Status,
		Provider: res.Provider,
		Ticket:   res.Ticket,
	}
	if out.Provider == "" {
		out.Provider = o.opts.Provider
	}
	if res.CDR != nil {
		out.Code = res.CDR.Code
		out.Description = res.CDR.Description
	}
	switch out.Status {
	case entity.EmissionAccepted:
	case entity.EmissionRejected:
		out.Error = out.Description
		if out.Error == "" {
			out.Error = "Comprobante rechazado"
		}
	default:
		out.Status = entity.EmissionError
		out.Error = "Respuesta del servicio sin estado reconocible"
	}
	return out
}

func submitErrorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "El servicio de comprobantes no respondió a tiempo"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Error al enviar el comprobante"
	}
	return msg
}

// storeCDR guarda la constancia de producción y devuelve su clave; "" si no hay o falla.
func (o *EmissionOrchestrator) storeCDR(ctx context.Context, businessID string, inv *entity.Invoice, cdr *CDR) string {
	if o.storage == nil || cdr == nil || cdr.ZipBase64 == "" {
		return ""
	}
	data, err := base64.StdEncoding.DecodeString(cdr.ZipBase64)
	if err != nil {
		o.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("CDR con base64 inválido")
		return ""
	}
	key := fmt.Sprintf("cdr/%s/%s-%s.zip", businessID, inv.ID, inv.DocumentLabel())
	if err := o.storage.Put(ctx, key, data, "application/zip"); err != nil {
		o.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo guardar el CDR")
		return ""
	}
	return key
}

// Readiness informa si el negocio puede emitir y, si no, el motivo.
func (o *EmissionOrchestrator) Readiness(ctx context.Context, userID, businessID string) (*dto.EmissionReadinessResponse, error) {
	biz, err := o.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	resp := &dto.EmissionReadinessResponse{
		OK:          true,
		BusinessID:  biz.ID,
		IssuerReady: biz.IssuerReady(),
		Certificate: CertificateUnknown,
	}
	cert, certErr := o.certificate(ctx, biz.ID)
	switch {
	case errors.Is(certErr, domain.ErrCertificateMissing):
		resp.Certificate = CertificateMissing
	case cert != nil:
		resp.Certificate = CertificateConfigured
		resp.CertificateFilename = strPtr(cert.Filename)
	}

	switch {
	case !resp.IssuerReady:
		resp.BlockReason = domain.ErrIssuerIncomplete.Error()
	case resp.Certificate == CertificateMissing:
		resp.BlockReason = domain.ErrCertificateMissing.Error()
	}
	resp.Ready = resp.BlockReason == ""
	return resp, nil
}

// Preview datos para el diálogo de confirmación previo a producción.
func (o *EmissionOrchestrator) Preview(ctx context.Context, userID, businessID, invoiceID string) (*dto.EmissionPreviewResponse, error) {
	biz, err := o.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	inv, err := o.invoiceRepo.GetByID(ctx, biz.ID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	resp := &dto.EmissionPreviewResponse{
		OK:           true,
		InvoiceID:    inv.ID,
		DocumentType: string(inv.DocumentType),
		Serie:        inv.Serie,
		Numero:       inv.Numero,
		Document:     inv.DocumentLabel(),
		CustomerName: inv.CustomerName,
		Total:        dto.NewAmount(inv.Total),
		Environment:  o.opts.Environment,
		BetaStatus:   inv.Beta.Status.String(),
		ProdStatus:   inv.Prod.Status.String(),
	}
	switch {
	case !biz.IssuerReady():
		resp.BlockReason = domain.ErrIssuerIncomplete.Error()
	default:
		if err := productionGate(inv, ""); err != nil {
			resp.BlockReason = err.Error()
			break
		}
		// estado desconocido del certificado no bloquea, igual que al emitir
		if _, err := o.certificate(ctx, biz.ID); err != nil {
			resp.BlockReason = err.Error()
		}
	}
	resp.CanEmitProduction = resp.BlockReason == ""
	return resp, nil
}

// DownloadCDR devuelve el zip de la constancia de producción guardada.
func (o *EmissionOrchestrator) DownloadCDR(ctx context.Context, userID, businessID, invoiceID string) ([]byte, string, error) {
	biz, err := o.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, "", err
	}
	inv, err := o.invoiceRepo.GetByID(ctx, biz.ID, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil || inv.Prod.CDRKey == "" || o.storage == nil {
		return nil, "", domain.ErrNotFound
	}
	data, err := o.storage.Get(ctx, inv.Prod.CDRKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("leer CDR: %w", err)
	}
	return data, "R-" + biz.RUC + "-" + inv.DocumentLabel() + ".zip", nil
}

func emissionLockKey(invoiceID string) string {
	return "emission:" + invoiceID
}

func issuerData(b *entity.Business) IssuerData {
	return IssuerData{
		RUC:          b.RUC,
		Name:         b.Name,
		AddressLine1: strings.TrimSpace(b.AddressLine1),
		Ubigeo:       strings.TrimSpace(b.Ubigeo),
		Department:   b.Department,
		Province:     b.Province,
		District:     b.District,
	}
}

func emitResult(ch entity.Channel, o entity.EmissionOutcome, res *SubmitResult) *dto.EmitResultResponse {
	out := &dto.EmitResultResponse{
		Channel:  string(ch),
		Status:   o.Status.String(),
		Provider: o.Provider,
		Ticket:   strPtr(o.Ticket),
		Error:    o.Error,
	}
	if res != nil && res.CDR != nil {
		out.CDR = &dto.CDRResponse{
			Code:        strPtr(res.CDR.Code),
			Description: strPtr(res.CDR.Description),
			ZipBase64:   strPtr(res.CDR.ZipBase64),
		}
	}
	return out
}
