package billing

import (
	"time"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

func toInvoiceResponse(inv *entity.Invoice, today time.Time) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:                     inv.ID,
		BusinessID:             inv.BusinessID,
		DocumentType:           string(inv.DocumentType),
		Serie:                  inv.Serie,
		Numero:                 inv.Numero,
		CustomerName:           inv.CustomerName,
		CustomerDocumentType:   string(inv.CustomerDocumentType),
		CustomerDocumentNumber: inv.CustomerDocumentNumber,
		IssueDate:              inv.IssueDate.Format(time.DateOnly),
		Subtotal:               dto.NewAmount(inv.Subtotal),
		IGV:                    dto.NewAmount(inv.IGV),
		Total:                  dto.NewAmount(inv.Total),
		PaidAmount:             dto.NewAmount(inv.PaidAmount),
		Balance:                dto.NewAmount(inv.Balance),
		PaymentStatus:          string(inv.EffectiveStatus(today)),
		Status:                 inv.Status,
		Source:                 inv.Source,
		Items:                  make([]dto.InvoiceItemResponse, 0, len(inv.Items)),

		CpeBetaStatus:        statusPtr(inv.Beta.Status),
		CpeBetaCode:          strPtr(inv.Beta.Code),
		CpeBetaDescription:   strPtr(inv.Beta.Description),
		CpeBetaError:         strPtr(inv.Beta.Error),
		CpeBetaLastAttemptAt: timePtr(inv.Beta.LastAttemptAt),

		CpeStatus:        statusPtr(inv.Prod.Status),
		CpeProvider:      strPtr(inv.Prod.Provider),
		CpeTicket:        strPtr(inv.Prod.Ticket),
		CpeCode:          strPtr(inv.Prod.Code),
		CpeDescription:   strPtr(inv.Prod.Description),
		CpeError:         strPtr(inv.Prod.Error),
		CpeLastAttemptAt: timePtr(inv.Prod.LastAttemptAt),
		CpeAcceptedAt:    timePtr(inv.Prod.AcceptedAt),
		CpeHasCdr:        inv.Prod.CDRKey != "",

		CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: inv.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if inv.DueDate != nil {
		s := inv.DueDate.Format(time.DateOnly)
		resp.DueDate = &s
	}
	for _, it := range inv.Items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			Description: it.Description,
			Quantity:    dto.NewAmount(it.Quantity),
			UnitPrice:   dto.NewAmount(it.UnitPrice),
			TaxRate:     dto.NewAmount(it.TaxRate),
			Subtotal:    dto.NewAmount(it.Subtotal),
			IGV:         dto.NewAmount(it.IGV),
			Total:       dto.NewAmount(it.Total),
		})
	}
	return resp
}

func toPaymentResponse(p *entity.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:          p.ID,
		Amount:      dto.NewAmount(p.Amount),
		PaymentDate: p.PaymentDate.Format(time.DateOnly),
		Note:        p.Note,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		CreatedBy:   p.CreatedBy,
	}
}

func toBusinessResponse(b *entity.Business) *dto.BusinessResponse {
	return &dto.BusinessResponse{
		ID:           b.ID,
		RUC:          b.RUC,
		Name:         b.Name,
		AddressLine1: b.AddressLine1,
		Ubigeo:       b.Ubigeo,
		Department:   b.Department,
		Province:     b.Province,
		District:     b.District,
		IssuerReady:  b.IssuerReady(),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusPtr(s entity.EmissionStatus) *string {
	return strPtr(string(s))
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
