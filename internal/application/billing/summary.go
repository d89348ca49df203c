package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/money"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// Summary ventas del mes en curso y cartera pendiente, sobre los últimos maxListLimit comprobantes.
func (uc *InvoiceUseCase) Summary(ctx context.Context, userID, businessID string) (*dto.BillingSummaryResponse, error) {
	biz, err := uc.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	today := uc.cal.Today()
	invoices, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{
		BusinessID: biz.ID,
		Today:      today,
		Limit:      maxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}

	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	sales, pending, overdue := decimal.Zero, decimal.Zero, decimal.Zero
	customers := map[string]struct{}{}
	products := map[string]struct{}{}
	resp := &dto.BillingSummaryResponse{
		OK:         true,
		BusinessID: biz.ID,
		From:       from.Format(time.DateOnly),
		To:         today.Format(time.DateOnly),
	}
	for _, inv := range invoices {
		if !inv.IssueDate.Before(from) && !inv.IssueDate.After(today) {
			sales = sales.Add(inv.Total)
			customers[customerKey(inv)] = struct{}{}
			for _, it := range inv.Items {
				if d := strings.TrimSpace(it.Description); d != "" {
					products[d] = struct{}{}
				}
			}
		}
		status := inv.EffectiveStatus(today)
		if status == entity.PaymentPaid || !inv.Balance.IsPositive() {
			continue
		}
		resp.PendingCount++
		pending = pending.Add(inv.Balance)
		if status == entity.PaymentOverdue {
			resp.OverdueCount++
			overdue = overdue.Add(inv.Balance)
		}
	}
	resp.Sales = dto.NewAmount(money.Round2(sales))
	resp.Customers = len(customers)
	resp.Products = len(products)
	resp.PendingAmount = dto.NewAmount(money.Round2(pending))
	resp.OverdueAmount = dto.NewAmount(money.Round2(overdue))
	return resp, nil
}

func customerKey(inv *entity.Invoice) string {
	id := inv.CustomerDocumentNumber
	if id == "" {
		id = inv.CustomerName
	}
	return string(inv.CustomerDocumentType) + ":" + id
}
