package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, owner_id, business_id, document_type, serie, numero,
	customer_name, customer_document_type, customer_document_number,
	issue_date, due_date, subtotal, igv, total, paid_amount, balance,
	payment_status, status, source,
	COALESCE(cpe_beta_status, ''), COALESCE(cpe_beta_code, ''), COALESCE(cpe_beta_description, ''),
	COALESCE(cpe_beta_error, ''), cpe_beta_last_attempt_at,
	COALESCE(cpe_status, ''), COALESCE(cpe_provider, ''), COALESCE(cpe_ticket, ''),
	COALESCE(cpe_code, ''), COALESCE(cpe_description, ''), COALESCE(cpe_error, ''),
	cpe_last_attempt_at, cpe_accepted_at, COALESCE(cpe_cdr_key, ''),
	created_at, updated_at`

// overdueCondition replica Invoice.IsOverdue; el parámetro es la fecha civil de hoy.
func overdueCondition(param int) string {
	return fmt.Sprintf("(due_date IS NOT NULL AND due_date < $%d AND payment_status <> 'PAGADO' AND balance > 0)", param)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv                          entity.Invoice
		docType, custType, payStatus string
		betaStatus, prodStatus       string
	)
	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.BusinessID, &docType, &inv.Serie, &inv.Numero,
		&inv.CustomerName, &custType, &inv.CustomerDocumentNumber,
		&inv.IssueDate, &inv.DueDate, &inv.Subtotal, &inv.IGV, &inv.Total, &inv.PaidAmount, &inv.Balance,
		&payStatus, &inv.Status, &inv.Source,
		&betaStatus, &inv.Beta.Code, &inv.Beta.Description, &inv.Beta.Error, &inv.Beta.LastAttemptAt,
		&prodStatus, &inv.Prod.Provider, &inv.Prod.Ticket, &inv.Prod.Code, &inv.Prod.Description, &inv.Prod.Error,
		&inv.Prod.LastAttemptAt, &inv.Prod.AcceptedAt, &inv.Prod.CDRKey,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.IssueDate = civilDate(inv.IssueDate)
	if inv.DueDate != nil {
		due := civilDate(*inv.DueDate)
		inv.DueDate = &due
	}
	inv.DocumentType = entity.DocumentType(docType)
	inv.CustomerDocumentType = entity.CustomerDocumentType(custType)
	inv.PaymentStatus = entity.PaymentStatus(payStatus)
	inv.Beta.Status = entity.EmissionStatus(betaStatus)
	inv.Prod.Status = entity.EmissionStatus(prodStatus)
	return &inv, nil
}

// Create persiste la cabecera y los ítems. La unicidad del documento la garantiza el índice
// único (business_id, document_type, serie, numero).
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, owner_id, business_id, document_type, serie, numero,
			customer_name, customer_document_type, customer_document_number,
			issue_date, due_date, subtotal, igv, total, paid_amount, balance,
			payment_status, status, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.OwnerID, inv.BusinessID, string(inv.DocumentType), inv.Serie, inv.Numero,
		inv.CustomerName, string(inv.CustomerDocumentType), inv.CustomerDocumentNumber,
		inv.IssueDate, inv.DueDate, inv.Subtotal, inv.IGV, inv.Total, inv.PaidAmount, inv.Balance,
		string(inv.PaymentStatus), inv.Status, inv.Source, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDocument
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	batch := &pgx.Batch{}
	for i, it := range inv.Items {
		batch.Queue(`
			INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, tax_rate, subtotal, igv, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			inv.ID, i+1, it.Description, it.Quantity, it.UnitPrice, it.TaxRate, it.Subtotal, it.IGV, it.Total,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	for range inv.Items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}

// ExistsDocument compara serie y número ya normalizados a mayúsculas.
func (r *InvoiceRepo) ExistsDocument(ctx context.Context, businessID string, docType entity.DocumentType, serie, numero string) (bool, error) {
	if !validID(businessID) {
		return false, nil
	}
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE business_id = $1 AND document_type = $2 AND serie = $3 AND numero = $4)`
	var exists bool
	err := r.q.QueryRow(ctx, query, businessID, string(docType),
		entity.NormalizeDocumentKey(serie), entity.NormalizeDocumentKey(numero),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice document: %w", err)
	}
	return exists, nil
}

// GetByID obtiene una factura completa del negocio.
func (r *InvoiceRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Invoice, error) {
	return r.get(ctx, businessID, id, "")
}

// GetByIDForUpdate bloquea la fila (SELECT ... FOR UPDATE). Solo tiene efecto dentro de una tx.
func (r *InvoiceRepo) GetByIDForUpdate(ctx context.Context, businessID, id string) (*entity.Invoice, error) {
	return r.get(ctx, businessID, id, " FOR UPDATE")
}

func (r *InvoiceRepo) get(ctx context.Context, businessID, id, suffix string) (*entity.Invoice, error) {
	if !validID(businessID) || !validID(id) {
		return nil, nil
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND business_id = $2` + suffix
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := r.loadItems(ctx, []*entity.Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// List filtra por tipo y por estado efectivo; VENCIDO se calcula con f.Today.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	if !validID(f.BusinessID) {
		return []*entity.Invoice{}, nil
	}
	args := []any{f.BusinessID}
	conds := []string{"business_id = $1"}
	if f.DocumentType != "" {
		args = append(args, string(f.DocumentType))
		conds = append(conds, fmt.Sprintf("document_type = $%d", len(args)))
	}
	switch f.PaymentStatus {
	case "":
	case entity.PaymentOverdue:
		args = append(args, f.Today)
		conds = append(conds, overdueCondition(len(args)))
	default:
		args = append(args, f.Today, string(f.PaymentStatus))
		conds = append(conds, fmt.Sprintf("payment_status = $%d AND NOT %s", len(args), overdueCondition(len(args)-1)))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY issue_date DESC, created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *InvoiceRepo) loadItems(ctx context.Context, invoices []*entity.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Invoice, len(invoices))
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
	}
	const query = `
		SELECT invoice_id, description, quantity, unit_price, tax_rate, subtotal, igv, total
		FROM invoice_items WHERE invoice_id = ANY($1::uuid[]) ORDER BY invoice_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var invoiceID string
		var it entity.InvoiceItem
		if err := rows.Scan(&invoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TaxRate, &it.Subtotal, &it.IGV, &it.Total); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		if inv, ok := byID[invoiceID]; ok {
			inv.Items = append(inv.Items, it)
		}
	}
	return rows.Err()
}

// RecordPayment actualiza los totales con compare-and-set sobre paid_amount y agrega el abono.
func (r *InvoiceRepo) RecordPayment(ctx context.Context, inv *entity.Invoice, p *entity.Payment, expectedPaid decimal.Decimal) error {
	const update = `
		UPDATE invoices
		SET paid_amount = $2, balance = $3, payment_status = $4, updated_at = $5
		WHERE id = $1 AND paid_amount = $6`
	tag, err := r.q.Exec(ctx, update,
		inv.ID, inv.PaidAmount, inv.Balance, string(inv.PaymentStatus), inv.UpdatedAt, expectedPaid,
	)
	if err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}

	const insert = `
		INSERT INTO invoice_payments (id, invoice_id, amount, payment_date, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.q.Exec(ctx, insert,
		p.ID, p.InvoiceID, p.Amount, p.PaymentDate, nullIfEmpty(p.Note), p.CreatedAt, nullIfEmpty(p.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPayments abonos en orden de registro.
func (r *InvoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	if !validID(invoiceID) {
		return []*entity.Payment{}, nil
	}
	const query = `
		SELECT id, invoice_id, amount, payment_date, COALESCE(note, ''), created_at, COALESCE(created_by, '')
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Payment, 0)
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Note, &p.CreatedAt, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.PaymentDate = civilDate(p.PaymentDate)
		list = append(list, &p)
	}
	return list, rows.Err()
}

// UpdateEmission escribe solo las columnas del canal; nunca toca los campos de cobranza.
func (r *InvoiceRepo) UpdateEmission(ctx context.Context, inv *entity.Invoice, ch entity.Channel) error {
	var (
		tagErr error
		n      int64
	)
	if ch == entity.ChannelProd {
		s := inv.Prod
		const query = `
			UPDATE invoices
			SET cpe_status = $2, cpe_provider = $3, cpe_ticket = $4, cpe_code = $5, cpe_description = $6,
			    cpe_error = $7, cpe_last_attempt_at = $8, cpe_accepted_at = $9,
			    cpe_cdr_key = COALESCE($10, cpe_cdr_key), updated_at = $11
			WHERE id = $1`
		tag, err := r.q.Exec(ctx, query, inv.ID,
			nullIfEmpty(string(s.Status)), nullIfEmpty(s.Provider), nullIfEmpty(s.Ticket), nullIfEmpty(s.Code),
			nullIfEmpty(s.Description), nullIfEmpty(s.Error), s.LastAttemptAt, s.AcceptedAt,
			nullIfEmpty(s.CDRKey), inv.UpdatedAt,
		)
		tagErr, n = err, tag.RowsAffected()
	} else {
		s := inv.Beta
		const query = `
			UPDATE invoices
			SET cpe_beta_status = $2, cpe_beta_code = $3, cpe_beta_description = $4, cpe_beta_error = $5,
			    cpe_beta_last_attempt_at = $6, updated_at = $7
			WHERE id = $1`
		tag, err := r.q.Exec(ctx, query, inv.ID,
			nullIfEmpty(string(s.Status)), nullIfEmpty(s.Code), nullIfEmpty(s.Description), nullIfEmpty(s.Error),
			s.LastAttemptAt, inv.UpdatedAt,
		)
		tagErr, n = err, tag.RowsAffected()
	}
	if tagErr != nil {
		return fmt.Errorf("update invoice emission: %w", tagErr)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// civilDate normaliza fechas leídas de columnas DATE.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
