// Package memory implementa los repositorios en proceso. Se usa en modo desarrollo
// (STORE_DRIVER=memory) y en las pruebas de los casos de uso.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// Store datos en memoria. txMu serializa las transacciones de facturación,
// lo que equivale al bloqueo de fila de postgres.
type Store struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	invoices   map[string]*entity.Invoice
	payments   map[string][]*entity.Payment
	businesses map[string]*entity.Business
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		invoices:   make(map[string]*entity.Invoice),
		payments:   make(map[string][]*entity.Payment),
		businesses: make(map[string]*entity.Business),
	}
}

// Invoices repositorio de comprobantes sobre el store.
func (s *Store) Invoices() *InvoiceRepository { return &InvoiceRepository{s: s} }

// Businesses repositorio de negocios sobre el store.
func (s *Store) Businesses() *BusinessRepository { return &BusinessRepository{s: s} }

// RunBilling ejecuta fn con acceso exclusivo a las facturas.
func (s *Store) RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s.Invoices())
}

// InvoiceRepository implementación en memoria de repository.InvoiceRepository.
type InvoiceRepository struct {
	s *Store
}

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.invoices {
		if sameDocument(other, inv.BusinessID, inv.DocumentType, inv.Serie, inv.Numero) {
			return domain.ErrDuplicateDocument
		}
	}
	r.s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (r *InvoiceRepository) ExistsDocument(_ context.Context, businessID string, docType entity.DocumentType, serie, numero string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, other := range r.s.invoices {
		if sameDocument(other, businessID, docType, serie, numero) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InvoiceRepository) GetByID(_ context.Context, businessID, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.BusinessID != businessID {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

// GetByIDForUpdate el bloqueo lo da RunBilling.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, businessID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, businessID, id)
}

func (r *InvoiceRepository) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Invoice, 0)
	for _, inv := range r.s.invoices {
		if inv.BusinessID != f.BusinessID {
			continue
		}
		if f.DocumentType != "" && inv.DocumentType != f.DocumentType {
			continue
		}
		if f.PaymentStatus != "" && inv.EffectiveStatus(f.Today) != f.PaymentStatus {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *InvoiceRepository) RecordPayment(_ context.Context, inv *entity.Invoice, p *entity.Payment, expectedPaid decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if !cur.PaidAmount.Equal(expectedPaid) {
		return domain.ErrConcurrentUpdate
	}
	cur.PaidAmount = inv.PaidAmount
	cur.Balance = inv.Balance
	cur.PaymentStatus = inv.PaymentStatus
	cur.UpdatedAt = inv.UpdatedAt
	cp := *p
	r.s.payments[inv.ID] = append(r.s.payments[inv.ID], &cp)
	return nil
}

func (r *InvoiceRepository) ListPayments(_ context.Context, invoiceID string) ([]*entity.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.payments[invoiceID]
	out := make([]*entity.Payment, 0, len(src))
	for _, p := range src {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *InvoiceRepository) UpdateEmission(_ context.Context, inv *entity.Invoice, ch entity.Channel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.invoices[inv.ID]
	if !ok {
		return domain.ErrNotFound
	}
	*cur.Emission(ch) = cloneState(*inv.Emission(ch))
	cur.UpdatedAt = inv.UpdatedAt
	return nil
}

func sameDocument(inv *entity.Invoice, businessID string, docType entity.DocumentType, serie, numero string) bool {
	return inv.BusinessID == businessID &&
		inv.DocumentType == docType &&
		inv.Serie == entity.NormalizeDocumentKey(serie) &&
		inv.Numero == entity.NormalizeDocumentKey(numero)
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	cp.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	if inv.DueDate != nil {
		d := *inv.DueDate
		cp.DueDate = &d
	}
	cp.Beta = cloneState(inv.Beta)
	cp.Prod = cloneState(inv.Prod)
	return &cp
}

func cloneState(s entity.EmissionState) entity.EmissionState {
	if s.LastAttemptAt != nil {
		t := *s.LastAttemptAt
		s.LastAttemptAt = &t
	}
	if s.AcceptedAt != nil {
		t := *s.AcceptedAt
		s.AcceptedAt = &t
	}
	return s
}

// BusinessRepository implementación en memoria de repository.BusinessRepository.
type BusinessRepository struct {
	s *Store
}

var _ repository.BusinessRepository = (*BusinessRepository)(nil)

func (r *BusinessRepository) Create(_ context.Context, b *entity.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.businesses {
		if other.OwnerID == b.OwnerID && other.RUC == b.RUC {
			return domain.ErrDuplicateBusiness
		}
	}
	cp := *b
	r.s.businesses[b.ID] = &cp
	return nil
}

func (r *BusinessRepository) GetForOwner(_ context.Context, ownerID, id string) (*entity.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.businesses[id]
	if !ok || b.OwnerID != ownerID {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *BusinessRepository) ListByOwner(_ context.Context, ownerID string) ([]*entity.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Business, 0)
	for _, b := range r.s.businesses {
		if b.OwnerID == ownerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BusinessRepository) UpdateIssuer(_ context.Context, b *entity.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.businesses[b.ID]
	if !ok || cur.OwnerID != b.OwnerID {
		return domain.ErrNotFound
	}
	cur.Name = b.Name
	cur.AddressLine1 = b.AddressLine1
	cur.Ubigeo = b.Ubigeo
	cur.Department = b.Department
	cur.Province = b.Province
	cur.District = b.District
	cur.UpdatedAt = b.UpdatedAt
	return nil
}
