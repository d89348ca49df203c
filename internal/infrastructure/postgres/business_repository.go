package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// Asegura que BusinessRepo implementa repository.BusinessRepository.
var _ repository.BusinessRepository = (*BusinessRepo)(nil)

// BusinessRepo implementación del puerto BusinessRepository sobre PostgreSQL.
type BusinessRepo struct {
	pool *pgxpool.Pool
}

// NewBusinessRepository construye el adaptador de persistencia para negocios.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepo {
	return &BusinessRepo{pool: pool}
}

const businessColumns = `
	id, owner_id, ruc, name, address_line1, ubigeo, department, province, district, created_at, updated_at`

func scanBusiness(row rowScanner) (*entity.Business, error) {
	var b entity.Business
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.RUC, &b.Name, &b.AddressLine1, &b.Ubigeo,
		&b.Department, &b.Province, &b.District, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create persiste un negocio. (owner_id, ruc) es único.
func (r *BusinessRepo) Create(ctx context.Context, b *entity.Business) error {
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query,
		b.ID, b.OwnerID, b.RUC, b.Name, b.AddressLine1, b.Ubigeo,
		b.Department, b.Province, b.District, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBusiness
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetForOwner filtra por dueño en la misma consulta: un negocio ajeno no se distingue de uno inexistente.
func (r *BusinessRepo) GetForOwner(ctx context.Context, ownerID, id string) (*entity.Business, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1 AND owner_id = $2`
	b, err := scanBusiness(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// ListByOwner negocios del usuario en orden de alta.
func (r *BusinessRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateIssuer actualiza razón social y dirección fiscal.
func (r *BusinessRepo) UpdateIssuer(ctx context.Context, b *entity.Business) error {
	const query = `
		UPDATE businesses
		SET name = $3, address_line1 = $4, ubigeo = $5, department = $6, province = $7, district = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query,
		b.ID, b.OwnerID, b.Name, b.AddressLine1, b.Ubigeo, b.Department, b.Province, b.District, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update business issuer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
