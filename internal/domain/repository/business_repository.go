package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// BusinessRepository puerto de persistencia para negocios y su perfil de emisor.
type BusinessRepository interface {
	Create(ctx context.Context, b *entity.Business) error
	// GetForOwner devuelve (nil, nil) si el negocio no existe o no pertenece a ownerID.
	GetForOwner(ctx context.Context, ownerID, id string) (*entity.Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Business, error)
	UpdateIssuer(ctx context.Context, b *entity.Business) error
}
