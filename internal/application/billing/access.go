package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// businessAccess verifica que el usuario sea dueño del negocio sobre el que opera.
type businessAccess struct {
	repo repository.BusinessRepository
}

func (a businessAccess) authorize(ctx context.Context, userID, businessID string) (*entity.Business, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, domain.NewValidationError("businessId requerido")
	}
	biz, err := a.repo.GetForOwner(ctx, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("consultar negocio: %w", err)
	}
	if biz == nil {
		return nil, domain.ErrForbidden
	}
	return biz, nil
}
