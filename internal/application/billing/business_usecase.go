package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// BusinessUseCase alta de negocios y mantenimiento del perfil de emisor.
type BusinessUseCase struct {
	repo   repository.BusinessRepository
	access businessAccess
	cal    Calendar
	log    zerolog.Logger
}

func NewBusinessUseCase(repo repository.BusinessRepository, cal Calendar, log zerolog.Logger) *BusinessUseCase {
	return &BusinessUseCase{repo: repo, access: businessAccess{repo: repo}, cal: cal, log: log}
}

// Create registra un negocio del usuario.
func (uc *BusinessUseCase) Create(ctx context.Context, userID string, in dto.CreateBusinessRequest) (*dto.BusinessResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	ruc := strings.TrimSpace(in.RUC)
	name := strings.TrimSpace(in.Name)
	if ruc == "" || name == "" {
		return nil, domain.NewValidationError("RUC y razón social son obligatorios")
	}
	now := uc.cal.Now()
	b := &entity.Business{
		ID:           uuid.New().String(),
		OwnerID:      userID,
		RUC:          ruc,
		Name:         name,
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		Ubigeo:       strings.TrimSpace(in.Ubigeo),
		Department:   strings.TrimSpace(in.Department),
		Province:     strings.TrimSpace(in.Province),
		District:     strings.TrimSpace(in.District),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, b); err != nil {
		if errors.Is(err, domain.ErrDuplicateBusiness) {
			return nil, err
		}
		return nil, fmt.Errorf("crear negocio: %w", err)
	}
	uc.log.Info().Str("business_id", b.ID).Str("ruc", b.RUC).Msg("negocio registrado")
	return toBusinessResponse(b), nil
}

// List negocios del usuario.
func (uc *BusinessUseCase) List(ctx context.Context, userID string) ([]*dto.BusinessResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	list, err := uc.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listar negocios: %w", err)
	}
	out := make([]*dto.BusinessResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBusinessResponse(b))
	}
	return out, nil
}

// UpdateIssuer reemplaza el perfil de emisor. El RUC no cambia; Name vacío conserva el actual.
func (uc *BusinessUseCase) UpdateIssuer(ctx context.Context, userID, businessID string, in dto.UpdateIssuerRequest) (*dto.BusinessResponse, error) {
	b, err := uc.access.authorize(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		b.Name = name
	}
	b.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	b.Ubigeo = strings.TrimSpace(in.Ubigeo)
	b.Department = strings.TrimSpace(in.Department)
	b.Province = strings.TrimSpace(in.Province)
	b.District = strings.TrimSpace(in.District)
	b.UpdatedAt = uc.cal.Now()
	if err := uc.repo.UpdateIssuer(ctx, b); err != nil {
		return nil, fmt.Errorf("actualizar emisor: %w", err)
	}
	uc.log.Info().Str("business_id", b.ID).Bool("issuer_ready", b.IssuerReady()).Msg("perfil de emisor actualizado")
	return toBusinessResponse(b), nil
}
