package entity

import (
	"strings"
	"time"
)

// Business negocio (tenant) del usuario; sus datos fiscales son los del emisor de los comprobantes.
type Business struct {
	ID           string
	OwnerID      string
	RUC          string
	Name         string
	AddressLine1 string
	Ubigeo       string // código INEI de 6 dígitos
	Department   string
	Province     string
	District     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IssuerReady indica si el perfil de emisor tiene dirección y ubigeo.
func (b *Business) IssuerReady() bool {
	return strings.TrimSpace(b.AddressLine1) != "" && strings.TrimSpace(b.Ubigeo) != ""
}
