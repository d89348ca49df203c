package dto

// CreateBusinessRequest alta de un negocio.
type CreateBusinessRequest struct {
	RUC          string `json:"ruc" validate:"required,len=11,numeric"`
	Name         string `json:"name" validate:"required,max=200"`
	AddressLine1 string `json:"addressLine1" validate:"max=200"`
	Ubigeo       string `json:"ubigeo" validate:"omitempty,len=6,numeric"`
	Department   string `json:"department" validate:"max=80"`
	Province     string `json:"province" validate:"max=80"`
	District     string `json:"district" validate:"max=80"`
}

// UpdateIssuerRequest perfil de emisor del negocio.
type UpdateIssuerRequest struct {
	Name         string `json:"name" validate:"max=200"`
	AddressLine1 string `json:"addressLine1" validate:"max=200"`
	Ubigeo       string `json:"ubigeo" validate:"omitempty,len=6,numeric"`
	Department   string `json:"department" validate:"max=80"`
	Province     string `json:"province" validate:"max=80"`
	District     string `json:"district" validate:"max=80"`
}

// BusinessResponse negocio con su perfil de emisor.
type BusinessResponse struct {
	ID           string `json:"id"`
	RUC          string `json:"ruc"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	Ubigeo       string `json:"ubigeo"`
	Department   string `json:"department"`
	Province     string `json:"province"`
	District     string `json:"district"`
	IssuerReady  bool   `json:"issuerReady"`
}

// BusinessEnvelope respuesta {ok, business}.
type BusinessEnvelope struct {
	OK       bool              `json:"ok"`
	Business *BusinessResponse `json:"business"`
}

// BusinessListResponse respuesta {ok, businesses}.
type BusinessListResponse struct {
	OK         bool                `json:"ok"`
	Businesses []*BusinessResponse `json:"businesses"`
}
