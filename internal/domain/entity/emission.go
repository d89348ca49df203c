package entity

import "time"

// Channel canal de envío al servicio de comprobantes electrónicos.
type Channel string

const (
	ChannelBeta Channel = "BETA" // validación en ambiente de pruebas
	ChannelProd Channel = "PROD" // emisión con efecto legal
)

// EmissionStatus estado de un canal. El valor vacío significa NO_ENVIADO y no se persiste.
type EmissionStatus string

const (
	EmissionNotSent  EmissionStatus = ""
	EmissionAccepted EmissionStatus = "ACEPTADO"
	EmissionRejected EmissionStatus = "RECHAZADO"
	EmissionError    EmissionStatus = "ERROR"
)

// String devuelve NO_ENVIADO para el valor vacío.
func (s EmissionStatus) String() string {
	if s == EmissionNotSent {
		return "NO_ENVIADO"
	}
	return string(s)
}

// EmissionState campos de emisión de un canal.
type EmissionState struct {
	Status        EmissionStatus
	Provider      string
	Ticket        string
	Code          string
	Description   string
	Error         string
	LastAttemptAt *time.Time
	AcceptedAt    *time.Time
	CDRKey        string // clave de la constancia CDR en el almacenamiento
}

// EmissionOutcome resultado normalizado de un intento.
type EmissionOutcome struct {
	Status      EmissionStatus
	Provider    string
	Ticket      string
	Code        string
	Description string
	Error       string
}

// Record sobrescribe el estado con un nuevo intento. AcceptedAt se conserva una vez fijado.
func (s *EmissionState) Record(o EmissionOutcome, at time.Time) {
	s.Status = o.Status
	s.Provider = o.Provider
	s.Ticket = o.Ticket
	s.Code = o.Code
	s.Description = o.Description
	s.Error = o.Error
	attempt := at
	s.LastAttemptAt = &attempt
	if o.Status == EmissionAccepted && s.AcceptedAt == nil {
		accepted := at
		s.AcceptedAt = &accepted
	}
}
