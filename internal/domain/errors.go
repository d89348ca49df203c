package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrValidation           = errors.New("datos inválidos")
	ErrDuplicateDocument    = errors.New("ya existe un comprobante con esa serie y número")
	ErrDuplicateBusiness    = errors.New("ya registraste un negocio con ese RUC")
	ErrInvalidItems         = errors.New("ítems inválidos")
	ErrInvalidAmount        = errors.New("monto inválido")
	ErrAmountExceedsBalance = errors.New("el monto excede el saldo pendiente")
	ErrIssuerIncomplete     = errors.New("completa la dirección y el ubigeo del emisor")
	ErrCertificateMissing   = errors.New("no hay certificado digital configurado")
	ErrSandboxNotAccepted   = errors.New("el comprobante debe ser aceptado en BETA antes de emitir en producción")
	ErrAlreadyEmitted       = errors.New("el comprobante ya fue aceptado en producción")
	ErrEmissionInProgress   = errors.New("hay una emisión en curso para este comprobante")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConcurrentUpdate     = errors.New("el comprobante fue modificado por otra operación")
	ErrTransport            = errors.New("error de comunicación con el servicio externo")
)

// ValidationError error de validación con un mensaje corto para el usuario.
// errors.Is(err, ErrValidation) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Message string
}

// NewValidationError construye el error con el mensaje visible.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
