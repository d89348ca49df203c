package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// requestValidator valida la forma de las peticiones (longitudes, requeridos, enums de filtros).
// Las reglas de negocio las valida el caso de uso.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &requestValidator{v: v}
}

// check devuelve true si la entrada es válida; si no, escribe el 400 con el detalle por campo.
func (rv *requestValidator) check(c *fiber.Ctx, in any) (bool, error) {
	err := rv.v.Struct(in)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	}
	resp := dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
	for _, fe := range verrs {
		resp.Details = append(resp.Details, dto.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	if len(resp.Details) > 0 {
		resp.Message = resp.Details[0].Field + ": " + resp.Details[0].Message
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(resp)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "máximo " + fe.Param() + " elementos"
		}
		return "máximo " + fe.Param() + " caracteres"
	case "len":
		return "debe tener " + fe.Param() + " caracteres"
	case "numeric":
		return "solo dígitos"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "gte":
		return "debe ser mayor o igual a " + fe.Param()
	default:
		return "valor inválido"
	}
}

// errInvalidBody respuesta estándar cuando el JSON no se puede leer.
func errInvalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
