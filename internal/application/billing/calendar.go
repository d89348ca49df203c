package billing

import (
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// Calendar resuelve "hoy" en la zona horaria del negocio. Las fechas civiles se representan
// como medianoche UTC para compararlas sin depender de la zona.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar construye el calendario; now nil usa time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Calendar{loc: loc, now: now}
}

// Now instante actual.
func (c Calendar) Now() time.Time { return c.now() }

// Today fecha civil actual en la zona del negocio.
func (c Calendar) Today() time.Time {
	return civilDate(c.now().In(c.loc))
}

// ParseDate interpreta YYYY-MM-DD o RFC3339 (se toma la fecha en la zona del negocio).
func (c Calendar) ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civilDate(t.In(c.loc)), nil
	}
	return time.Time{}, domain.NewValidationError("fecha inválida: " + s)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
