package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
)

// LocalCertificate certificado .p12/.pfx en disco, usado por el simulador.
type LocalCertificate struct {
	Path     string
	Password string
}

// Status lee el archivo y verifica que se pueda abrir con la contraseña.
// Path vacío o archivo inexistente: no configurado.
func (c LocalCertificate) Status() (*billing.CertificateStatus, error) {
	if c.Path == "" {
		return &billing.CertificateStatus{Configured: false}, nil
	}
	data, err := os.ReadFile(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &billing.CertificateStatus{Configured: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer certificado: %w", err)
	}
	if _, _, err := pkcs12.Decode(data, c.Password); err != nil {
		return nil, fmt.Errorf("decodificar p12: %w", err)
	}
	sum := sha256.Sum256(data)
	return &billing.CertificateStatus{
		Configured: true,
		Filename:   filepath.Base(c.Path),
		SizeBytes:  int64(len(data)),
		SHA256:     hex.EncodeToString(sum[:]),
	}, nil
}
