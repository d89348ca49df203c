// devtoken emite un Bearer token firmado con JWT_SECRET para probar la API en local.
//
// Uso: go run ./cmd/devtoken -user <id> [-email correo] [-minutes 60]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "id del usuario (por defecto uno nuevo)")
	email := flag.String("email", "", "correo del usuario")
	minutes := flag.Int("minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	if *userID == "" {
		*userID = uuid.NewString()
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, *email, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "usuario %s, vence en %d min\n", *userID, exp)
	fmt.Println(tok)
}
