// certcheck verifica el certificado .p12 configurado en REGISTRY_CERT_PATH / REGISTRY_CERT_PASSWORD.
//
// Uso: go run ./cmd/certcheck [ruta.p12]
package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/registry"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	cert := registry.LocalCertificate{Path: cfg.Registry.CertPath, Password: cfg.Registry.CertPassword}
	if len(os.Args) > 1 {
		cert.Path = os.Args[1]
	}

	fmt.Println("DIAGNÓSTICO DE CERTIFICADO")
	fmt.Println("--------------------------")
	fmt.Printf("Archivo: %s\n", cert.Path)

	status, err := cert.Status()
	if err != nil {
		fmt.Println("\nERROR: el archivo existe pero la contraseña falló o el archivo está corrupto.")
		fmt.Printf("Detalle: %v\n", err)
		os.Exit(1)
	}
	if !status.Configured {
		fmt.Println("\nNo hay certificado: revisa REGISTRY_CERT_PATH.")
		os.Exit(2)
	}
	fmt.Printf("\nOK  %s (%d bytes)\nSHA-256 %s\n", status.Filename, status.SizeBytes, status.SHA256)
}
