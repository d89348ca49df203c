package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Registry RegistryConfig
	Redis    RedisConfig
	Storage  StorageConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Timezone string // zona horaria del negocio para fechas de emisión y vencimiento
}

// Location resuelve la zona horaria configurada; America/Lima si no es válida.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		loc, err = time.LoadLocation("America/Lima")
		if err != nil {
			return time.FixedZone("PET", -5*60*60)
		}
	}
	return loc
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
	ForceIPv4   bool // solo cambia el dial; el hostname se conserva para TLS

	StatementTimeoutSeconds int
	ApplicationName         string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegistryConfig servicio externo de emisión de comprobantes (CPE).
type RegistryConfig struct {
	Mode           string // dev = simulador local; remote = servicio HTTP
	BaseURL        string
	APIKey         string
	Provider       string
	TimeoutSeconds int
	CertPath       string // .p12 usado por el simulador para reportar el estado del certificado
	CertPassword   string
	SimLatencyMs   int // demora artificial del simulador
}

// Timeout devuelve el timeout de las llamadas al servicio de emisión.
func (c RegistryConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig conexión para el lock distribuido de emisión. Addr vacío = lock en memoria.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	LockTTLSeconds int
}

// LockTTL duración máxima de un lock de emisión.
func (c RedisConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// StorageConfig almacenamiento de constancias CDR.
type StorageConfig struct {
	Driver       string // none | local | s3
	LocalDir     string
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, REGISTRY_MODE, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "facturacion-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Timezone: getString(v, "APP_TIMEZONE", "America/Lima"),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "facturacion"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", true),
			ForceIPv4:   getBool(v, "DB_FORCE_IPV4", false),

			StatementTimeoutSeconds: getInt(v, "DB_STATEMENT_TIMEOUT_SECONDS", 15),
			ApplicationName:         getString(v, "APP_NAME", "facturacion-api"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "facturacion-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Registry: RegistryConfig{
			Mode:           strings.ToLower(getString(v, "REGISTRY_MODE", "dev")),
			BaseURL:        strings.TrimRight(getString(v, "REGISTRY_BASE_URL", ""), "/"),
			APIKey:         getString(v, "REGISTRY_API_KEY", ""),
			Provider:       getString(v, "REGISTRY_PROVIDER", "sunat"),
			TimeoutSeconds: getInt(v, "REGISTRY_TIMEOUT_SECONDS", 45),
			CertPath:       getString(v, "REGISTRY_CERT_PATH", ""),
			CertPassword:   getString(v, "REGISTRY_CERT_PASSWORD", ""),
			SimLatencyMs:   getInt(v, "REGISTRY_SIM_LATENCY_MS", 0),
		},
		Redis: RedisConfig{
			Addr:           getString(v, "REDIS_ADDR", ""),
			Password:       getString(v, "REDIS_PASSWORD", ""),
			DB:             getInt(v, "REDIS_DB", 0),
			LockTTLSeconds: getInt(v, "EMISSION_LOCK_TTL_SECONDS", 120),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(getString(v, "STORAGE_DRIVER", "none")),
			LocalDir:     getString(v, "STORAGE_LOCAL_DIR", "./data/cdr"),
			Endpoint:     getString(v, "S3_ENDPOINT", ""),
			Region:       getString(v, "S3_REGION", "us-east-1"),
			Bucket:       getString(v, "S3_BUCKET", ""),
			AccessKey:    getString(v, "S3_ACCESS_KEY", ""),
			SecretKey:    getString(v, "S3_SECRET_KEY", ""),
			UsePathStyle: getBool(v, "S3_USE_PATH_STYLE", true),
		},
	}
}

// Validate rechaza combinaciones que impedirían arrancar el servicio.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio"))
	}
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER desconocido: %q (usar postgres|memory)", c.DB.Driver))
	}
	switch c.Registry.Mode {
	case "dev":
	case "remote":
		if c.Registry.BaseURL == "" {
			errs = append(errs, errors.New("REGISTRY_BASE_URL es obligatorio con REGISTRY_MODE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("REGISTRY_MODE desconocido: %q (usar dev|remote)", c.Registry.Mode))
	}
	switch c.Storage.Driver {
	case "none", "local":
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET es obligatorio con STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER desconocido: %q (usar none|local|s3)", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}
