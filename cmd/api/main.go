package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/lock"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/registry"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Str("registry", cfg.Registry.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: postgres o memoria (desarrollo)
	var (
		invoiceRepo  repository.InvoiceRepository
		businessRepo repository.BusinessRepository
		txRunner     billing.BillingTxRunner
	)
	switch cfg.DB.Driver {
	case "memory":
		store := memory.NewStore()
		invoiceRepo, businessRepo, txRunner = store.Invoices(), store.Businesses(), store
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			if err := postgres.RunMigrations(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		invoiceRepo = postgres.NewInvoiceRepository(pool)
		businessRepo = postgres.NewBusinessRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	// Servicio de emisión: simulador local o servicio HTTP
	var registryClient billing.RegistryClient
	switch cfg.Registry.Mode {
	case "remote":
		client, err := registry.NewHTTPClient(cfg.Registry, log.Component("registry"))
		if err != nil {
			log.Fatal().Err(err).Msg("cliente del servicio de emisión")
		}
		registryClient = client
	default:
		var cert *registry.LocalCertificate
		if cfg.Registry.CertPath != "" {
			cert = &registry.LocalCertificate{Path: cfg.Registry.CertPath, Password: cfg.Registry.CertPassword}
		}
		registryClient = registry.NewSimulator(cert, log.Component("registry")).
			WithLatency(time.Duration(cfg.Registry.SimLatencyMs) * time.Millisecond)
	}

	// Lock de emisión: Redis si hay varias instancias, si no en memoria
	var locker billing.EmissionLocker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		redisLocker, err := lock.NewRedisLocker(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LockTTL(), log.Component("lock"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	// Constancias CDR
	var cdrStorage billing.ArtifactStorage
	switch cfg.Storage.Driver {
	case "local":
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento local")
		}
		cdrStorage = local
	case "s3":
		s3, err := storage.NewS3Storage(ctx, cfg.Storage, log.Component("storage"))
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento S3")
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("bucket S3")
		}
		cdrStorage = s3
	}

	cal := billing.NewCalendar(cfg.App.Location(), nil)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, businessRepo, cal, log.Component("invoices"))
	paymentUC := billing.NewPaymentUseCase(txRunner, invoiceRepo, businessRepo, cal, log.Component("payments"))
	businessUC := billing.NewBusinessUseCase(businessRepo, cal, log.Component("businesses"))
	emissionUC := billing.NewEmissionOrchestrator(
		invoiceRepo, businessRepo, registryClient, locker, cdrStorage, cal, log.Component("emission"),
		billing.EmissionOptions{
			Timeout:  cfg.Registry.Timeout(),
			Provider: cfg.Registry.Provider,
		},
	)

	// La escritura debe esperar a una emisión completa.
	writeTimeout := cfg.Registry.Timeout() + 15*time.Second
	httpLog := log.Component("http")
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(httpLog),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(httpLog))
	app.Use(httpRouter.RequestTimeout(writeTimeout))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC:  invoiceUC,
		PaymentUC:  paymentUC,
		EmissionUC: emissionUC,
		BusinessUC: businessUC,
		JWTSecret:  cfg.JWT.Secret,
		Log:        httpLog,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
