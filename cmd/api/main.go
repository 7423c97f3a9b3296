// @title                       Gestor API
// @version                     1.0
// @description                 Pedidos, inventario y rutas de entrega.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
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

	_ "github.com/jhoicas/gestor-api/docs"
	"github.com/jhoicas/gestor-api/internal/application/catalog"
	"github.com/jhoicas/gestor-api/internal/application/inventory"
	"github.com/jhoicas/gestor-api/internal/application/order"
	"github.com/jhoicas/gestor-api/internal/application/route"
	"github.com/jhoicas/gestor-api/internal/domain/repository"
	"github.com/jhoicas/gestor-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/gestor-api/internal/infrastructure/pdf"
	"github.com/jhoicas/gestor-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/gestor-api/internal/interfaces/http"
	"github.com/jhoicas/gestor-api/internal/jobs"
	"github.com/jhoicas/gestor-api/pkg/clock"
	"github.com/jhoicas/gestor-api/pkg/config"
	"github.com/jhoicas/gestor-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	// ── Almacenamiento ──────────────────────────────────────────────────────
	ctx := context.Background()
	var (
		txRunner repository.TxRunner
		repos    repository.Repos
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		txRunner, repos = store, store.Repos()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	// ── Casos de uso ────────────────────────────────────────────────────────
	clk := clock.System{}
	ids := clock.UUIDGenerator{}

	ledger := inventory.NewLedger(txRunner, repos, clk, ids, log.Zerolog())
	orderUC := order.NewUseCase(txRunner, repos, ledger, clk, ids, log.Zerolog())
	// PDF: hoja de ruta para el mensajero
	manifestGen := infrapdf.NewMarotoManifestGenerator(cfg.App.Name)
	routeUC := route.NewUseCase(txRunner, repos, clk, ids, manifestGen, log.Zerolog())
	productUC := catalog.NewProductUseCase(repos.Products, clk, ids, log.Zerolog())
	customerUC := catalog.NewCustomerUseCase(repos.Customers, clk, ids)
	courierUC := catalog.NewCourierUseCase(repos.Couriers, clk, ids)

	// ── Jobs ────────────────────────────────────────────────────────────────
	var lowStockJob *jobs.LowStockJob
	if cfg.Jobs.LowStockCron != "" {
		lowStockJob = jobs.NewLowStockJob(ledger, cfg.Jobs.LowStockCron, log.Zerolog())
		if err := lowStockJob.Start(); err != nil {
			log.Fatal().Err(err).Msg("job de stock bajo")
		}
	}

	// ── HTTP ────────────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log.Component("http")),
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Gestor API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:  productUC,
		CustomerUC: customerUC,
		CourierUC:  courierUC,
		Ledger:     ledger,
		OrderUC:    orderUC,
		RouteUC:    routeUC,
		JWTSecret:  cfg.JWT.Secret,
		Log:        log.Component("http"),
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

	if lowStockJob != nil {
		lowStockJob.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
