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
	"github.com/jhoicas/stockledger/internal/application/analytics"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/application/usecase"
	ledger "github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/export"
	"github.com/jhoicas/stockledger/internal/infrastructure/idgen"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stockledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stockledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stockledger/internal/interfaces/http"
	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/jhoicas/stockledger/pkg/logger"
)

// storage agrupa lo que cada backend entrega a los casos de uso.
type storage struct {
	txRunner inventory.TxRunner
	repos    repository.UnitOfWork
	catalog  repository.CatalogRepository
	users    repository.UserRepository
	auditLog repository.AuditLogRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	negative, err := ledger.ParseNegativeStockPolicy(cfg.Ledger.NegativeStock)
	if err != nil {
		log.Fatal().Err(err).Msg("política de stock negativo")
	}
	overReceipt, err := purchasing.ParseOverReceiptPolicy(cfg.PO.OverReceipt)
	if err != nil {
		log.Fatal().Err(err).Msg("política de sobre-recepción")
	}
	ids, err := idgen.New(1)
	if err != nil {
		log.Fatal().Err(err).Msg("generador de secuencias")
	}

	auditSvc := audit.NewService(store.auditLog, log.Component("audit"))
	catalogUC := usecase.NewCatalogUseCase(store.catalog, store.repos, auditSvc)
	recorderUC := inventory.NewRecordTransactionUseCase(store.txRunner, ids, auditSvc, negative, log.Component("ledger"))
	adjustUC := inventory.NewAdjustStockUseCase(store.txRunner, recorderUC, auditSvc)
	transferUC := inventory.NewTransferUseCase(store.txRunner, store.repos, recorderUC, ids, auditSvc, cfg.PO.NumberRetries)
	queriesUC := inventory.NewStockQueryUseCase(store.repos, store.txRunner, export.NewXLSXExporter(), auditSvc)
	ordersUC := purchasing.NewPurchaseOrderUseCase(store.txRunner, store.repos, recorderUC, ids, auditSvc,
		purchasing.Options{NumberRetries: cfg.PO.NumberRetries, OverReceipt: overReceipt},
		log.Component("purchasing"))
	documentsUC := purchasing.NewReceiptDocumentUseCase(ordersUC, store.repos, infrapdf.NewMarotoReceiptGenerator(), auditSvc)
	authUC := auth.NewAuthUseCase(store.users, auditSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	created, err := authUC.Bootstrap(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("crear administrador inicial")
	}
	if created {
		log.Info().Str("username", cfg.Seed.AdminUsername).Msg("administrador inicial creado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.App.SwaggerEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		Catalog:   catalogUC,
		Recorder:  recorderUC,
		Adjust:    adjustUC,
		Transfer:  transferUC,
		Queries:   queriesUC,
		Orders:    ordersUC,
		Documents: documentsUC,
		Dashboard: analytics.NewDashboardUseCase(store.repos, store.catalog),
		Audit:     auditSvc,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Component("http"),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == "memory" {
		store := memory.New(cfg.Ledger.LockTimeout)
		if cfg.Seed.DemoData {
			seedDemo(store)
			log.Info().Msg("catálogo de ejemplo cargado en memoria")
		}
		return &storage{
			txRunner: store,
			repos:    store.Repositories(),
			catalog:  store.Catalog(),
			users:    store.Users(),
			auditLog: store.AuditLog(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		txRunner: postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		repos:    postgres.NewRepositories(pool),
		catalog:  postgres.NewCatalogRepository(pool),
		users:    postgres.NewUserRepository(pool),
		auditLog: postgres.NewAuditLogRepository(pool),
		close:    pool.Close,
	}, nil
}
