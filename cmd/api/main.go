package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/cache"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/agro-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/agro-inventario/internal/interfaces/http"
	"github.com/jhoicas/agro-inventario/pkg/config"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// storage repositorios y transacciones del backend elegido.
type storage struct {
	tx        inventory.TxRunner
	products  repository.ProductRepository
	branches  repository.BranchRepository
	movements repository.StockMovementRepository
	counts    repository.InventoryCountRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Inventory.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Caché de posiciones: opcional, solo si REDIS_ADDR está definido.
	var positions inventory.PositionCache
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, se opera sin caché")
		} else {
			positions = cache.NewPositionCache(client, cfg.Redis.PositionTTL, log)
		}
	}

	valuationUC := inventory.NewValuationUseCase(store.movements, store.products, store.branches, positions, cfg.Inventory.ValuationWorkers, log)
	movementUC := inventory.NewMovementUseCase(store.tx, store.movements, store.products, store.branches, valuationUC, positions, notify.NewRemissionLog(log), log)
	importUC := inventory.NewImportUseCase(store.tx, store.products, store.branches, positions, log)
	countUC := inventory.NewCountUseCase(store.tx, store.counts, store.products, store.branches, infrapdf.NewCountReportGenerator(), positions, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Valuation: valuationUC,
		Movements: movementUC,
		Imports:   importUC,
		Counts:    countUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
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

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Inventory.Storage == config.StorageMemory {
		s := memory.NewStore()
		seedDemoCatalog(s)
		return &storage{
			tx:        memory.NewTxRunner(s),
			products:  s.Products(),
			branches:  s.Branches(),
			movements: s.Movements(),
			counts:    s.Counts(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		branches:  postgres.NewBranchRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		counts:    postgres.NewInventoryCountRepository(pool),
		close:     pool.Close,
	}, nil
}

// seedDemoCatalog carga un catálogo mínimo para el modo en memoria (sin CRUD de catálogo).
func seedDemoCatalog(s *memory.Store) {
	s.PutBranch(entity.Branch{ID: "sucursal-principal", Name: "Principal"})
	s.PutProduct(entity.Product{ID: "urea-46", SKU: "URE-46", Name: "Urea 46%", UnitMeasure: "kg"})
	s.PutProduct(entity.Product{ID: "cal-agricola", SKU: "CAL-AG", Name: "Cal agrícola", UnitMeasure: "kg"})
	s.PutProduct(entity.Product{ID: "dap-18-46", SKU: "DAP-18", Name: "DAP 18-46-0", UnitMeasure: "kg"})
}
