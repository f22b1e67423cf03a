package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-armory-ledger/internal/authz"
	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/ws"
	"go-armory-ledger/pkg/apperrors"
	"go-armory-ledger/pkg/config"
	"go-armory-ledger/pkg/database"
	"go-armory-ledger/pkg/jwt"
	applogger "go-armory-ledger/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (default ./armory.toml if present)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// The logger is configured from cfg, so fall back to a bare one.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := applogger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()

	// 2. Setup Database
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db, cfg.Admin, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log.Named("ws"))
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	baseRepo := repository.NewBaseRepo(db)
	equipmentTypeRepo := repository.NewEquipmentTypeRepo(db)
	balanceRepo := repository.NewBalanceRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	journals := service.JournalRepos{
		Purchases:    repository.NewPurchaseRepo(db),
		Transfers:    repository.NewTransferRepo(db),
		Assignments:  repository.NewAssignmentRepo(db),
		Expenditures: repository.NewExpenditureRepo(db),
	}

	ledger := service.NewLedger(service.LedgerDeps{
		Tx:             repository.NewTxManager(db, cfg.Ledger.MaxRetries),
		Balances:       balanceRepo,
		Bases:          baseRepo,
		EquipmentTypes: equipmentTypeRepo,
		Authorizer:     authz.NewPolicy(),
		Audit:          service.NewAuditRecorder(auditRepo, wsHub, log.Named("audit")),
		Cache:          newMetricsCache(ctx, cfg.Redis, log),
		Logger:         log.Named("ledger"),
		OpTimeout:      cfg.Ledger.OpTimeout.Duration,
	})
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL.Duration)

	svc := services{
		auth:         service.NewAuthService(userRepo, tokens, log.Named("auth")),
		users:        service.NewUserService(userRepo, roleRepo, baseRepo),
		references:   service.NewReferenceService(ledger),
		purchases:    service.NewPurchaseService(ledger, journals.Purchases),
		transfers:    service.NewTransferService(ledger, journals.Transfers),
		assignments:  service.NewAssignmentService(ledger, journals.Assignments),
		expenditures: service.NewExpenditureService(ledger, journals.Expenditures),
		metrics:      service.NewMetricsService(ledger, repository.NewMetricsRepo(db), journals),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Armory Ledger v1.0",
		ErrorHandler: errorHandler(log),
	})

	app.Use(logger.New(logger.Config{Output: zap.NewStdLog(log.Named("http")).Writer()}))
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	setupRoutes(app, routeDeps{
		services:      svc,
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		privilegeRepo: privilegeRepo,
		auditRepo:     auditRepo,
		tokens:        tokens,
		hub:           wsHub,
	})

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server exited")
}

// newMetricsCache returns nil when redis is not configured or unreachable;
// metrics are then computed on every request.
func newMetricsCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *service.MetricsCache {
	if cfg.Address == "" {
		log.Info("redis not configured, metrics cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, metrics cache disabled", zap.String("address", cfg.Address), zap.Error(err))
		client.Close()
		return nil
	}
	return service.NewMetricsCache(repository.NewRedisCacheRepo(client), cfg.TTL.Duration, log.Named("cache"))
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", apperrors.Kind(err)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
			"code":  "internal",
		})
	}
}
