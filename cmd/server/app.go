package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mtrbac/internal/database"
	"mtrbac/internal/handlers"
	"mtrbac/internal/middleware"
	"mtrbac/internal/router"
	"mtrbac/internal/services"
	"mtrbac/pkg/config"
	"mtrbac/pkg/jwt"
	"mtrbac/pkg/logger"
	"mtrbac/pkg/mailer"
	"mtrbac/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// app 进程内共享的基础设施
type app struct {
	cfg       *config.Config
	registry  *database.Registry
	sequencer *database.Sequencer
}

// bootstrap 连接主库（失败重试，耗尽后退出）、迁移并写入种子数据
func bootstrap(ctx context.Context, cfg *config.Config) *app {
	appLogger := logger.GetLogger()

	policy := database.RetryPolicy{
		Attempts:  cfg.Database.RetryAttempts,
		BaseDelay: cfg.Database.RetryBaseDelay,
	}
	mainDB, err := database.Connect(ctx, policy, func(ctx context.Context) (*gorm.DB, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		return database.OpenDSN(ctx, cfg.MainURI(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect main database: %v", err)
	}

	connector := database.NewPostgresConnector(cfg.TenantURIPrefix(), cfg.Database.TenantURIOptions,
		nil, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	connector.SetAdmin(mainDB)

	a := &app{
		cfg:       cfg,
		registry:  database.NewRegistry(mainDB, connector, cfg.Database.ConnectTimeout),
		sequencer: database.NewSequencer(mainDB),
	}

	if err := database.Migrate(mainDB); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := seedData(ctx, mainDB, a.sequencer); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}
	return a
}

func (a *app) close() {
	if err := a.registry.Close(); err != nil {
		logger.GetLogger().Errorf("Failed to close databases: %v", err)
	}
	if err := database.CloseRedisQueue(); err != nil {
		logger.GetLogger().Errorf("Failed to close Redis: %v", err)
	}
}

func runMigrate(ctx context.Context) error {
	cfg := loadConfig()
	a := bootstrap(ctx, cfg)
	defer a.close()
	logger.GetLogger().Info("Migration finished")
	return nil
}

func runSyncTenants(ctx context.Context) error {
	cfg := loadConfig()
	a := bootstrap(ctx, cfg)
	defer a.close()
	return services.NewProvisioner(a.registry, a.sequencer).ProvisionAll(ctx)
}

func runServe(parent context.Context) error {
	cfg := loadConfig()
	appLogger := logger.GetLogger()
	appLogger.Info("Starting multi-tenant RBAC server...")

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Prefix)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx, cfg)
	defer a.close()

	mainDB := a.registry.Main()
	jwtManager := jwt.NewJWTManager(cfg.JWT)
	provisioner := services.NewProvisioner(a.registry, a.sequencer)

	// 启动时补齐所有租户的表，失败不影响服务启动
	if cfg.Tenant.SyncOnStart {
		if err := provisioner.ProvisionAll(ctx); err != nil {
			appLogger.Errorf("Tenant sync finished with errors: %v", err)
		}
	}

	// 活动日志：启用 Redis 时异步写库
	queue := database.GetRedisQueue()
	activity := services.NewActivityRecorder(mainDB, a.sequencer, queue)
	if queue != nil {
		go services.NewActivityWorker(activity, queue).Run(ctx)
	}

	retention := services.NewActivityRetention(mainDB, cfg.Activity.Retention)
	if err := retention.Start(cfg.Activity.CleanupSchedule); err != nil {
		appLogger.Errorf("Failed to start activity cleanup: %v", err)
	}
	defer retention.Stop()

	authService := services.NewAuthService(mainDB, a.sequencer, jwtManager, cfg.SuperAdmin.RegistrationKey)
	tenantService := services.NewTenantService(a.registry, a.sequencer, provisioner, jwtManager,
		mailer.New(cfg.Mail), cfg.Mail.VerifyURL, cfg.Tenant.DomainSuffix)
	moduleService := services.NewModuleService(mainDB, a.sequencer)
	roleService := services.NewRoleService(a.sequencer, moduleService)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, authService, cfg.JWT.CookieSecure)

	gin.SetMode(cfg.Server.Mode)
	r := router.SetupRouter(router.Deps{
		Config:     cfg,
		Tenant:     middleware.NewTenantMiddleware(a.registry, tenantService),
		Auth:       authMiddleware,
		Permission: middleware.NewPermissionMiddleware(a.registry, services.NewEvaluator()),
		System:     handlers.NewSystemHandler(a.registry),
		Tenants:    handlers.NewTenantHandler(tenantService, activity),
		Session:    handlers.NewAuthHandler(authService, authMiddleware, activity),
		Roles:      handlers.NewRoleHandler(roleService, activity),
		Modules:    handlers.NewModuleHandler(moduleService, activity),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}
	appLogger.Info("Server exited")
	return nil
}
