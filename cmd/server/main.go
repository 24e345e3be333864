package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/zerotrust-ops/config-management/internal/config"
	"github.com/zerotrust-ops/config-management/internal/handler"
	"github.com/zerotrust-ops/config-management/internal/middleware"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/internal/service/worker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.Database.AutoMigrate {
		log.Println("Running database migration...")
		if err := autoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	encryptionService, err := service.NewEncryptionService(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("Failed to initialize encryption service: %v", err)
	}

	tenantRepo := repository.NewTenantRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	restoreRepo := repository.NewRestorePointRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	auditService := service.NewAuditService(auditRepo)
	tenantService := service.NewTenantService(tenantRepo, encryptionService, auditService)
	factory := service.NewDirectoryFactory(tenantService, cfg.Remote.RequestsPerSecond, cfg.Remote.RequestBurst, cfg.Remote.ClientTimeout)

	importService := service.NewImportService(tenantService, resourceRepo, syncLogRepo, auditService, factory)
	snapshotService := service.NewSnapshotService(tenantService, restoreRepo, resourceRepo, auditService)
	diffService := service.NewDiffService(restoreRepo, resourceRepo)
	pushService := service.NewPushService(tenantService, importService, resourceRepo, auditService, factory)

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err := authService.EnsureAdminUser(cfg.Auth.AdminUser, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	locker := service.NewTenantLocker()

	syncWorker := worker.NewSyncWorker(
		importService,
		tenantService,
		locker,
		cfg.Worker.Products,
		cfg.Worker.SyncInterval,
		cfg.Worker.MaxConcurrency,
	)
	if cfg.Worker.Enabled {
		syncWorker.Start()
		defer syncWorker.Stop()
	} else {
		log.Println("Scheduled sync worker is disabled in configuration")
	}

	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	importHandler := handler.NewImportHandler(importService, syncLogRepo, resourceRepo, locker)
	snapshotHandler := handler.NewSnapshotHandler(snapshotService, diffService)
	pushHandler := handler.NewPushHandler(pushService, snapshotService, locker)
	auditHandler := handler.NewAuditHandler(auditService)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := setupRoutes(authService, authHandler, tenantHandler, importHandler, snapshotHandler, pushHandler, auditHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.Database.Path
		if path == "" {
			path = "config-management.db"
		}
		dialector = sqlite.Open(path)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			cfg.Database.Host,
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.Port,
			cfg.Database.SSLMode,
			cfg.Database.Timezone,
		)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.RemoteResource{},
		&model.SyncLog{},
		&model.RestorePoint{},
		&model.AuditEvent{},
		&model.User{},
	)
}

func setupRoutes(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	tenantHandler *handler.TenantHandler,
	importHandler *handler.ImportHandler,
	snapshotHandler *handler.SnapshotHandler,
	pushHandler *handler.PushHandler,
	auditHandler *handler.AuditHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTMiddleware(authService))
	{
		v1.POST("/auth/register", middleware.RoleMiddleware("admin"), authHandler.Register)

		v1.GET("/audit", auditHandler.ListEvents)

		tenants := v1.Group("/tenants")
		{
			tenants.POST("", middleware.RoleMiddleware("admin"), tenantHandler.CreateTenant)
			tenants.GET("", tenantHandler.ListTenants)
			tenants.GET(":id", tenantHandler.GetTenant)
			tenants.PUT(":id", middleware.RoleMiddleware("admin"), tenantHandler.UpdateTenant)
			tenants.DELETE(":id", middleware.RoleMiddleware("admin"), tenantHandler.DeleteTenant)
			tenants.DELETE(":id/disabled-types/:product", middleware.RoleMiddleware("admin", "operator"), tenantHandler.ClearDisabledTypes)

			tenants.POST(":id/import", middleware.RoleMiddleware("admin", "operator"), importHandler.TriggerImport)
			tenants.GET(":id/sync-logs", importHandler.ListSyncLogs)
			tenants.GET(":id/resources", importHandler.ListResources)
			tenants.GET(":id/resources/counts", importHandler.ResourceTypeCounts)

			snapshots := tenants.Group(":id/snapshots")
			{
				snapshots.POST("", middleware.RoleMiddleware("admin", "operator"), snapshotHandler.CreateSnapshot)
				snapshots.GET("", snapshotHandler.ListSnapshots)
				snapshots.GET(":snapshotId", snapshotHandler.GetSnapshot)
				snapshots.DELETE(":snapshotId", middleware.RoleMiddleware("admin", "operator"), snapshotHandler.DeleteSnapshot)
				snapshots.GET(":snapshotId/export", snapshotHandler.ExportSnapshot)
				snapshots.GET(":snapshotId/diff", snapshotHandler.DiffAgainstCurrent)
			}
			tenants.GET(":id/diff", snapshotHandler.DiffSnapshots)

			tenants.POST(":id/push", middleware.RoleMiddleware("admin", "operator"), pushHandler.PushSnapshot)
			tenants.POST(":id/push/baseline", middleware.RoleMiddleware("admin", "operator"), pushHandler.PushBaseline)
		}
	}

	return r
}
