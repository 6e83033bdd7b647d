package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/fleetdesk/internal/api/handlers"
	"github.com/langchou/fleetdesk/internal/config"
	"github.com/langchou/fleetdesk/internal/repository"
	"github.com/langchou/fleetdesk/internal/storage"
	"github.com/langchou/fleetdesk/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting FleetDesk", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)

	// 创建附件存储
	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to init storage", zap.Error(err))
	}
	logger.Info("Storage initialized", zap.String("driver", cfg.StorageDriver))

	// 创建 WebSocket Hub，新连接收到待审批交接单快照
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		pending, err := exchangeRepo.AllPending(context.Background())
		if err != nil {
			logger.Error("Failed to load pending exchanges", zap.Error(err))
			return nil
		}
		return pending
	})
	go wsHub.Run()

	// 定期清理过期令牌
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := tokenRepo.DeleteExpired(ctx); err != nil {
					logger.Error("Failed to delete expired tokens", zap.Error(err))
				} else if n > 0 {
					logger.Info("Deleted expired tokens", zap.Int64("count", n))
				}
			}
		}
	}()

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		userRepo,
		tokenRepo,
		vehicleRepo,
		documentRepo,
		maintenanceRepo,
		exchangeRepo,
		store,
		wsHub,
		cfg.JWTSecret,
		cfg.TokenTTL,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newStore 根据配置选择附件存储驱动
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "local":
		return storage.NewLocalStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
