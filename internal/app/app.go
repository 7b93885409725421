package app

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/controller"
	"campus_share_backend/internal/service"
	"campus_share_backend/internal/util"
	"campus_share_backend/pkg/configwatcher"
	"campus_share_backend/pkg/database"
	"campus_share_backend/pkg/logger"
	"campus_share_backend/pkg/monitoring"
	"campus_share_backend/pkg/security"
	"campus_share_backend/pkg/tracing"
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type services struct {
	ledger   *service.LedgerService
	auth     *service.AuthService
	storage  *service.StorageService
	user     *service.UserService
	resource *service.ResourceService
	comment  *service.CommentService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	resource *controller.ResourceController
	comment  *controller.CommentController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func ledgerRules(cfg *config.Config) service.Rules {
	return service.Rules{
		UploadBonus: cfg.Points.UploadBonus,
		LoginBonus:  cfg.Points.LoginBonus,
	}
}

func (a *App) initServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, tokens *util.TokenManager) *services {
	s := &services{}

	s.ledger = service.NewLedgerService(db, ledgerRules(cfg))
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(s.ledger.UserRepo, s.ledger, tokens)
	s.user = service.NewUserService(db)
	s.resource = service.NewResourceService(db, s.ledger, s.storage, rdb, cfg.Upload)
	s.comment = service.NewCommentService(db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user),
		resource: controller.NewResourceController(s.resource),
		comment:  controller.NewCommentController(s.comment),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化全部依赖；ForceMigrate 时执行表结构迁移
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	tokens, err := util.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		logger.Log.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	services := app.initServices(cfg, db, rdb, tokens)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 配置热更新：积分规则和日志级别
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.ledger.SetRules(ledgerRules(newCfg))
	})
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("campus-share", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, tokens, cfg)

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	configFile := filepath.Join("configs", "config.yaml")
	err := configwatcher.WatchConfig(ctx, configFile, func(newCfg *config.Config) {
		for _, callback := range a.configCallbacks {
			callback(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
