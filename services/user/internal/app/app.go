package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidtube/pkg/cache"
	"vidtube/pkg/config"
	"vidtube/pkg/database"
	"vidtube/pkg/jwt"
	"vidtube/pkg/logger"
	"vidtube/pkg/middleware"
	"vidtube/pkg/password"
	"vidtube/pkg/s3"
	userHTTP "vidtube/services/user/internal/controller/http"
	channelcache "vidtube/services/user/internal/repo/cache"
	"vidtube/services/user/internal/repo/persistent"
	"vidtube/services/user/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "vidtube/services/user/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	mongo       *database.MongoDB
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	jwtService  *jwt.Service
	hasher      password.Hasher
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithOptions(logger.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.IsProduction(),
	}).With(logger.Fields{"service": "user"})

	a := &App{
		cfg: cfg,
		log: log,
		jwtService: jwt.NewService(jwt.Options{
			AccessSecret:  cfg.AccessTokenSecret,
			RefreshSecret: cfg.RefreshTokenSecret,
			AccessTTL:     cfg.AccessTokenExpiry,
			RefreshTTL:    cfg.RefreshTokenExpiry,
		}),
		hasher: password.NewBcryptHasher(0),
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Error("Failed to connect to database: %v", err)
			return nil, err
		}
		a.db = db
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		mongoDB, err := database.NewMongoDB(ctx, cfg)
		if err != nil {
			log.Error("Failed to connect to MongoDB: %v", err)
			return nil, err
		}
		if err := persistent.EnsureMongoIndexes(ctx, mongoDB.Database); err != nil {
			log.Error("Failed to create MongoDB indexes: %v", err)
			_ = mongoDB.Close(context.Background())
			return nil, err
		}
		a.mongo = mongoDB
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		// Channel profiles are served uncached without redis.
		log.Warn("Failed to connect to redis: %v (continuing without cache)", err)
		redisClient = nil
	}
	a.redisClient = redisClient

	s3Client, err := s3.NewClient(cfg, log)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		a.closeStores(context.Background())
		return nil, err
	}
	a.s3Client = s3Client

	return a, nil
}

func (a *App) repositories() (persistent.UserRepository, persistent.ChannelRepository) {
	if a.db != nil {
		return persistent.NewPostgresUserRepository(a.db), persistent.NewPostgresChannelRepository(a.db)
	}
	return persistent.NewMongoUserRepository(a.mongo.Database), persistent.NewMongoChannelRepository(a.mongo.Database)
}

// Router builds the HTTP surface of the service.
func (a *App) Router() *gin.Engine {
	userRepo, channelRepo := a.repositories()

	var channelCache usecase.ChannelCache
	if a.redisClient != nil {
		channelCache = channelcache.NewChannelCache(a.redisClient, a.cfg.ChannelCacheTTL)
	}

	sessionUseCase := usecase.NewSessionUseCase(userRepo, a.jwtService, a.hasher, a.s3Client, a.log)
	profileUseCase := usecase.NewProfileUseCase(userRepo, a.s3Client, channelCache, a.log)
	channelUseCase := usecase.NewChannelUseCase(channelRepo, channelCache, a.log)

	userHandler := userHTTP.NewUserHandler(sessionUseCase, profileUseCase, channelUseCase, userHTTP.Options{
		UploadDir:      a.cfg.UploadTmpDir,
		MaxUploadBytes: int64(a.cfg.MaxUploadMB) << 20,
		CookieDomain:   a.cfg.CookieDomain,
		CookieSecure:   a.cfg.CookieSecure,
		AccessTTL:      a.cfg.AccessTokenExpiry,
		RefreshTTL:     a.cfg.RefreshTokenExpiry,
	}, a.log)

	return newRouter(a.cfg, a.log, a.jwtService, userHandler)
}

func newRouter(cfg *config.Config, log *logger.Logger, jwtService *jwt.Service, userHandler *userHTTP.UserHandler) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	users := r.Group("/api/v1/users")
	{
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
		users.POST("/refresh-token", userHandler.RefreshToken)
		users.GET("/c/:username", middleware.OptionalAuth(jwtService), userHandler.GetChannelProfile)

		protected := users.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			protected.POST("/logout", userHandler.Logout)
			protected.POST("/change-password", userHandler.ChangePassword)
			protected.GET("/current-user", userHandler.GetCurrentUser)
			protected.PATCH("/update-account", userHandler.UpdateAccount)
			protected.PATCH("/avatar", userHandler.UpdateAvatar)
			protected.PATCH("/cover-image", userHandler.UpdateCoverImage)
			protected.GET("/history", userHandler.GetWatchHistory)
		}
	}

	return r
}

func (a *App) Run() error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(a.cfg.UploadTmpDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("User service starting on port %s (%s store)", a.cfg.ServerPort, a.cfg.DBDriver)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down user service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			shutdownErr = err
		}
	}

	a.closeStores(ctx)

	a.log.Info("User service exited")
	return shutdownErr
}

func (a *App) closeStores(ctx context.Context) {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.log.Error("Error closing database: %v", err)
			}
		}
	}

	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.log.Error("Error closing MongoDB: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}
}
