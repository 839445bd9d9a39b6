// Package main runs the elections HTTP server with live results and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-elections/backend/config"
	"github.com/aura-elections/backend/internal/auth"
	"github.com/aura-elections/backend/internal/elections"
	"github.com/aura-elections/backend/internal/middleware"
	"github.com/aura-elections/backend/internal/realtime"
	"github.com/aura-elections/backend/internal/votes"
	"github.com/aura-elections/backend/pkg/database"
	"github.com/aura-elections/backend/pkg/queue"
	"github.com/aura-elections/backend/pkg/redis"
	"github.com/aura-elections/backend/pkg/response"
	"github.com/aura-elections/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ResultsBucket:        cfg.AWS.ResultsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	federated, err := auth.NewFederatedVerifier(cfg.Federated.PublicKeyPEM, cfg.Federated.Issuer, cfg.Federated.Audience)
	if err != nil {
		logger.Fatal("federated sign-in", zap.Error(err))
	}
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, federated, logger)

	// Elections
	electionRepo := elections.NewRepository(pool)
	electionSvc := elections.NewService(electionRepo, time.Now)
	electionHandler := elections.NewHandler(electionSvc, logger)

	// Votes and results
	voteRepo := votes.NewRepository(pool)
	voteSvc := votes.NewService(voteRepo, electionRepo, time.Now)
	voteHandler := votes.NewHandler(voteSvc, logger)

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
		voteHandler.SetPublisher(hub)
	}
	if s3Client != nil {
		voteHandler.SetArchive(queue.NewQueue(rdb.Client, logger), s3Client)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(hctx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Healthy(hctx); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/federated", authHandler.Federated)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService.Identify))
	{
		api.GET("/auth/me", authHandler.Me)

		// Elections
		api.POST("/elections", electionHandler.Create)
		api.GET("/elections/active", electionHandler.ListActive)
		api.GET("/elections/past", electionHandler.ListPast)
		api.GET("/elections/mine", electionHandler.ListMine)
		api.GET("/elections/:id", electionHandler.GetByID)

		// Votes and results
		api.POST("/elections/:id/votes", voteHandler.Cast)
		api.GET("/elections/:id/votes/me", voteHandler.MyVote)
		api.GET("/elections/:id/results", voteHandler.Results)
		api.GET("/elections/:id/results/archive", voteHandler.ArchiveURL)
	}

	// WebSocket (token in query; no Authorization header required)
	if hub != nil {
		router.GET("/ws", realtime.ServeWs(hub, logger, jwtService.Identify, func(c *gin.Context, id uuid.UUID) error {
			_, err := electionRepo.GetByID(c.Request.Context(), id)
			return err
		}))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
