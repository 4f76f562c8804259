// Package main runs the watch tracking API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bereket-09/adlaunch-platform-sub000/config"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/audit"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/middleware"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/rewards"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/tokens"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/track"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/worker"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/database"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/queue"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/redis"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/response"
	"github.com/bereket-09/adlaunch-platform-sub000/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CreativesBucket:      cfg.AWS.CreativesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	tokenSvc := tokens.NewService(cfg.Token.Secret, cfg.Token.ExpireHours)
	keychain := track.NewKeychain(rdb.Client, cfg.Token.KeyTTL)
	emitter := audit.NewEmitter(rdb.Client, logger)
	feed := audit.NewFeed(emitter, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	trackRepo := track.NewRepository(pool)
	rewardRepo := rewards.NewRepository(pool)

	var signer track.URLSigner
	if s3Client != nil {
		signer = s3Client
	}
	trackHandler := track.NewHandler(trackRepo, rewardRepo, keychain, tokenSvc,
		signer, jobQueue, emitter, cfg.Server.PublicWatchURL, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Watch protocol (flat wire format, consumed by the client SDK)
	router.GET("/video/:token", trackHandler.ResolveVideo)
	router.POST("/track/start", trackHandler.TrackStart)
	router.POST("/track/complete", trackHandler.TrackComplete)

	// Issuance for the campaign service (SMS link generation)
	router.POST("/tokens/issue", trackHandler.IssueToken)

	// Audit event feed for analytics/fraud consumers
	router.GET("/ws/audit", feed.ServeWs())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process fulfillment worker; cmd/worker runs the same loop standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	processor := worker.NewFulfillmentProcessor(rewardRepo, jobQueue,
		cfg.Fulfillment.Endpoint, time.Duration(cfg.Fulfillment.TimeoutSec)*time.Second, logger)
	go processor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := cfg.Build()
	return logger
}
