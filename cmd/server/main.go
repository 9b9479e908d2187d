package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/config"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/handler"
	"github.com/postboard/internal/observability"
	"github.com/postboard/internal/router"
	"github.com/postboard/internal/service"
	"github.com/postboard/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 初始化数据库
	if err := db.Init(db.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		DSN:    cfg.DatabaseDSN,
		Logger: observability.GormLogger(logger),
	}); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	created, err := service.NewUserService(db.DB).EnsureAccount(cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		logger.Error("failed to ensure bootstrap user", "error", err)
		os.Exit(1)
	}
	if created {
		logger.Info("bootstrap user created", "username", cfg.SuperRootUserName)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	api := handler.NewAPI(db.DB, handler.Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		Store:          storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		BlockStartHour: cfg.BlockStartHour,
		BlockEndHour:   cfg.BlockEndHour,
		Location:       cfg.Location(),
	})

	routerOpts := router.Options{
		SessionSecret:      cfg.SessionSecret,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		UploadDir:          cfg.UploadDir,
		UploadURLPath:      cfg.UploadURLPath,
	}
	// 避免把 nil *redis.Client 包装成非 nil 接口
	if rdb != nil {
		routerOpts.RedisClient = rdb
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to run server", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
