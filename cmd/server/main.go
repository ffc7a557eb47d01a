package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KilloQ/StudentsClubs/config"
	"github.com/KilloQ/StudentsClubs/internal/api/handler"
	"github.com/KilloQ/StudentsClubs/internal/api/router"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/database"
	"github.com/KilloQ/StudentsClubs/pkg/jwt"
	applogger "github.com/KilloQ/StudentsClubs/pkg/logger"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
	"github.com/KilloQ/StudentsClubs/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("CLUBS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. redis (optional: run degraded when unreachable)
	var blacklist service.TokenBlacklist
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, logout revocation and shared rate limits disabled", zap.Error(err))
		rdb = nil
	} else {
		blacklist = rdb
	}

	// 5. jwt
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. repository → service → handler
	m := metrics.New()
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, jwtMgr, blacklist, m, logger)
	h := handler.NewHandler(svc)

	// 7. router
	engine := router.Setup(cfg, h, svc, repo, rdb, m, logger)

	// 8. http server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. wait for a signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server stopped")
}
