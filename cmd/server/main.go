package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"taskboard/docs"
	"taskboard/internal/auth"
	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/internal/notify"
	"taskboard/internal/reminder"
	"taskboard/internal/repository"
	"taskboard/internal/router"
	"taskboard/internal/service"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --parseInternal

const shutdownGrace = 10 * time.Second

// @title Taskboard API
// @version 1.0
// @description Personal task management API with JWT authentication and due date reminders.
// @host localhost:5000
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev || cfg.IsDevelopment()})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		zl.Fatal("database init", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	zl.Info("database ready", zap.String("driver", cfg.DBDriver))

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	authMiddleware := auth.Middleware(jwtService, tokenStore, stores.Users, cacheClient, zl)

	// Initialize services
	authService := service.NewAuthService(stores.Users, auth.NewBcryptHasher(0), jwtService, tokenStore, cacheClient)
	taskService := service.NewTaskService(stores.Tasks)

	// Reminders
	notifier, err := notify.New(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, zl)
	if err != nil {
		zl.Fatal("notifier init", zap.Error(err))
	}
	sweeper := reminder.NewSweeper(stores.Tasks, stores.Users, notifier, zl,
		reminder.WithWindow(cfg.ReminderWindow),
		reminder.WithMetrics(collector),
	)
	scheduler, err := reminder.NewScheduler(cfg.ReminderSchedule, sweeper, zl)
	if err != nil {
		zl.Fatal("reminder scheduler init", zap.Error(err))
	}
	if err := scheduler.Start(ctx); err != nil {
		zl.Fatal("reminder scheduler start", zap.Error(err))
	}

	// Register routes
	e := echo.New()
	router.Register(
		e,
		cfg,
		zl,
		collector,
		reg,
		authMiddleware,
		handler.NewAuthHandler(authService),
		handler.NewTaskHandler(taskService),
	)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	zl.Info("swagger documentation available", zap.String("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))

	addr := ":" + cfg.ServerPort
	go func() {
		zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		zl.Warn("reminder sweep still running at shutdown")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	if err := stores.Close(shutdownCtx); err != nil {
		zl.Error("database close", zap.Error(err))
	}
	if err := cacheClient.Close(); err != nil {
		zl.Error("redis close", zap.Error(err))
	}
	zl.Info("server stopped")
}
