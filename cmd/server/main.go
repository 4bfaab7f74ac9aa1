package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"sweetshop/internal/config"
	"sweetshop/internal/db"
	"sweetshop/internal/handlers"
	"sweetshop/internal/httpserver"
	"sweetshop/internal/logging"
	loggingmw "sweetshop/internal/middleware/logging"
	"sweetshop/internal/mykafka"
	"sweetshop/internal/repo"
	"sweetshop/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	gormDB, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var brokers []string
	if cfg.KafkaAddress != "" {
		brokers = []string{cfg.KafkaAddress}
	}
	producer := mykafka.NewProducer(brokers)

	jwtSecret := []byte(cfg.JWTSecret)
	refreshSecret := []byte(cfg.RefreshSecret)

	authSvc := &service.AuthService{
		Users:         &repo.UserRepo{DB: gormDB},
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
	}
	sweetSvc := &service.SweetService{
		Sweets: &repo.SweetRepo{DB: gormDB},
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &handlers.AuthHandler{Auth: authSvc, Producer: producer},
		SweetHandler: &handlers.SweetHandler{Svc: sweetSvc, Producer: producer},
		JWTSecret:    jwtSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
