package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/store_api/internal/config"
	"github.com/Skotchmaster/store_api/internal/es"
	"github.com/Skotchmaster/store_api/internal/handlers"
	"github.com/Skotchmaster/store_api/internal/httperr"
	"github.com/Skotchmaster/store_api/internal/logging"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/middleware/ratelimit"
	"github.com/Skotchmaster/store_api/internal/mykafka"
	"github.com/Skotchmaster/store_api/internal/token"
	httpserver "github.com/Skotchmaster/store_api/internal/transport/http"
)

const (
	rateLimit       = 60
	rateLimitWindow = 15 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	tokens, err := token.New([]byte(cfg.JWT_SECRET), cfg.TokenLifetime, cfg.IsProduction())
	if err != nil {
		log.Fatalf("token service error: %v", err)
	}

	producer := mykafka.NewProducer(cfg.KafkaBrokers)

	productHandler := &handlers.ProductHandler{
		DB:        db,
		Producer:  producer,
		UploadDir: cfg.UploadDir,
	}
	if cfg.ES_URL != "" {
		client, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch error: %v", err)
		}
		productHandler.ES = client
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httperr.Handler

	e.Pre(
		middleware.RemoveTrailingSlash(),
		ratelimit.Middleware(rateLimit, rateLimitWindow),
	)
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.BodyLimit("2M"),
		logging.RequestLogger(logger),
	)
	e.Static("/", "./public")

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		UserHandler:    &handlers.UserHandler{DB: db, Tokens: tokens},
		ProductHandler: productHandler,
		ReviewHandler:  &handlers.ReviewHandler{DB: db, Producer: producer},
		OrderHandler:   &handlers.OrderHandler{DB: db, Producer: producer},
		Auth:           &authmw.Middleware{Tokens: tokens, Source: authmw.CookieOnly},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
