package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/config"
	"github.com/retailpos/backoffice/internal/db"
	"github.com/retailpos/backoffice/internal/httpserver"
	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
	"github.com/retailpos/backoffice/internal/search"
	"github.com/retailpos/backoffice/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := database.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var sink audit.Sink = audit.Nop{}
	var kafkaSink *audit.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink = audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		sink = kafkaSink
	}

	var products *search.Products
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		products = &search.Products{ES: esClient, Index: cfg.ESIndex}
	}

	r := repo.New(database)
	deps := httpserver.Deps{
		Auth: &service.AuthService{
			Repo:       r,
			Audit:      sink,
			JWTSecret:  cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		Stores:    &service.StoreService{Repo: r, Audit: sink},
		Employees: &service.EmployeeService{Repo: r, Audit: sink},
		Customers: &service.CustomerService{Repo: r, Audit: sink},
		Catalog:   &service.CatalogService{Repo: r, Audit: sink, Search: products},
		Orders:    &service.OrderService{Repo: r, Audit: sink},
		Stats:     &service.StatsService{Repo: r},
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(httpserver.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}

	logger.Info("stopped")
}
