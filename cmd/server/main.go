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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yukikurage/printshop-manager/internal/config"
	"github.com/yukikurage/printshop-manager/internal/database"
	"github.com/yukikurage/printshop-manager/internal/handlers"
	"github.com/yukikurage/printshop-manager/internal/logger"
	"github.com/yukikurage/printshop-manager/internal/middleware"
	"github.com/yukikurage/printshop-manager/internal/repository"
	"github.com/yukikurage/printshop-manager/internal/services"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	if cfg.SecretToken == "" {
		logr.Warn("SECRET_TOKEN is empty, every request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("Failed to open tabular store", zap.Error(err))
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	lock := services.NewWriteLock(cfg.WriteLockTimeout)
	sheetService := services.NewSheetService(rows, cfg.SecretToken, lock, logr.Named("sheet"))
	scriptHandler := handlers.NewScriptHandler(sheetService, logr.Named("script"))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go rateLimiter.Cleanup(ctx, 5*time.Minute)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.NoCache(), middleware.CORS(), rateLimiter.Middleware())
	handlers.RegisterScriptRoutes(r, scriptHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteLockTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("Sheet service starting",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("Forced shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSheets:
		if cfg.SpreadsheetID == "" {
			return nil, errors.New("SPREADSHEET_ID is required for the sheets backend")
		}
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		if err != nil {
			return nil, err
		}
		return repository.NewSheetsStore(svc, cfg.SpreadsheetID), nil

	case config.StoreBackendSQL:
		db, err := database.Connect(cfg, logr.Named("database"))
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, logr.Named("database")); err != nil {
			return nil, err
		}
		return repository.NewGormStore(db), nil

	default:
		return nil, errors.New("unknown STORE_BACKEND: " + cfg.StoreBackend)
	}
}
