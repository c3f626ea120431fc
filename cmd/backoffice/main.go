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

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/config"
	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/database"
	"github.com/yukikurage/printshop-manager/internal/handlers"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
	"github.com/yukikurage/printshop-manager/internal/logger"
	"github.com/yukikurage/printshop-manager/internal/middleware"
	"github.com/yukikurage/printshop-manager/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openKV(cfg, logr)
	if err != nil {
		logr.Fatal("Failed to open key-value store", zap.Error(err))
	}

	workspace, err := app.New(ctx, kv, logr, app.Options{
		RequestTimeout:  cfg.RequestTimeout,
		PollInterval:    cfg.PollInterval,
		SampleDataDelay: constants.DefaultSampleDataDelay,
	})
	if err != nil {
		logr.Fatal("Failed to create workspace", zap.Error(err))
	}
	defer workspace.Close()

	if !workspace.Settings.IsConfigured() {
		logr.Warn("Script URL and Security Token are not set, sample data will be shown until the Super Admin saves them")
	}
	if restored, err := workspace.Session.Restore(ctx); err != nil {
		logr.Error("Failed to restore session", zap.Error(err))
	} else if restored {
		logr.Info("Previous session restored")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.NoCache())

	store, err := sessionStore(cfg)
	if err != nil {
		logr.Fatal("Failed to create session store", zap.Error(err))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"message":    "Print shop back office is running",
			"configured": workspace.Settings.IsConfigured(),
		})
	})
	handlers.RegisterBackofficeRoutes(r, workspace, aiService, logr.Named("handlers"))

	server := &http.Server{
		Addr:         ":" + cfg.BackofficePort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3*cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("Back office starting", zap.String("addr", server.Addr))
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

func openKV(cfg *config.Config, logr *zap.Logger) (kvstore.Store, error) {
	switch cfg.KVBackend {
	case config.KVBackendRedis:
		pool := kvstore.NewRedisPool(cfg.RedisAddr(), cfg.RedisPassword, 10)
		return kvstore.NewRedisStore(pool, "printshop:"), nil
	case config.KVBackendSQLite:
		db, err := database.Open(sqlite.Open(cfg.KVPath), logr.Named("kv"))
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(db)
	default:
		return nil, errors.New("unknown KV_BACKEND: " + cfg.KVBackend)
	}
}

func sessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.SessionStore == "redis" {
		return redisStore.NewStore(
			10,                        // Redis pool size
			"tcp",                     // network type
			cfg.RedisAddr(),           // Redis address from config
			"",                        // username (empty for default user)
			cfg.RedisPassword,         // password
			[]byte(cfg.SessionSecret), // authentication key
		)
	}
	return cookie.NewStore([]byte(cfg.SessionSecret)), nil
}
