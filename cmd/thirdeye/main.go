package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/thirdeye/internal/api"
	"github.com/mr1hm/thirdeye/internal/config"
	"github.com/mr1hm/thirdeye/internal/dashboard"
	"github.com/mr1hm/thirdeye/internal/facility"
	"github.com/mr1hm/thirdeye/internal/ingestion"
	"github.com/mr1hm/thirdeye/internal/logging"
	"github.com/mr1hm/thirdeye/internal/metrics"
	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/normalizer"
	"github.com/mr1hm/thirdeye/internal/notify"
	"github.com/mr1hm/thirdeye/internal/repository"
	"github.com/mr1hm/thirdeye/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "store", cfg.Store.Backend)

	catalog, err := loadCatalog(cfg.Facility)
	if err != nil {
		logging.Fatalf("Failed to load facility layout: %v", err)
	}
	slog.Info("facility layout loaded", "revision", catalog.Name(), "outdoor", catalog.Outdoor())

	store, err := repository.Open(repository.Options{
		Backend: cfg.Store.Backend,
		DBPath:  cfg.Store.DBPath,
		Dir:     cfg.Store.Dir,
		Redis: repository.RedisConfig{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		},
	})
	if err != nil {
		logging.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	persist := repository.NewPersistence(store)

	state := dashboard.New(persist, dashboard.WithMetrics(m))
	state.Hydrate(ctx)

	sessions := session.NewManager(persist, cfg.Auth.SharedPassword, session.Hooks{
		OnLogin: func(ctx context.Context, s models.Session) {
			state.AddEvent(ctx, models.UserEvent("User logged in", s.User, s.CreatedAt))
		},
		OnLogout: func(ctx context.Context, s models.Session) {
			state.AddEvent(ctx, models.UserEvent("User logged out", s.User, time.Now()))
		},
	})

	broadcaster := notify.NewBroadcaster(cfg.Worker.BufferSize)

	// Start ingestion manager
	mgr := ingestion.NewManager(cfg, state, normalizer.New(catalog), broadcaster, m)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(state, sessions, mgr, catalog, broadcaster, m)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Close() // ends open notification streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

// loadCatalog resolves the configured revision from the facility file, or
// from the built-in layouts when no file is set or the file is missing.
func loadCatalog(cfg config.FacilityConfig) (*facility.Catalog, error) {
	if cfg.File == "" {
		return facility.Builtin().Catalog(cfg.Revision)
	}

	f, err := facility.LoadFile(cfg.File)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("facility file not found, using built-in layouts", "path", cfg.File)
		f, err = facility.Builtin(), nil
	}
	if err != nil {
		return nil, err
	}
	return f.Catalog(cfg.Revision)
}
