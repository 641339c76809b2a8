// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/api"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/drive"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/replenishment"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/storage"
	"github.com/andresuchdata/inventory-insight/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	closer, err := logger.Configure(cfg.Log)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to configure logger")
	}
	defer closer.Close()

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}
	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize upload archive")
	}

	// Initialize services
	repo := postgres.NewInventoryRepository(db, cfg.Inventory)
	safety := replenishment.NewResolver(repo)

	forecastService := service.NewForecastService(repo, safety, forecastCache, service.DefaultsFromConfig(cfg.Forecast))
	ingestService := service.NewIngestService(repo, archive, cfg.Storage.Prefix, forecastCache, dashboardCache)
	dashboardService := service.NewDashboardService(repo, dashboardCache)

	services := &api.Services{
		Forecasts: forecastService,
		Ingest:    ingestService,
		Dashboard: dashboardService,
	}

	if cfg.Drive.CredentialsFile != "" {
		driveService, err := drive.NewServiceFromFile(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Google Drive disabled")
		} else {
			importer := drive.NewImporter(driveService, ingestService)
			services.Drive = drive.NewHandler(importer, driveService, cfg.Drive.FolderID)

			if cfg.Drive.FolderID != "" && cfg.Drive.PollIntervalSeconds > 0 {
				interval := time.Duration(cfg.Drive.PollIntervalSeconds) * time.Second
				go drive.NewWatcher(importer, cfg.Drive.FolderID, interval).Run(ctx)
			}
		}
	}

	// Initialize HTTP server
	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The server has 5 seconds to finish in-flight requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}

// newArchive keeps raw uploads in the object store when enabled, otherwise on
// local disk under the upload directory.
func newArchive(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.Storage.Enabled {
		return storage.NewMinioClient(ctx, cfg.Storage)
	}
	return storage.NewLocalStorage(cfg.App.UploadDir)
}
