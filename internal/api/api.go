package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/api/handlers"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/api/middleware"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/drive"
)

type Services struct {
	Forecasts handlers.ForecastService
	Ingest    handlers.IngestService
	Dashboard handlers.DashboardService
	// Drive is optional; its routes are only mounted when Drive is configured.
	Drive *drive.Handler
}

type Options struct {
	AllowedOrigins []string
	MaxUploadMB    int
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	maxUpload := int64(opts.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	router.MaxMultipartMemory = maxUpload

	router.GET("/health", health)

	apiGroup := router.Group("/api/v1")
	apiGroup.GET("/health", health)

	if services != nil {
		if services.Forecasts != nil || services.Ingest != nil {
			inventoryHandler := handlers.NewInventoryHandler(services.Forecasts, services.Ingest, maxUpload)
			inventoryGroup := apiGroup.Group("/inventory")
			{
				if services.Forecasts != nil {
					inventoryGroup.GET("/skus", inventoryHandler.ListSKUs)
					inventoryGroup.GET("/demand", inventoryHandler.GetDemand)
					inventoryGroup.GET("/rows", inventoryHandler.GetRows)
				}
				if services.Ingest != nil {
					inventoryGroup.POST("/upload", inventoryHandler.Upload)
					inventoryGroup.GET("/datasets", inventoryHandler.ListDatasets)
					inventoryGroup.GET("/datasets/:month", inventoryHandler.GetDataset)
				}
			}
		}

		if services.Forecasts != nil {
			forecastHandler := handlers.NewForecastHandler(services.Forecasts)
			forecastGroup := apiGroup.Group("/forecast")
			{
				forecastGroup.GET("", forecastHandler.GetForecast)
				forecastGroup.GET("/summary", forecastHandler.GetSummary)
				forecastGroup.GET("/models", forecastHandler.GetModels)
			}
		}

		if services.Dashboard != nil {
			dashboardHandler := handlers.NewDashboardHandler(services.Dashboard)
			apiGroup.GET("/dashboard/summary", dashboardHandler.GetSummary)
		}

		if services.Drive != nil {
			services.Drive.RegisterRoutes(apiGroup.Group("/drive"))
		}
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
