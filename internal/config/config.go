// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Drive     DriveConfig
	Inventory InventoryConfig
	Forecast  ForecastConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// URL, when set, is used as-is instead of the discrete fields.
	URL            string
	MaxConcurrency int64
}

type AppConfig struct {
	UploadDir string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket that archives raw uploads.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type DriveConfig struct {
	CredentialsFile     string
	FolderID            string
	PollIntervalSeconds int
}

// InventoryConfig names the table and columns monthly inventory lives in.
type InventoryConfig struct {
	Schema       string
	Table        string
	SKUColumn    string
	MonthColumn  string
	SalesColumn  string
	StockColumn  string
	SafetyColumn string
}

type ForecastConfig struct {
	DefaultHorizon  int
	DefaultLeadTime int
	PrimaryModel    string
	DefaultRange    string
	BacktestHoldout int
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build()

		ensureDir(instance.App.UploadDir)
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("SERVER_MAX_UPLOAD_MB", 20)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "inventory_insight")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_MAX_CONCURRENCY", 10)
	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "inventory-uploads")
	viper.SetDefault("STORAGE_REGION", "")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("STORAGE_PREFIX", "uploads")
	viper.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	viper.SetDefault("DRIVE_FOLDER_ID", "")
	viper.SetDefault("DRIVE_POLL_INTERVAL_SECONDS", 0)
	viper.SetDefault("INVENTORY_SCHEMA", "")
	viper.SetDefault("INVENTORY_TABLE", "inventory_monthly")
	viper.SetDefault("INVENTORY_SKU_COLUMN", "sku")
	viper.SetDefault("INVENTORY_MONTH_COLUMN", "month")
	viper.SetDefault("INVENTORY_SALES_COLUMN", "month_sales")
	viper.SetDefault("INVENTORY_STOCK_COLUMN", "month_end_stock")
	viper.SetDefault("INVENTORY_SAFETY_COLUMN", "safety_stock")
	viper.SetDefault("FORECAST_DEFAULT_HORIZON", 6)
	viper.SetDefault("FORECAST_DEFAULT_LEAD_TIME", 1)
	viper.SetDefault("FORECAST_PRIMARY_MODEL", "HOLT")
	viper.SetDefault("FORECAST_DEFAULT_RANGE", "12M")
	viper.SetDefault("FORECAST_BACKTEST_HOLDOUT", 3)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_MAX_SIZE_MB", 50)
	viper.SetDefault("LOG_MAX_BACKUPS", 5)
	viper.SetDefault("LOG_MAX_AGE_DAYS", 30)
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    viper.GetInt("SERVER_MAX_UPLOAD_MB"),
		},
		Database: DatabaseConfig{
			Host:           viper.GetString("DB_HOST"),
			Port:           viper.GetString("DB_PORT"),
			User:           viper.GetString("DB_USER"),
			Password:       viper.GetString("DB_PASSWORD"),
			DBName:         viper.GetString("DB_NAME"),
			SSLMode:        viper.GetString("DB_SSLMODE"),
			URL:            viper.GetString("DATABASE_URL"),
			MaxConcurrency: viper.GetInt64("DB_MAX_CONCURRENCY"),
		},
		App: AppConfig{
			UploadDir: viper.GetString("APP_UPLOAD_DIR"),
		},
		Cache: CacheConfig{
			Enabled:            viper.GetBool("CACHE_ENABLED"),
			RedisURL:           viper.GetString("REDIS_URL"),
			RedisHost:          viper.GetString("REDIS_HOST"),
			RedisPort:          viper.GetString("REDIS_PORT"),
			RedisPassword:      viper.GetString("REDIS_PASSWORD"),
			RedisDB:            viper.GetInt("REDIS_DB"),
			ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsFile:     viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
			FolderID:            viper.GetString("DRIVE_FOLDER_ID"),
			PollIntervalSeconds: viper.GetInt("DRIVE_POLL_INTERVAL_SECONDS"),
		},
		Inventory: inventoryConfig(),
		Forecast: ForecastConfig{
			DefaultHorizon:  viper.GetInt("FORECAST_DEFAULT_HORIZON"),
			DefaultLeadTime: viper.GetInt("FORECAST_DEFAULT_LEAD_TIME"),
			PrimaryModel:    viper.GetString("FORECAST_PRIMARY_MODEL"),
			DefaultRange:    viper.GetString("FORECAST_DEFAULT_RANGE"),
			BacktestHoldout: viper.GetInt("FORECAST_BACKTEST_HOLDOUT"),
		},
		Log: LogConfig{
			Level:      viper.GetString("LOG_LEVEL"),
			File:       viper.GetString("LOG_FILE"),
			MaxSizeMB:  viper.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: viper.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: viper.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}

// inventoryConfig treats the legacy table name "summary" as the monthly table.
func inventoryConfig() InventoryConfig {
	table := strings.TrimSpace(viper.GetString("INVENTORY_TABLE"))
	if table == "" || strings.EqualFold(table, "summary") {
		table = "inventory_monthly"
	}

	monthColumn := strings.TrimSpace(viper.GetString("INVENTORY_MONTH_COLUMN"))
	if monthColumn == "" || strings.EqualFold(monthColumn, "time") {
		monthColumn = "month"
	}

	return InventoryConfig{
		Schema:       strings.TrimSpace(viper.GetString("INVENTORY_SCHEMA")),
		Table:        table,
		SKUColumn:    orDefault(viper.GetString("INVENTORY_SKU_COLUMN"), "sku"),
		MonthColumn:  monthColumn,
		SalesColumn:  orDefault(viper.GetString("INVENTORY_SALES_COLUMN"), "month_sales"),
		StockColumn:  orDefault(viper.GetString("INVENTORY_STOCK_COLUMN"), "month_end_stock"),
		SafetyColumn: orDefault(viper.GetString("INVENTORY_SAFETY_COLUMN"), "safety_stock"),
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
