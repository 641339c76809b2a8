package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/drive"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/pipeline"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/storage"
	"github.com/andresuchdata/inventory-insight/backend-go/pkg/logger"
)

func openDB(ctx context.Context, url string) (*postgres.DB, error) {
	db, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return postgres.Wrap(db, config.Load().Database.MaxConcurrency), nil
}

// newIngestService builds the same upload pipeline the server uses. Caches are
// dropped after an import so the server does not serve stale forecasts.
func newIngestService(db *postgres.DB, archiveDir string) (*service.IngestService, error) {
	cfg := config.Load()

	forecasts, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, cached forecasts will not be invalidated")
		forecasts = nil
	}
	dashboards, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("dashboard cache unavailable, cached summary will not be invalidated")
		dashboards = nil
	}

	repo := postgres.NewInventoryRepository(db, cfg.Inventory)
	if archiveDir == "" {
		return service.NewIngestService(repo, nil, "", forecasts, dashboards), nil
	}

	archive, err := storage.NewLocalStorage(archiveDir)
	if err != nil {
		return nil, err
	}
	return service.NewIngestService(repo, archive, cfg.Storage.Prefix, forecasts, dashboards), nil
}

func importFile(c *cli.Context) error {
	if (c.String("file") == "") == (c.String("dir") == "") {
		return cli.Exit("exactly one of --file or --dir is required", 2)
	}

	db, err := openDB(c.Context, c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := newIngestService(db, c.String("archive-dir"))
	if err != nil {
		return err
	}

	if dir := c.String("dir"); dir != "" {
		return importDir(c, svc, dir)
	}

	opts := service.UploadOptions{
		FileName:   filepath.Base(c.String("file")),
		UploadedBy: c.String("uploaded-by"),
	}
	if raw := c.String("month"); raw != "" {
		month, err := forecast.ParseMonth(raw)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		opts.DefaultMonth = month
	}

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.String("file"), err)
	}
	defer f.Close()

	result, err := svc.Upload(c.Context, f, opts)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result, true)
}

func importDir(c *cli.Context, svc *service.IngestService, dir string) error {
	files, err := pipeline.Collect(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return cli.Exit(fmt.Sprintf("no spreadsheets found under %s", dir), 1)
	}

	cfg := pipeline.DefaultConfig()
	cfg.WorkerCount = c.Int("workers")
	cfg.UploadedBy = c.String("uploaded-by")

	summary, err := pipeline.NewOrchestrator(svc, cfg).Run(c.Context, files)
	if err != nil {
		return err
	}
	if err := writeJSON(c.App.Writer, summary, true); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed to import", summary.Failed, len(files)), 1)
	}
	return nil
}

func importDrive(c *cli.Context) error {
	credentials := c.String("credentials")
	if credentials == "" {
		return cli.Exit("--credentials or GOOGLE_APPLICATION_CREDENTIALS is required", 2)
	}

	driveService, err := drive.NewServiceFromFile(c.Context, credentials)
	if err != nil {
		return err
	}

	folderID := c.String("folder-id")
	if path := c.String("path"); path != "" {
		if folderID, err = driveService.FindFolderByPath(c.Context, path); err != nil {
			return err
		}
	}
	if folderID == "" {
		return cli.Exit("--folder-id or --path is required", 2)
	}

	db, err := openDB(c.Context, c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := newIngestService(db, "")
	if err != nil {
		return err
	}

	results, err := drive.NewImporter(driveService, svc).ImportFolder(c.Context, folderID)
	if err != nil {
		return err
	}
	if err := writeJSON(c.App.Writer, results, true); err != nil {
		return err
	}

	for _, res := range results {
		if res.Error != "" {
			return cli.Exit("some files failed to import", 1)
		}
	}
	return nil
}

func migrate(c *cli.Context) error {
	db, err := openDB(c.Context, c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(c.Context); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema is up to date")
	return nil
}
