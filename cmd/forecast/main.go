package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/config"
	"github.com/andresuchdata/inventory-insight/backend-go/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "forecast",
		Usage: "Forecast demand and import inventory spreadsheets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Forecast one SKU straight from a local CSV/XLSX file",
				ArgsUsage: " ",
				Flags:     runFlags(),
				Action:    runForecast,
			},
			{
				Name:  "skus",
				Usage: "List the SKUs found in a local CSV/XLSX file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Spreadsheet to read", Required: true},
					&cli.StringFlag{Name: "month", Usage: "Month (YYYY-MM) for rows without one"},
				},
				Action: listSKUs,
			},
			{
				Name:  "import",
				Usage: "Import a local CSV/XLSX file, or a directory of them, into the database",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Spreadsheet to import"},
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Import every spreadsheet under this directory"},
					&cli.IntFlag{Name: "workers", Usage: "Months imported concurrently with --dir", Value: 4},
					&cli.StringFlag{Name: "month", Usage: "Month (YYYY-MM) for rows without one"},
					&cli.StringFlag{Name: "uploaded-by", Usage: "Recorded as the uploader", Value: "cli"},
					&cli.StringFlag{Name: "archive-dir", Usage: "Keep a copy of the raw file under this directory"},
				},
				Action: importFile,
			},
			{
				Name:  "import-drive",
				Usage: "Import every spreadsheet in a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "credentials",
						Usage:   "Service account credentials JSON file",
						EnvVars: []string{"GOOGLE_APPLICATION_CREDENTIALS"},
					},
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder id",
						EnvVars: []string{"DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{Name: "path", Usage: "Drive folder path, used instead of --folder-id"},
				},
				Action: importDrive,
			},
			{
				Name:   "migrate",
				Usage:  "Create the inventory tables if they do not exist",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: migrate,
			},
		},
	}
}

func main() {
	config.Load()

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
