package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
)

// Orchestrator imports a set of local spreadsheets. Files are grouped by the
// month in their name: groups run concurrently, files inside a group run in
// order. Undated files may cover any month, so they run last, one at a time.
type Orchestrator struct {
	uploader Uploader
	cfg      Config
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(uploader Uploader, cfg Config) *Orchestrator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	return &Orchestrator{uploader: uploader, cfg: cfg}
}

// Collect lists the supported spreadsheets under dir, sorted by path.
func Collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := ingest.DetectFormat(d.Name()); err == nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run imports files. Per-file failures are recorded in the summary; only a
// canceled context aborts the run.
func (o *Orchestrator) Run(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{Jobs: make([]*FileJob, 0, len(files))}
	if len(files) == 0 {
		return summary, nil
	}

	// Group files by month
	byMonth := make(map[forecast.Month][]*FileJob)
	var undated []*FileJob
	for _, f := range files {
		job := &FileJob{Path: f, Status: FileStatusQueued}
		summary.Jobs = append(summary.Jobs, job)

		month, ok := ingest.MonthFromFileName(filepath.Base(f))
		if !ok {
			undated = append(undated, job)
			continue
		}
		job.Month = month
		byMonth[month] = append(byMonth[month], job)
	}

	months := make([]forecast.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	groups := make([][]*FileJob, 0, len(months))
	for _, m := range months {
		groups = append(groups, byMonth[m])
	}

	worker := newWorker(o.uploader, o.cfg)
	if err := worker.processGroupsParallel(ctx, groups); err != nil {
		return summary, err
	}
	if err := worker.processGroup(ctx, undated); err != nil {
		return summary, err
	}

	for _, job := range summary.Jobs {
		switch job.Status {
		case FileStatusCompleted:
			summary.Completed++
			summary.TotalRows += job.Result.Rows
		case FileStatusFailed:
			summary.Failed++
		}
	}

	log.Info().
		Int("files", len(files)).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Int("rows", summary.TotalRows).
		Msg("pipeline: import finished")

	return summary, nil
}
