package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

// worker uploads file jobs
type worker struct {
	uploader Uploader
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

func newWorker(uploader Uploader, cfg Config) *worker {
	return &worker{uploader: uploader, cfg: cfg, sleep: sleepContext}
}

// processGroupsParallel runs groups on a pool of cfg.WorkerCount goroutines.
func (w *worker) processGroupsParallel(ctx context.Context, groups [][]*FileJob) error {
	if len(groups) == 0 {
		return nil
	}

	groupChan := make(chan []*FileJob, len(groups))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < w.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range groupChan {
				if err := w.processGroup(ctx, group); err != nil {
					return
				}
			}
		}()
	}

	// Enqueue groups
	for _, group := range groups {
		groupChan <- group
	}
	close(groupChan)

	wg.Wait()
	return ctx.Err()
}

// processGroup imports jobs in order, stopping only when ctx is done.
func (w *worker) processGroup(ctx context.Context, jobs []*FileJob) error {
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processFile(ctx, job)
	}
	return ctx.Err()
}

// processFile processes a single file, retrying failures that are not caused
// by the file's content.
func (w *worker) processFile(ctx context.Context, job *FileJob) {
	startTime := time.Now()
	job.Status = FileStatusProcessing

	data, err := os.ReadFile(job.Path)
	if err != nil {
		w.markJobFailed(job, fmt.Errorf("read failed: %w", err), startTime)
		return
	}

	opts := service.UploadOptions{
		FileName:     filepath.Base(job.Path),
		UploadedBy:   w.cfg.UploadedBy,
		DefaultMonth: job.Month,
	}

	for {
		job.Attempts++
		result, err := w.uploader.Upload(ctx, bytes.NewReader(data), opts)
		if err == nil {
			job.Status = FileStatusCompleted
			job.Result = result
			job.Error = ""
			job.DurationMS = time.Since(startTime).Milliseconds()
			log.Info().Str("file", job.Path).Int("rows", result.Rows).Int("attempts", job.Attempts).Msg("pipeline: file imported")
			return
		}

		if permanent(err) || job.Attempts > w.cfg.RetryAttempts {
			w.markJobFailed(job, err, startTime)
			return
		}

		log.Warn().Err(err).Str("file", job.Path).Int("attempt", job.Attempts).Msg("pipeline: upload failed, will retry")
		if err := w.sleep(ctx, w.cfg.RetryBackoff); err != nil {
			w.markJobFailed(job, err, startTime)
			return
		}
	}
}

func (w *worker) markJobFailed(job *FileJob, err error, startTime time.Time) {
	job.Status = FileStatusFailed
	job.Error = err.Error()
	job.DurationMS = time.Since(startTime).Milliseconds()
	log.Error().Err(err).Str("file", job.Path).Int("attempts", job.Attempts).Msg("pipeline: file failed")
}

// permanent reports errors that another attempt cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ingest.ErrUnsupportedFormat) ||
		errors.Is(err, ingest.ErrHeaderNotFound) ||
		errors.Is(err, ingest.ErrMissingColumn) ||
		errors.Is(err, ingest.ErrNoRows) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
