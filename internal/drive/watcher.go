package drive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Watcher polls a Drive folder and imports spreadsheets that are new or have
// changed since they were last imported.
type Watcher struct {
	importer *Importer
	folderID string
	interval time.Duration

	mu   sync.Mutex
	seen map[string]string // file id -> modified time
}

const defaultPollInterval = 5 * time.Minute

func NewWatcher(importer *Importer, folderID string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		importer: importer,
		folderID: folderID,
		interval: interval,
		seen:     make(map[string]string),
	}
}

// Poll runs one pass. Files that fail are retried on the next pass.
func (w *Watcher) Poll(ctx context.Context) ([]ImportResult, error) {
	files, err := w.importer.List(ctx, w.folderID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	var changed []*File
	for _, f := range files {
		if modified, ok := w.seen[f.ID]; !ok || modified != f.ModifiedTime {
			changed = append(changed, f)
		}
	}
	w.mu.Unlock()

	if len(changed) == 0 {
		return nil, nil
	}

	results, err := w.importer.Import(ctx, changed)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	for _, res := range results {
		if res.Error == "" {
			w.seen[res.File.ID] = res.File.ModifiedTime
		}
	}
	w.mu.Unlock()

	return results, nil
}

// Run polls immediately and then on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		results, err := w.Poll(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("folder_id", w.folderID).Msg("drive: poll failed")
		} else if len(results) > 0 {
			log.Info().Int("files", len(results)).Str("folder_id", w.folderID).Msg("drive: poll imported files")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
