package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/ingest"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

const (
	defaultDownloadConcurrency = 4
	uploadedBy                 = "drive"
)

// Uploader stores one parsed spreadsheet; service.IngestService satisfies it.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, opts service.UploadOptions) (*domain.UploadResult, error)
}

var _ Uploader = (*service.IngestService)(nil)

// ImportResult is the outcome for one Drive file.
type ImportResult struct {
	File   *File                `json:"file"`
	Result *domain.UploadResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// Importer pulls spreadsheets from a Drive folder into the upload pipeline.
type Importer struct {
	client      Client
	uploader    Uploader
	concurrency int64
}

func NewImporter(client Client, uploader Uploader) *Importer {
	return &Importer{client: client, uploader: uploader, concurrency: defaultDownloadConcurrency}
}

// Spreadsheets keeps the files the ingest parser understands, oldest first so
// later uploads of the same month win.
func Spreadsheets(files []*File) []*File {
	out := make([]*File, 0, len(files))
	for _, f := range files {
		if f == nil || f.MimeType == folderMimeType {
			continue
		}
		if _, err := ingest.DetectFormat(f.Name); err != nil {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ModifiedTime != out[j].ModifiedTime {
			return out[i].ModifiedTime < out[j].ModifiedTime
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// List returns the importable spreadsheets in folderID.
func (i *Importer) List(ctx context.Context, folderID string) ([]*File, error) {
	files, err := i.client.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return Spreadsheets(files), nil
}

// ImportFolder imports every spreadsheet in folderID, or only those whose ids
// are given.
func (i *Importer) ImportFolder(ctx context.Context, folderID string, fileIDs ...string) ([]ImportResult, error) {
	files, err := i.List(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if len(fileIDs) > 0 {
		wanted := make(map[string]bool, len(fileIDs))
		for _, id := range fileIDs {
			wanted[id] = true
		}
		selected := files[:0]
		for _, f := range files {
			if wanted[f.ID] {
				selected = append(selected, f)
			}
		}
		files = selected
	}

	return i.Import(ctx, files)
}

// Import downloads files concurrently, then uploads them one at a time in
// order. A failed file is reported in its result and does not stop the rest.
func (i *Importer) Import(ctx context.Context, files []*File) ([]ImportResult, error) {
	contents := make([][]byte, len(files))
	downloadErrs := make([]error, len(files))

	sem := semaphore.NewWeighted(i.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for idx, f := range files {
		idx, f := idx, f
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			var buf bytes.Buffer
			if err := i.client.DownloadFile(gctx, f.ID, &buf); err != nil {
				downloadErrs[idx] = err
				return nil
			}
			contents[idx] = buf.Bytes()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(files))
	for idx, f := range files {
		res := ImportResult{File: f}
		if err := downloadErrs[idx]; err != nil {
			res.Error = err.Error()
			log.Warn().Err(err).Str("file", f.Name).Msg("drive: download failed")
			results = append(results, res)
			continue
		}

		uploaded, err := i.uploader.Upload(ctx, bytes.NewReader(contents[idx]), service.UploadOptions{
			FileName:   f.Name,
			UploadedBy: uploadedBy,
		})
		if err != nil {
			res.Error = fmt.Sprintf("import %s: %v", f.Name, err)
			log.Warn().Err(err).Str("file", f.Name).Msg("drive: import failed")
		} else {
			res.Result = uploaded
			log.Info().Str("file", f.Name).Int("rows", uploaded.Rows).Msg("drive: file imported")
		}
		results = append(results, res)
	}

	return results, nil
}
