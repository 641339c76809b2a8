package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the upload archive needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// ArchiveKey builds the object key for a raw upload:
// <prefix>/<yyyy>/<mm>/<batchID>-<file name>. Path separators in the file name
// are dropped.
func ArchiveKey(prefix, batchID, fileName string, at time.Time) string {
	name := strings.TrimSpace(fileName)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" {
		name = "upload"
	}

	return path.Join(
		strings.Trim(prefix, "/"),
		at.UTC().Format("2006"),
		at.UTC().Format("01"),
		batchID+"-"+name,
	)
}
