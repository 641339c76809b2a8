package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, time.March, 9, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		prefix   string
		file     string
		expected string
	}{
		{"plain", "uploads", "stock.xlsx", "uploads/2025/03/b1-stock.xlsx"},
		{"trims slashes", "/uploads/", "stock.csv", "uploads/2025/03/b1-stock.csv"},
		{"no prefix", "", "stock.csv", "2025/03/b1-stock.csv"},
		{"path in name", "uploads", "../../etc/passwd", "uploads/2025/03/b1-.._.._etc_passwd"},
		{"empty name", "uploads", " ", "uploads/2025/03/b1-upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ArchiveKey(tt.prefix, "b1", tt.file, at))
		})
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{"localhost:9000", false, "localhost:9000", false},
		{"s3.example.com", true, "s3.example.com", true},
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://minio:9000", true, "minio:9000", false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	require.NoError(t, store.UploadObject(ctx, "uploads/2025/03/a.csv", []byte("sku,sales\n")))
	require.NoError(t, store.UploadObject(ctx, "other/b.csv", []byte("x")))

	objects, err := store.ListObjects(ctx, "uploads/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "uploads/2025/03/a.csv", objects[0].Key)
	assert.Equal(t, int64(10), objects[0].Size)

	dest := filepath.Join(t.TempDir(), "copy", "a.csv")
	require.NoError(t, store.DownloadObject(ctx, "uploads/2025/03/a.csv", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "sku,sales\n", string(data))

	t.Run("keys cannot escape the root", func(t *testing.T) {
		require.NoError(t, store.UploadObject(ctx, "../../escape.txt", []byte("x")))
		_, err := os.Stat(filepath.Join(root, "escape.txt"))
		assert.NoError(t, err)
	})

	t.Run("missing object", func(t *testing.T) {
		assert.Error(t, store.DownloadObject(ctx, "nope.csv", filepath.Join(t.TempDir(), "n")))
	})

	t.Run("empty root rejected", func(t *testing.T) {
		_, err := NewLocalStorage("")
		assert.Error(t, err)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("a/b.csv"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", contentType("x.XLSX"))
	assert.Equal(t, "application/octet-stream", contentType("noext"))
}
