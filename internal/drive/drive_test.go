package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-insight/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-insight/backend-go/internal/service"
)

type fakeClient struct {
	files       []*File
	contents    map[string]string
	listErr     error
	downloadErr map[string]error
}

func (f *fakeClient) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeClient) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	if err := f.downloadErr[fileID]; err != nil {
		return err
	}
	_, err := io.WriteString(w, f.contents[fileID])
	return err
}

type fakeUploader struct {
	mu      sync.Mutex
	names   []string
	bodies  []string
	failFor map[string]bool
}

func (f *fakeUploader) Upload(ctx context.Context, r io.Reader, opts service.UploadOptions) (*domain.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[opts.FileName] {
		return nil, errors.New("parse failed")
	}
	f.names = append(f.names, opts.FileName)
	f.bodies = append(f.bodies, string(data))
	return &domain.UploadResult{FileName: opts.FileName, Rows: strings.Count(string(data), "\n")}, nil
}

func newFixture() (*fakeClient, *fakeUploader) {
	client := &fakeClient{
		files: []*File{
			{ID: "3", Name: "march.xlsx", ModifiedTime: "2025-03-05T00:00:00Z"},
			{ID: "1", Name: "january.csv", ModifiedTime: "2025-01-05T00:00:00Z"},
			{ID: "f", Name: "archive", MimeType: folderMimeType},
			{ID: "n", Name: "notes.pdf", ModifiedTime: "2025-01-01T00:00:00Z"},
			{ID: "2", Name: "february.csv", ModifiedTime: "2025-02-05T00:00:00Z"},
		},
		contents: map[string]string{
			"1": "sku,sales\nA,1\n",
			"2": "sku,sales\nA,2\nB,3\n",
			"3": "xlsx-bytes\n",
		},
		downloadErr: map[string]error{},
	}
	return client, &fakeUploader{failFor: map[string]bool{}}
}

func TestSpreadsheets(t *testing.T) {
	client, _ := newFixture()
	files := Spreadsheets(client.files)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"january.csv", "february.csv", "march.xlsx"}, names)
}

func TestImporter_ImportFolder(t *testing.T) {
	client, uploader := newFixture()
	client.downloadErr["2"] = errors.New("quota exceeded")
	uploader.failFor["march.xlsx"] = true

	results, err := NewImporter(client, uploader).ImportFolder(context.Background(), "folder")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "january.csv", results[0].File.Name)
	require.NotNil(t, results[0].Result)
	assert.Empty(t, results[0].Error)

	assert.Nil(t, results[1].Result)
	assert.Contains(t, results[1].Error, "quota exceeded")

	assert.Nil(t, results[2].Result)
	assert.Contains(t, results[2].Error, "parse failed")

	assert.Equal(t, []string{"january.csv"}, uploader.names)
	assert.Equal(t, []string{"sku,sales\nA,1\n"}, uploader.bodies)
}

func TestImporter_ImportFolderSelectedIDs(t *testing.T) {
	client, uploader := newFixture()

	results, err := NewImporter(client, uploader).ImportFolder(context.Background(), "folder", "2", "missing")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "february.csv", results[0].File.Name)
	assert.Equal(t, 3, results[0].Result.Rows)
}

func TestImporter_ListError(t *testing.T) {
	client, uploader := newFixture()
	client.listErr = errors.New("forbidden")

	_, err := NewImporter(client, uploader).ImportFolder(context.Background(), "folder")
	assert.EqualError(t, err, "forbidden")
}

func TestImporter_CanceledContext(t *testing.T) {
	client, uploader := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(client, uploader).Import(ctx, Spreadsheets(client.files))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, uploader.names)
}

func TestWatcher_Poll(t *testing.T) {
	client, uploader := newFixture()
	uploader.failFor["march.xlsx"] = true
	w := NewWatcher(NewImporter(client, uploader), "folder", 0)
	ctx := context.Background()

	results, err := w.Poll(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Only the failed file is retried.
	uploader.failFor["march.xlsx"] = false
	results, err = w.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "march.xlsx", results[0].File.Name)

	results, err = w.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	client.files[1].ModifiedTime = "2025-04-01T00:00:00Z"
	results, err = w.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "january.csv", results[0].File.Name)
}

type fakeFolders struct{}

func (fakeFolders) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "reports/monthly" {
		return "resolved", nil
	}
	return "", errors.New("folder not found: " + path)
}

func newTestRouter(client *fakeClient, uploader *fakeUploader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(NewImporter(client, uploader), fakeFolders{}, "default").RegisterRoutes(router.Group("/drive"))
	return router
}

func serve(router *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandler(t *testing.T) {
	client, uploader := newFixture()
	router := newTestRouter(client, uploader)

	w, body := serve(router, http.MethodGet, "/drive/files")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "default", body["folder_id"])
	assert.Len(t, body["files"], 3)

	w, body = serve(router, http.MethodGet, "/drive/files?path=reports/monthly")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", body["folder_id"])

	w, _ = serve(router, http.MethodGet, "/drive/files?path=nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = serve(router, http.MethodPost, "/drive/import?fileId=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["imported"])
	assert.Equal(t, 0.0, body["failed"])

	w, _ = serve(router, http.MethodPost, "/drive/import?fileId=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	client.listErr = errors.New("forbidden")
	w, _ = serve(router, http.MethodPost, "/drive/import")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `Bob\'s \\ stock`, escapeQuery(`Bob's \ stock`))
}
