package drive

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// FolderFinder resolves a slash-separated folder path to a folder id.
type FolderFinder interface {
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Handler struct {
	importer        *Importer
	folders         FolderFinder
	defaultFolderID string
}

// NewHandler serves Drive listing and import. folders may be nil, in which
// case ?path= lookups are rejected.
func NewHandler(importer *Importer, folders FolderFinder, defaultFolderID string) *Handler {
	return &Handler{importer: importer, folders: folders, defaultFolderID: defaultFolderID}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/files", h.ListFiles)
	group.POST("/import", h.Import)
}

func (h *Handler) folderID(c *gin.Context) (string, bool) {
	if path := strings.TrimSpace(c.Query("path")); path != "" {
		if h.folders == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "folder paths are not supported"})
			return "", false
		}
		id, err := h.folders.FindFolderByPath(c.Request.Context(), path)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found", "details": err.Error()})
			return "", false
		}
		return id, true
	}
	if id := strings.TrimSpace(c.Query("folderId")); id != "" {
		return id, true
	}
	return h.defaultFolderID, true
}

// ListFiles returns the importable spreadsheets of a folder.
func (h *Handler) ListFiles(c *gin.Context) {
	folderID, ok := h.folderID(c)
	if !ok {
		return
	}

	files, err := h.importer.List(c.Request.Context(), folderID)
	if err != nil {
		log.Error().Err(err).Str("folder_id", folderID).Msg("drive: list failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to list drive files", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"folder_id": folderID, "files": files})
}

// Import imports the folder, or only ?fileId= when given.
func (h *Handler) Import(c *gin.Context) {
	folderID, ok := h.folderID(c)
	if !ok {
		return
	}

	var ids []string
	if id := strings.TrimSpace(c.Query("fileId")); id != "" {
		ids = append(ids, id)
	}

	results, err := h.importer.ImportFolder(c.Request.Context(), folderID, ids...)
	if err != nil {
		log.Error().Err(err).Str("folder_id", folderID).Msg("drive: import failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to import drive files", "details": err.Error()})
		return
	}
	if len(ids) > 0 && len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found in folder"})
		return
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"folder_id": folderID,
		"imported":  len(results) - failed,
		"failed":    failed,
		"results":   results,
	})
}
