package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// ArtifactHandler serves bundle artifacts with sniffed content types.
// Artifact files carry hashed names without meaningful extensions, so
// extension-based content-type mapping is useless here.
type ArtifactHandler struct {
	dir string
}

// NewArtifactHandler creates a handler rooted at the artifact dir
func NewArtifactHandler(dir string) *ArtifactHandler {
	return &ArtifactHandler{dir: dir}
}

// Serve handles GET /artifacts/:bundle/*path
func (a *ArtifactHandler) Serve(c *gin.Context) {
	bundleID := c.Param("bundle")
	rel := strings.TrimPrefix(c.Param("path"), "/")

	path := filepath.Join(a.dir, bundleID, filepath.Clean("/"+rel))
	if !strings.HasPrefix(path, filepath.Clean(a.dir)+string(os.PathSeparator)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact path"})
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}

	mtype, err := mimetype.DetectFile(path)
	if err == nil {
		c.Header("Content-Type", mtype.String())
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.File(path)
}
