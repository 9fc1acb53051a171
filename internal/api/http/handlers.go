// Package http provides the REST surface of previewd.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitewright/previewd/internal/bundle"
	"github.com/sitewright/previewd/internal/engine"
	"github.com/sitewright/previewd/internal/session"
	"github.com/sitewright/previewd/internal/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *bundle.Registry
	sessions *session.Manager
}

// NewHandlers creates a new handler set
func NewHandlers(registry *bundle.Registry, sessions *session.Manager) *Handlers {
	return &Handlers{
		registry: registry,
		sessions: sessions,
	}
}

// Root returns service identification
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "previewd",
		"status":  "running",
	})
}

// Health returns service health and table sizes
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"bundles":  h.registry.Stats(),
		"sessions": h.sessions.Stats(),
	})
}

// RegisterBundle validates and stores a bundle from the request body
func (h *Handlers) RegisterBundle(c *gin.Context) {
	var b types.SiteBundle
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bundle JSON: " + err.Error()})
		return
	}

	stored, err := h.registry.Register(&b)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bundle_id": stored.ID,
		"site_id":   stored.Bundle.Site.ID,
		"engine":    engine.Select(&stored.Bundle),
	})
}

// ListBundles returns registered bundles, optionally filtered by site
func (h *Handlers) ListBundles(c *gin.Context) {
	var siteID *string
	if s := c.Query("site_id"); s != "" {
		siteID = &s
	}

	bundles := h.registry.List(siteID)
	summaries := make([]gin.H, 0, len(bundles))
	for _, stored := range bundles {
		summaries = append(summaries, gin.H{
			"bundle_id":  stored.ID,
			"site_id":    stored.Bundle.Site.ID,
			"build_id":   stored.Bundle.Build.ID,
			"routes":     len(stored.Bundle.Manifest.Routes),
			"created_at": stored.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"bundles": summaries})
}

// GetBundle returns one stored bundle
func (h *Handlers) GetBundle(c *gin.Context) {
	stored, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bundle not found"})
		return
	}
	c.JSON(http.StatusOK, stored)
}

// DeleteBundle removes a bundle from the registry
func (h *Handlers) DeleteBundle(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bundle not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetEngine returns the engine decision for a bundle without opening
// a session. The builder UI uses this to pick iframe sandbox flags
// before the preview connects.
func (h *Handlers) GetEngine(c *gin.Context) {
	stored, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bundle not found"})
		return
	}
	c.JSON(http.StatusOK, engine.Select(&stored.Bundle))
}

// ListSessions returns active preview sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	if sessions == nil {
		sessions = []types.PreviewSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one session's metadata and live state
func (h *Handlers) GetSession(c *gin.Context) {
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": sess.Meta,
		"state":   sess.Orchestrator.State(),
	})
}

// CloseSession tears down a session from the host side
func (h *Handlers) CloseSession(c *gin.Context) {
	if !h.sessions.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

// NavigateSession drives a session's navigation from the host side,
// the REST twin of an inbound NAV_REQUEST.
func (h *Handlers) NavigateSession(c *gin.Context) {
	sess, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req struct {
		To string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing navigation target"})
		return
	}

	if err := sess.Orchestrator.NavigateTo(req.To); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": sess.Orchestrator.State()})
}
