package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/bundle"
	"github.com/sitewright/previewd/internal/intent"
	"github.com/sitewright/previewd/internal/orchestrator"
	"github.com/sitewright/previewd/internal/protocol"
	"github.com/sitewright/previewd/internal/render"
	"github.com/sitewright/previewd/internal/session"
)

// Config configures the websocket handler
type Config struct {
	// AllowedOrigin is the exact origin preview clients must present
	AllowedOrigin string
	// IntentTimeout bounds each intent execution
	IntentTimeout time.Duration
	// EdgeInvoker enables real edge calls, optional
	EdgeInvoker *intent.EdgeInvoker
	// ArtifactBase is the URL prefix pages' asset references are
	// rewritten onto; the bundle id is appended per session
	ArtifactBase string
	// ValidateJS enables compile-only JS validation for worker bundles
	ValidateJS bool
}

// Handler manages preview websocket connections
type Handler struct {
	registry *bundle.Registry
	sessions *session.Manager
	cfg      Config
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler
func NewHandler(registry *bundle.Registry, sessions *session.Manager, cfg Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		registry: registry,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == cfg.AllowedOrigin
		},
	}
	return h
}

// HandleConnection upgrades the request and runs one preview session
// until the socket closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	bundleID := c.Param("id")
	stored, err := h.registry.Get(bundleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bundle not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	origin := c.Request.Header.Get("Origin")
	transport := &wsConn{conn: conn}

	sess, err := h.sessions.Open(bundleID, &stored.Bundle, transport, orchestrator.Config{
		Origin:        origin,
		IntentTimeout: h.cfg.IntentTimeout,
		EdgeInvoker:   h.cfg.EdgeInvoker,
		Renderer: render.New(render.Config{
			ArtifactBase: h.cfg.ArtifactBase + "/" + bundleID,
			ValidateJS:   h.cfg.ValidateJS,
		}, h.logger),
		Logger: h.logger,
	})
	if err != nil {
		h.logger.Warn("failed to open session",
			zap.String("bundle_id", bundleID),
			zap.Error(err),
		)
		return
	}
	defer h.sessions.Close(sess.Meta.ID)

	if err := sess.Orchestrator.Initialize(); err != nil {
		h.logger.Warn("session initialization failed",
			zap.String("session_id", sess.Meta.ID),
			zap.Error(err),
		)
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error",
					zap.String("session_id", sess.Meta.ID),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		sess.Orchestrator.HandleMessage(origin, data)
	}
}

// wsConn adapts a gorilla connection to the orchestrator's Conn.
// gorilla allows one concurrent writer, and intent results arrive from
// worker goroutines, so writes are serialized here.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) Send(env protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}
