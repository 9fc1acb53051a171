package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/infrastructure/monitoring"
	"github.com/sitewright/previewd/internal/orchestrator"
	"github.com/sitewright/previewd/internal/shared/id"
	"github.com/sitewright/previewd/internal/types"
)

// Session pairs one orchestrator with its metadata
type Session struct {
	Meta         types.PreviewSession
	Orchestrator *orchestrator.Orchestrator
}

// Manager owns the preview session table
type Manager struct {
	sessions sync.Map
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	ids      *id.Generator
}

// NewManager creates a session manager
func NewManager(logger *zap.Logger, metrics *monitoring.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger,
		metrics: metrics,
		ids:     id.Default(),
	}
}

// Open creates a session around a new orchestrator
func (m *Manager) Open(bundleID string, bundle *types.SiteBundle, conn orchestrator.Conn, cfg orchestrator.Config) (*Session, error) {
	cfg.Metrics = m.metrics

	orch, err := orchestrator.New(bundle, conn, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess := &Session{
		Meta: types.PreviewSession{
			ID:        string(m.ids.NewSessionID()),
			BundleID:  bundleID,
			SiteID:    bundle.Site.ID,
			Engine:    orch.Engine().Engine,
			Origin:    cfg.Origin,
			CreatedAt: time.Now(),
		},
		Orchestrator: orch,
	}

	m.sessions.Store(sess.Meta.ID, sess)
	if m.metrics != nil {
		m.metrics.SessionOpened()
	}
	m.logger.Info("preview session opened",
		zap.String("session_id", sess.Meta.ID),
		zap.String("bundle_id", bundleID),
		zap.String("engine", string(sess.Meta.Engine)),
	)

	return sess, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(sessionID string) (*Session, bool) {
	val, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// List returns all active sessions
func (m *Manager) List() []types.PreviewSession {
	var sessions []types.PreviewSession
	m.sessions.Range(func(_, value interface{}) bool {
		sessions = append(sessions, value.(*Session).Meta)
		return true
	})
	return sessions
}

// Close tears down a session and removes it from the table
func (m *Manager) Close(sessionID string) bool {
	val, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return false
	}

	sess := val.(*Session)
	sess.Orchestrator.Close()
	if m.metrics != nil {
		m.metrics.SessionClosed()
	}
	m.logger.Info("preview session closed", zap.String("session_id", sessionID))
	return true
}

// CloseAll tears down every session, used during shutdown
func (m *Manager) CloseAll() {
	m.sessions.Range(func(key, _ interface{}) bool {
		m.Close(key.(string))
		return true
	})
}

// Stats returns session table statistics
func (m *Manager) Stats() types.Stats {
	stats := types.Stats{ByEngine: make(map[types.Engine]int)}
	m.sessions.Range(func(_, value interface{}) bool {
		sess := value.(*Session)
		stats.TotalSessions++
		stats.ByEngine[sess.Meta.Engine]++
		switch sess.Orchestrator.State().Status {
		case types.StatusReady:
			stats.ReadySessions++
		case types.StatusError:
			stats.ErroredSession++
		}
		return true
	})
	return stats
}
