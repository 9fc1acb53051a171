package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewright/previewd/internal/orchestrator"
	"github.com/sitewright/previewd/internal/protocol"
	"github.com/sitewright/previewd/internal/types"
)

type nopConn struct{}

func (nopConn) Send(protocol.Envelope) error { return nil }

func managerBundle() *types.SiteBundle {
	return &types.SiteBundle{
		Site:  types.SiteMeta{ID: "site-1"},
		Build: types.BuildMeta{ID: "build-1"},
		Manifest: types.Manifest{Routes: []types.Route{
			{Path: "/", PageID: "home", IsHome: true},
		}},
		Pages: map[string]types.PageBundle{
			"home": {Source: types.PageSource{Kind: types.SourceStaticHTML, Content: "<h1>Hi</h1>"}},
		},
	}
}

func openConfig() orchestrator.Config {
	return orchestrator.Config{Origin: "http://localhost:3000"}
}

func TestManagerOpenAndGet(t *testing.T) {
	manager := NewManager(nil, nil)

	sess, err := manager.Open("bnd_1", managerBundle(), nopConn{}, openConfig())
	require.NoError(t, err)
	t.Cleanup(manager.CloseAll)

	assert.True(t, strings.HasPrefix(sess.Meta.ID, "sess_"))
	assert.Equal(t, "bnd_1", sess.Meta.BundleID)
	assert.Equal(t, "site-1", sess.Meta.SiteID)
	assert.Equal(t, types.EngineSimple, sess.Meta.Engine)

	got, ok := manager.Get(sess.Meta.ID)
	require.True(t, ok)
	assert.Equal(t, sess.Meta.ID, got.Meta.ID)
}

func TestManagerOpenRejectsBadConfig(t *testing.T) {
	manager := NewManager(nil, nil)

	_, err := manager.Open("bnd_1", managerBundle(), nopConn{}, orchestrator.Config{})
	assert.Error(t, err)
	assert.Empty(t, manager.List())
}

func TestManagerClose(t *testing.T) {
	manager := NewManager(nil, nil)

	sess, err := manager.Open("bnd_1", managerBundle(), nopConn{}, openConfig())
	require.NoError(t, err)

	assert.True(t, manager.Close(sess.Meta.ID))
	_, ok := manager.Get(sess.Meta.ID)
	assert.False(t, ok)

	// Closing again is a miss, not an error.
	assert.False(t, manager.Close(sess.Meta.ID))
}

func TestManagerCloseAll(t *testing.T) {
	manager := NewManager(nil, nil)

	for i := 0; i < 3; i++ {
		_, err := manager.Open("bnd_1", managerBundle(), nopConn{}, openConfig())
		require.NoError(t, err)
	}
	require.Len(t, manager.List(), 3)

	manager.CloseAll()
	assert.Empty(t, manager.List())
}

func TestManagerStats(t *testing.T) {
	manager := NewManager(nil, nil)
	t.Cleanup(manager.CloseAll)

	sess, err := manager.Open("bnd_1", managerBundle(), nopConn{}, openConfig())
	require.NoError(t, err)
	_, err = manager.Open("bnd_2", managerBundle(), nopConn{}, openConfig())
	require.NoError(t, err)

	require.NoError(t, sess.Orchestrator.Initialize())

	stats := manager.Stats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 0, stats.ReadySessions)
	assert.Equal(t, 2, stats.ByEngine[types.EngineSimple])
}
