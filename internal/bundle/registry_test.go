package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewright/previewd/internal/types"
)

func registryBundle(siteID string) *types.SiteBundle {
	return &types.SiteBundle{
		Site:  types.SiteMeta{ID: siteID},
		Build: types.BuildMeta{ID: "build-1"},
		Manifest: types.Manifest{Routes: []types.Route{
			{Path: "/", PageID: "home", IsHome: true},
		}},
		Pages: map[string]types.PageBundle{
			"home": {Source: types.PageSource{Kind: types.SourceStaticHTML, Content: "<h1>Hi</h1>"}},
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	stored, err := registry.Register(registryBundle("site-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := registry.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "site-1", got.Bundle.Site.ID)
	assert.True(t, registry.Exists(stored.ID))
}

func TestRegistryRejectsInvalid(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	bad := registryBundle("site-1")
	bad.Manifest.Routes = nil

	_, err = registry.Register(bad)
	assert.Error(t, err)
}

func TestRegistryGetUnknown(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	_, err = registry.Get("bnd_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryList(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	_, err = registry.Register(registryBundle("site-1"))
	require.NoError(t, err)
	_, err = registry.Register(registryBundle("site-1"))
	require.NoError(t, err)
	_, err = registry.Register(registryBundle("site-2"))
	require.NoError(t, err)

	assert.Len(t, registry.List(nil), 3)

	siteID := "site-1"
	assert.Len(t, registry.List(&siteID), 2)
}

func TestRegistryDelete(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	stored, err := registry.Register(registryBundle("site-1"))
	require.NoError(t, err)

	require.NoError(t, registry.Delete(stored.ID))
	assert.False(t, registry.Exists(stored.ID))
	assert.ErrorIs(t, registry.Delete(stored.ID), ErrNotFound)
}

func TestRegistryPersistence(t *testing.T) {
	dir := t.TempDir()

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	stored, err := registry.Register(registryBundle("site-1"))
	require.NoError(t, err)

	// A fresh registry over the same dir sees the bundle.
	reloaded, err := NewRegistry(dir)
	require.NoError(t, err)

	got, err := reloaded.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "site-1", got.Bundle.Site.ID)
	assert.Equal(t, "home", got.Bundle.Manifest.Routes[0].PageID)
}

func TestRegistrySkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	registry, err := NewRegistry(dir)
	require.NoError(t, err)
	stored, err := registry.Register(registryBundle("site-1"))
	require.NoError(t, err)

	// Not gzip at all.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.bundle.gz"), []byte("garbage"), 0o644))

	reloaded, err := NewRegistry(dir)
	require.NoError(t, err)
	assert.True(t, reloaded.Exists(stored.ID))
	assert.Equal(t, 1, reloaded.Stats().TotalBundles)
}

func TestRegistryStats(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	assert.Equal(t, 0, registry.Stats().TotalBundles)
	assert.Nil(t, registry.Stats().LastUpdated)

	_, err = registry.Register(registryBundle("site-1"))
	require.NoError(t, err)
	_, err = registry.Register(registryBundle("site-2"))
	require.NoError(t, err)

	stats := registry.Stats()
	assert.Equal(t, 2, stats.TotalBundles)
	assert.Equal(t, 1, stats.BySite["site-1"])
	assert.Equal(t, 1, stats.BySite["site-2"])
	require.NotNil(t, stats.LastUpdated)
}
