package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewright/previewd/internal/types"
)

const yamlBundle = `
site:
  id: site-1
  name: Acme
build:
  id: build-1
manifest:
  routes:
    - path: /
      page_id: home
      is_home: true
    - path: /about
      page_id: about
pages:
  home:
    source:
      kind: static-html
      content: "<h1>Home</h1>"
  about:
    source:
      kind: static-html
      content: "<h1>About</h1>"
intents:
  definitions:
    lead.capture:
      handler:
        kind: edge
        edge_function: capture-lead
entitlements:
  limits:
    submissionsPerMonth: 100
`

const jsonBundle = `{
  "site": {"id": "site-1"},
  "build": {"id": "build-1"},
  "manifest": {"routes": [{"path": "/", "page_id": "home", "is_home": true}]},
  "pages": {"home": {"source": {"kind": "static-html", "content": "<h1>Home</h1>"}}}
}`

func TestParseYAML(t *testing.T) {
	bundle, err := Parse([]byte(yamlBundle), "site.bundle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "site-1", bundle.Site.ID)
	assert.Len(t, bundle.Manifest.Routes, 2)
	assert.Equal(t, "<h1>Home</h1>", bundle.Pages["home"].Source.Content)
	assert.Equal(t, types.HandlerEdge, bundle.Intents.Definitions["lead.capture"].Handler.Kind)

	limit, ok := bundle.Entitlements.Limit("submissionsPerMonth")
	require.True(t, ok)
	assert.Equal(t, 100, limit)
}

func TestParseJSON(t *testing.T) {
	bundle, err := Parse([]byte(jsonBundle), "site.bundle.json")
	require.NoError(t, err)

	assert.Equal(t, "site-1", bundle.Site.ID)
	home, ok := bundle.Manifest.HomeRoute()
	require.True(t, ok)
	assert.Equal(t, "home", home.PageID)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("{{not yaml"), "broken.bundle.yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("not json"), "broken.bundle.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *types.SiteBundle {
		return &types.SiteBundle{
			Site:  types.SiteMeta{ID: "site-1"},
			Build: types.BuildMeta{ID: "build-1"},
			Manifest: types.Manifest{Routes: []types.Route{
				{Path: "/", PageID: "home", IsHome: true},
			}},
			Pages: map[string]types.PageBundle{
				"home": {Source: types.PageSource{Kind: types.SourceStaticHTML, Content: "x"}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*types.SiteBundle)
		wantErr string
	}{
		{"valid bundle", func(b *types.SiteBundle) {}, ""},
		{"missing site id", func(b *types.SiteBundle) { b.Site.ID = "" }, "site.id"},
		{"missing build id", func(b *types.SiteBundle) { b.Build.ID = "" }, "build.id"},
		{"no routes", func(b *types.SiteBundle) { b.Manifest.Routes = nil }, "no routes"},
		{"empty route path", func(b *types.SiteBundle) { b.Manifest.Routes[0].Path = "" }, "empty path"},
		{
			"duplicate route path",
			func(b *types.SiteBundle) {
				b.Manifest.Routes = append(b.Manifest.Routes, types.Route{Path: "/", PageID: "home"})
			},
			"duplicate route",
		},
		{
			"dangling page reference",
			func(b *types.SiteBundle) { b.Manifest.Routes[0].PageID = "missing" },
			"unknown page",
		},
		{
			"invalid handler kind",
			func(b *types.SiteBundle) {
				b.Intents.Definitions = map[string]types.IntentDefinition{
					"x.y": {Handler: types.IntentHandler{Kind: "serverless"}},
				}
			},
			"invalid handler kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := valid()
			tt.mutate(bundle)

			err := Validate(bundle)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNormalizeHomeRoute(t *testing.T) {
	t.Run("first home claim wins", func(t *testing.T) {
		bundle := &types.SiteBundle{Manifest: types.Manifest{Routes: []types.Route{
			{Path: "/", PageID: "home", IsHome: true},
			{Path: "/about", PageID: "about", IsHome: true},
		}}}

		Normalize(bundle)

		assert.True(t, bundle.Manifest.Routes[0].IsHome)
		assert.False(t, bundle.Manifest.Routes[1].IsHome)
	})

	t.Run("no home claim falls back to first route", func(t *testing.T) {
		bundle := &types.SiteBundle{Manifest: types.Manifest{Routes: []types.Route{
			{Path: "/a", PageID: "a"},
			{Path: "/b", PageID: "b"},
		}}}

		Normalize(bundle)

		assert.True(t, bundle.Manifest.Routes[0].IsHome)
		assert.False(t, bundle.Manifest.Routes[1].IsHome)
	})
}

func TestNormalizeInitializesMaps(t *testing.T) {
	bundle := &types.SiteBundle{Manifest: types.Manifest{Routes: []types.Route{
		{Path: "/", PageID: "home"},
	}}}

	Normalize(bundle)

	assert.NotNil(t, bundle.Entitlements.Features)
	assert.NotNil(t, bundle.Entitlements.Limits)
	assert.NotNil(t, bundle.Intents.Definitions)
}
