package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitewright/previewd/internal/types"
)

func staticBundle(routes ...types.Route) *types.SiteBundle {
	pages := make(map[string]types.PageBundle, len(routes))
	for _, r := range routes {
		pages[r.PageID] = types.PageBundle{
			Source: types.PageSource{
				Kind:    types.SourceStaticHTML,
				Content: "<h1>" + r.PageID + "</h1>",
			},
		}
	}
	return &types.SiteBundle{
		Manifest: types.Manifest{Routes: routes},
		Pages:    pages,
	}
}

func TestSelectSingleRoute(t *testing.T) {
	sel := Select(staticBundle(types.Route{Path: "/", PageID: "home", IsHome: true}))

	assert.Equal(t, types.EngineSimple, sel.Engine)
	assert.Equal(t, Capabilities{}, sel.Capabilities)
}

func TestSelectMultipleRoutes(t *testing.T) {
	sel := Select(staticBundle(
		types.Route{Path: "/", PageID: "home", IsHome: true},
		types.Route{Path: "/about", PageID: "about"},
	))

	assert.Equal(t, types.EngineVFS, sel.Engine)
	assert.True(t, sel.Capabilities.MultiPage)
	assert.True(t, sel.Capabilities.HotReload)
	assert.True(t, sel.Capabilities.Isolation)
	assert.False(t, sel.Capabilities.TSXBuild)
}

func TestSelectFrameworkComponent(t *testing.T) {
	bundle := staticBundle(types.Route{Path: "/", PageID: "home", IsHome: true})
	bundle.Pages["home"] = types.PageBundle{
		Source: types.PageSource{
			Kind:    types.SourceFrameworkComponent,
			Content: "export default function Home() { return null }",
		},
	}

	sel := Select(bundle)

	assert.Equal(t, types.EngineWorker, sel.Engine)
	assert.True(t, sel.Capabilities.TSXBuild)
}

func TestSelectModuleSyntax(t *testing.T) {
	tests := []struct {
		name    string
		content string
		engine  types.Engine
	}{
		{"import statement", "import { render } from 'lib'", types.EngineWorker},
		{"require call", "const lib = require('lib')", types.EngineWorker},
		{"export statement", "export const x = 1", types.EngineWorker},
		{"plain html", "<p>important exports</p>", types.EngineSimple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := staticBundle(types.Route{Path: "/", PageID: "home", IsHome: true})
			bundle.Pages["home"] = types.PageBundle{
				Source: types.PageSource{Kind: types.SourceStaticHTML, Content: tt.content},
			}

			assert.Equal(t, tt.engine, Select(bundle).Engine)
		})
	}
}

// Module-level source must win over route count.
func TestSelectModuleSourceBeatsRouteCount(t *testing.T) {
	bundle := staticBundle(
		types.Route{Path: "/", PageID: "home", IsHome: true},
		types.Route{Path: "/about", PageID: "about"},
	)
	bundle.Pages["about"] = types.PageBundle{
		Source: types.PageSource{Kind: types.SourceTemplate, Content: "import x from 'y'"},
	}

	assert.Equal(t, types.EngineWorker, Select(bundle).Engine)
}
