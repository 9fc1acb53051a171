// Package engine decides which preview runtime a bundle needs.
package engine

import (
	"strings"

	"github.com/sitewright/previewd/internal/types"
)

// Capabilities describes what a selected engine can do
type Capabilities struct {
	MultiPage bool `json:"multi_page"`
	HotReload bool `json:"hot_reload"`
	TSXBuild  bool `json:"tsx_build"`
	Isolation bool `json:"isolation"`
}

// Selection is the engine decision for a bundle
type Selection struct {
	Engine       types.Engine `json:"engine"`
	Reason       string       `json:"reason"`
	Capabilities Capabilities `json:"capabilities"`
}

// moduleTokens mark source that needs a real module bundler rather than
// string interpolation.
var moduleTokens = []string{"import ", "require(", "export "}

// Select maps bundle characteristics to a preview engine. It is pure,
// has no error path, and always returns a decision. First match wins:
// module-level source wins over route count, route count over default.
func Select(bundle *types.SiteBundle) Selection {
	for id, page := range bundle.Pages {
		if page.Source.Kind == types.SourceFrameworkComponent {
			return workerSelection("page " + id + " is a framework component")
		}
		if containsModuleTokens(page.Source.Content) {
			return workerSelection("page " + id + " uses module syntax")
		}
	}

	if len(bundle.Manifest.Routes) > 1 {
		return Selection{
			Engine: types.EngineVFS,
			Reason: "manifest declares multiple routes",
			Capabilities: Capabilities{
				MultiPage: true,
				HotReload: true,
				Isolation: true,
			},
		}
	}

	return Selection{
		Engine: types.EngineSimple,
		Reason: "single static route",
	}
}

func workerSelection(reason string) Selection {
	return Selection{
		Engine: types.EngineWorker,
		Reason: reason,
		Capabilities: Capabilities{
			MultiPage: true,
			HotReload: true,
			TSXBuild:  true,
			Isolation: true,
		},
	}
}

func containsModuleTokens(source string) bool {
	for _, tok := range moduleTokens {
		if strings.Contains(source, tok) {
			return true
		}
	}
	return false
}
