package bundle

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sitewright/previewd/internal/types"
)

// Parse converts a bundle export file into a validated SiteBundle.
// YAML and JSON are both accepted; JSON is valid YAML but gets the
// faster native decoder when the file extension says so.
func Parse(data []byte, filename string) (*types.SiteBundle, error) {
	var bundle types.SiteBundle

	if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("failed to parse JSON bundle: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("failed to parse YAML bundle: %w", err)
		}
	}

	if err := Validate(&bundle); err != nil {
		return nil, err
	}
	Normalize(&bundle)
	return &bundle, nil
}

// Validate enforces the structural invariants the orchestrator relies
// on: a site id, at least one route, and route/page cross-references
// that resolve.
func Validate(bundle *types.SiteBundle) error {
	if bundle.Site.ID == "" {
		return fmt.Errorf("site.id is required")
	}
	if bundle.Build.ID == "" {
		return fmt.Errorf("build.id is required")
	}
	if len(bundle.Manifest.Routes) == 0 {
		return fmt.Errorf("manifest declares no routes")
	}

	seen := make(map[string]bool, len(bundle.Manifest.Routes))
	for i, route := range bundle.Manifest.Routes {
		if route.Path == "" {
			return fmt.Errorf("route %d has an empty path", i)
		}
		if seen[route.Path] {
			return fmt.Errorf("duplicate route path %q", route.Path)
		}
		seen[route.Path] = true
		if _, ok := bundle.Pages[route.PageID]; !ok {
			return fmt.Errorf("route %q references unknown page %q", route.Path, route.PageID)
		}
	}

	for intentID, def := range bundle.Intents.Definitions {
		switch def.Handler.Kind {
		case types.HandlerClient, types.HandlerEdge, types.HandlerBoth:
		default:
			return fmt.Errorf("intent %q has invalid handler kind %q", intentID, def.Handler.Kind)
		}
	}

	return nil
}

// Normalize settles ambiguities the pipeline occasionally exports:
// when several routes claim home, the first claim wins; when none
// does, the first route becomes home.
func Normalize(bundle *types.SiteBundle) {
	homeSeen := false
	for i := range bundle.Manifest.Routes {
		if bundle.Manifest.Routes[i].IsHome {
			if homeSeen {
				bundle.Manifest.Routes[i].IsHome = false
				continue
			}
			homeSeen = true
		}
	}
	if !homeSeen && len(bundle.Manifest.Routes) > 0 {
		bundle.Manifest.Routes[0].IsHome = true
	}

	if bundle.Entitlements.Features == nil {
		bundle.Entitlements.Features = map[string]bool{}
	}
	if bundle.Entitlements.Limits == nil {
		bundle.Entitlements.Limits = map[string]int{}
	}
	if bundle.Intents.Definitions == nil {
		bundle.Intents.Definitions = map[string]types.IntentDefinition{}
	}
}
