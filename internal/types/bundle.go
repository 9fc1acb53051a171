package types

import "time"

// Engine identifies the preview runtime selected for a bundle
type Engine string

const (
	EngineSimple Engine = "simple"
	EngineVFS    Engine = "vfs"
	EngineWorker Engine = "worker"
)

// SourceKind classifies a page's raw source content
type SourceKind string

const (
	SourceStaticHTML         SourceKind = "static-html"
	SourceTemplate           SourceKind = "template"
	SourceFrameworkComponent SourceKind = "framework-component"
)

// HandlerKind declares where an intent executes
type HandlerKind string

const (
	HandlerClient HandlerKind = "client"
	HandlerEdge   HandlerKind = "edge"
	HandlerBoth   HandlerKind = "both"
)

// SiteBundle is an immutable snapshot of a generated site. It is produced
// by the generation pipeline; previewd only reads it.
type SiteBundle struct {
	Site         SiteMeta              `json:"site" yaml:"site"`
	Build        BuildMeta             `json:"build" yaml:"build"`
	Manifest     Manifest              `json:"manifest" yaml:"manifest"`
	Pages        map[string]PageBundle `json:"pages" yaml:"pages"`
	Intents      IntentCatalog         `json:"intents" yaml:"intents"`
	Entitlements Entitlements          `json:"entitlements" yaml:"entitlements"`
	Runtime      RuntimeHints          `json:"runtime,omitempty" yaml:"runtime,omitempty"`
}

// SiteMeta identifies the site a bundle was generated for
type SiteMeta struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// BuildMeta identifies a single generation run
type BuildMeta struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Generator string    `json:"generator,omitempty" yaml:"generator,omitempty"`
}

// Manifest describes the navigable surface of a bundle
type Manifest struct {
	Routes []Route `json:"routes" yaml:"routes"`
}

// Route maps a path to a page. Exactly one route should be the home
// route; when several are flagged the first one wins.
type Route struct {
	Path   string `json:"path" yaml:"path"`
	PageID string `json:"page_id" yaml:"page_id"`
	IsHome bool   `json:"is_home,omitempty" yaml:"is_home,omitempty"`
}

// HomeRoute returns the first route flagged as home, falling back to the
// first route in manifest order.
func (m Manifest) HomeRoute() (Route, bool) {
	for _, r := range m.Routes {
		if r.IsHome {
			return r, true
		}
	}
	if len(m.Routes) > 0 {
		return m.Routes[0], true
	}
	return Route{}, false
}

// Resolve finds the route for a path
func (m Manifest) Resolve(path string) (Route, bool) {
	for _, r := range m.Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// PageBundle holds one page's source and, when precomputed by the
// pipeline, its renderable output.
type PageBundle struct {
	Source PageSource  `json:"source" yaml:"source"`
	Output *PageOutput `json:"output,omitempty" yaml:"output,omitempty"`
}

// PageSource is the raw content a page was generated from
type PageSource struct {
	Kind    SourceKind `json:"kind" yaml:"kind"`
	Content string     `json:"content" yaml:"content"`
}

// PageOutput is the precomputed render payload for a page
type PageOutput struct {
	HTML      string            `json:"html" yaml:"html"`
	CSS       string            `json:"css,omitempty" yaml:"css,omitempty"`
	JS        string            `json:"js,omitempty" yaml:"js,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// IntentCatalog holds the bundle's declared intents
type IntentCatalog struct {
	Definitions map[string]IntentDefinition `json:"definitions" yaml:"definitions"`
}

// IntentDefinition declares how a named user action executes
type IntentDefinition struct {
	Handler IntentHandler `json:"handler" yaml:"handler"`
}

// IntentHandler declares an intent's execution strategy
type IntentHandler struct {
	Kind         HandlerKind `json:"kind" yaml:"kind"`
	ClientAction string      `json:"client_action,omitempty" yaml:"client_action,omitempty"`
	EdgeFunction string      `json:"edge_function,omitempty" yaml:"edge_function,omitempty"`
}

// Entitlements gates intent execution for the current plan
type Entitlements struct {
	Features map[string]bool `json:"features" yaml:"features"`
	Limits   map[string]int  `json:"limits" yaml:"limits"`
}

// Feature reports whether a feature flag is enabled
func (e Entitlements) Feature(name string) bool {
	return e.Features[name]
}

// Limit returns a numeric cap and whether it is defined
func (e Entitlements) Limit(name string) (int, bool) {
	v, ok := e.Limits[name]
	return v, ok
}

// RuntimeHints carries optional pipeline hints the orchestrator may use
type RuntimeHints struct {
	PreferredEngine Engine `json:"preferred_engine,omitempty" yaml:"preferred_engine,omitempty"`
	HotReload       bool   `json:"hot_reload,omitempty" yaml:"hot_reload,omitempty"`
}
