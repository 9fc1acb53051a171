package types

import "time"

// Status represents preview session lifecycle states
type Status string

const (
	StatusLoading      Status = "loading"
	StatusInitializing Status = "initializing"
	StatusReady        Status = "ready"
	StatusError        Status = "error"
)

// ClientState is the mutable per-session orchestration state. It is
// created when the orchestrator is constructed and mutated only by the
// orchestrator itself in response to protocol messages.
type ClientState struct {
	SiteID      string    `json:"site_id"`
	BuildID     string    `json:"build_id"`
	Engine      Engine    `json:"engine"`
	Status      Status    `json:"status"`
	CurrentPage string    `json:"current_page"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PreviewSession is the session manager's view of one active preview
type PreviewSession struct {
	ID        string    `json:"id"`
	BundleID  string    `json:"bundle_id"`
	SiteID    string    `json:"site_id"`
	Engine    Engine    `json:"engine"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats contains session manager statistics
type Stats struct {
	TotalSessions  int            `json:"total_sessions"`
	ReadySessions  int            `json:"ready_sessions"`
	ErroredSession int            `json:"errored_sessions"`
	ByEngine       map[Engine]int `json:"by_engine"`
}

// BundleStats contains bundle registry statistics
type BundleStats struct {
	TotalBundles int            `json:"total_bundles"`
	BySite       map[string]int `json:"by_site"`
	LastUpdated  *time.Time     `json:"last_updated,omitempty"`
}

// StoredBundle wraps a bundle with registry bookkeeping
type StoredBundle struct {
	ID        string     `json:"id"`
	Bundle    SiteBundle `json:"bundle"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
