package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"

	"github.com/sitewright/previewd/internal/shared/id"
	"github.com/sitewright/previewd/internal/types"
)

// ErrNotFound is returned when a bundle id is unknown
var ErrNotFound = errors.New("bundle not found")

// Registry stores registered bundles in memory with a gzip-compressed
// JSON mirror on disk.
type Registry struct {
	bundles sync.Map
	dir     string
	ids     *id.Generator
}

// NewRegistry creates a registry rooted at dir. An empty dir disables
// persistence and keeps the registry memory-only.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{dir: dir, ids: id.Default()}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bundle dir: %w", err)
		}
		if err := r.loadAll(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates, normalizes and stores a bundle, assigning it an id
func (r *Registry) Register(bundle *types.SiteBundle) (*types.StoredBundle, error) {
	if err := Validate(bundle); err != nil {
		return nil, err
	}
	Normalize(bundle)

	now := time.Now()
	stored := &types.StoredBundle{
		ID:        string(r.ids.NewBundleID()),
		Bundle:    *bundle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.persist(stored); err != nil {
		return nil, err
	}
	r.bundles.Store(stored.ID, stored)
	return stored, nil
}

// Get retrieves a bundle by id
func (r *Registry) Get(bundleID string) (*types.StoredBundle, error) {
	if cached, ok := r.bundles.Load(bundleID); ok {
		return cached.(*types.StoredBundle), nil
	}

	stored, err := r.read(r.path(bundleID))
	if err != nil {
		if os.IsNotExist(err) || r.dir == "" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.bundles.Store(stored.ID, stored)
	return stored, nil
}

// List returns all registered bundles, optionally filtered by site
func (r *Registry) List(siteID *string) []*types.StoredBundle {
	var bundles []*types.StoredBundle
	r.bundles.Range(func(_, value interface{}) bool {
		stored := value.(*types.StoredBundle)
		if siteID == nil || stored.Bundle.Site.ID == *siteID {
			bundles = append(bundles, stored)
		}
		return true
	})
	return bundles
}

// Delete removes a bundle from memory and disk
func (r *Registry) Delete(bundleID string) error {
	if _, ok := r.bundles.LoadAndDelete(bundleID); !ok {
		return ErrNotFound
	}
	if r.dir == "" {
		return nil
	}
	if err := os.Remove(r.path(bundleID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete bundle file: %w", err)
	}
	return nil
}

// Exists checks whether a bundle id is registered
func (r *Registry) Exists(bundleID string) bool {
	_, ok := r.bundles.Load(bundleID)
	return ok
}

// Stats returns registry statistics
func (r *Registry) Stats() types.BundleStats {
	stats := types.BundleStats{BySite: make(map[string]int)}
	r.bundles.Range(func(_, value interface{}) bool {
		stored := value.(*types.StoredBundle)
		stats.TotalBundles++
		stats.BySite[stored.Bundle.Site.ID]++
		if stats.LastUpdated == nil || stored.UpdatedAt.After(*stats.LastUpdated) {
			updated := stored.UpdatedAt
			stats.LastUpdated = &updated
		}
		return true
	})
	return stats
}

func (r *Registry) persist(stored *types.StoredBundle) error {
	if r.dir == "" {
		return nil
	}

	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	f, err := os.Create(r.path(stored.ID))
	if err != nil {
		return fmt.Errorf("failed to create bundle file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to write bundle file: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush bundle file: %w", err)
	}
	return nil
}

func (r *Registry) read(path string) (*types.StoredBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("corrupt bundle file %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle file %s: %w", path, err)
	}

	var stored types.StoredBundle
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle file %s: %w", path, err)
	}
	return &stored, nil
}

func (r *Registry) loadAll() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to scan bundle dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".gz" {
			continue
		}
		stored, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			// A single corrupt file should not block startup.
			continue
		}
		r.bundles.Store(stored.ID, stored)
	}
	return nil
}

func (r *Registry) path(bundleID string) string {
	return filepath.Join(r.dir, bundleID+".bundle.gz")
}
