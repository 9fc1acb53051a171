package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// seedPattern matches bundle export files anywhere under the seed dir
const seedPattern = "**/*.bundle.{yaml,yml,json}"

// Seeder loads bundle export files from a directory at startup
type Seeder struct {
	registry *Registry
	dir      string
	fetcher  *Fetcher
	logger   *zap.Logger
}

// NewSeeder creates a seeder for the given export directory. The
// fetcher is optional; without it remote artifacts stay remote.
func NewSeeder(registry *Registry, dir string, fetcher *Fetcher, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		registry: registry,
		dir:      dir,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Seed walks the export directory and registers every bundle file it
// can parse. Files that fail to parse are logged and skipped; an
// absent directory is not an error.
func (s *Seeder) Seed() error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Info("bundle export dir not found, skipping seed", zap.String("dir", s.dir))
		return nil
	}

	var loaded, failed int

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		match, err := doublestar.Match(seedPattern, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if !match {
			return nil
		}

		if err := s.load(path); err != nil {
			s.logger.Warn("failed to seed bundle", zap.String("file", rel), zap.Error(err))
			failed++
		} else {
			loaded++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk bundle export dir: %w", err)
	}

	s.logger.Info("bundle seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return nil
}

func (s *Seeder) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	parsed, err := Parse(data, path)
	if err != nil {
		return err
	}

	if s.fetcher != nil {
		s.fetcher.Prefetch(parsed)
	}

	stored, err := s.registry.Register(parsed)
	if err != nil {
		return err
	}
	s.logger.Debug("seeded bundle",
		zap.String("bundle_id", stored.ID),
		zap.String("site_id", parsed.Site.ID),
	)
	return nil
}
