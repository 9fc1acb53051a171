package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/types"
)

// Fetcher downloads remote artifacts referenced by page outputs into
// the local artifact directory so previews never load cross-origin
// assets from the generation pipeline's temporary storage.
type Fetcher struct {
	client *resty.Client
	dir    string
	logger *zap.Logger
}

// NewFetcher creates a fetcher storing artifacts under dir
func NewFetcher(dir string, timeout time.Duration, logger *zap.Logger) (*Fetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Fetcher{client: client, dir: dir, logger: logger}, nil
}

// Prefetch rewrites every http(s) artifact reference in the bundle to
// a local file it downloads. Failures leave the original reference in
// place; the preview then loads it remotely, which is worse but works.
func (f *Fetcher) Prefetch(bundle *types.SiteBundle) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for pageID, page := range bundle.Pages {
		if page.Output == nil {
			continue
		}
		for name, ref := range page.Output.Artifacts {
			if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
				continue
			}
			local, err := f.fetch(ctx, ref)
			if err != nil {
				f.logger.Warn("artifact prefetch failed",
					zap.String("page_id", pageID),
					zap.String("artifact", name),
					zap.Error(err),
				)
				continue
			}
			page.Output.Artifacts[name] = local
		}
	}
}

// fetch downloads one artifact, keyed by URL hash so repeated seeds
// reuse the same file.
func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:16]) + filepath.Ext(url)
	dest := filepath.Join(f.dir, name)

	if _, err := os.Stat(dest); err == nil {
		return name, nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		os.Remove(dest)
		return "", os.ErrNotExist
	}
	return name, nil
}
