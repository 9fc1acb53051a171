// Package render produces the payload committed to the preview on
// navigation: sanitized HTML with asset references rewritten onto the
// artifact routes, plus the page's CSS and JS.
package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/types"
)

// Result is a rendered page ready to commit
type Result struct {
	HTML      string
	CSS       string
	JS        string
	Artifacts map[string]string
	Title     string
	Warnings  []string
}

// Config configures a Renderer
type Config struct {
	// ArtifactBase is the URL prefix relative asset references are
	// rewritten onto, e.g. "/artifacts/bnd_01ABC".
	ArtifactBase string
	// ValidateJS enables compile-only JS validation for worker bundles
	ValidateJS bool
}

// Renderer turns page bundles into commit payloads
type Renderer struct {
	cfg       Config
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// New creates a renderer. The sanitizer starts from the UGC policy and
// re-admits the structural and styling markup generated sites rely on.
func New(cfg Config, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("section", "header", "footer", "nav", "main", "aside", "figure", "figcaption", "button", "form", "input", "label", "select", "option", "textarea", "svg", "path", "style")
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowAttrs("style").Globally()
	policy.AllowAttrs("type", "name", "placeholder", "value", "required").OnElements("input", "select", "textarea", "button")
	policy.AllowAttrs("action", "method").OnElements("form")
	policy.AllowAttrs("data-intent", "data-binding").Globally()
	policy.AllowDataURIImages()

	return &Renderer{cfg: cfg, sanitizer: policy, logger: logger}
}

// Page renders one page bundle. Pages without precomputed output fall
// back to their raw source content, which covers static-html bundles
// where the pipeline skips the output step.
func (r *Renderer) Page(pageID string, page types.PageBundle, engine types.Engine) (Result, error) {
	out := page.Output
	if out == nil {
		out = &types.PageOutput{HTML: page.Source.Content}
	}

	res := Result{
		CSS:       out.CSS,
		JS:        out.JS,
		Artifacts: out.Artifacts,
	}

	html, title, err := r.rewrite(out.HTML)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render page %q: %w", pageID, err)
	}
	res.HTML = r.sanitizer.Sanitize(html)
	res.Title = title

	if r.cfg.ValidateJS && engine == types.EngineWorker && strings.TrimSpace(out.JS) != "" {
		if warn := CheckScript(pageID, out.JS); warn != "" {
			r.logger.Warn("page script failed validation",
				zap.String("page_id", pageID),
				zap.String("warning", warn),
			)
			res.Warnings = append(res.Warnings, warn)
		}
	}

	return res, nil
}

// rewrite points relative src/href attributes at the artifact routes
// and pulls the page title while the document is parsed anyway.
func (r *Renderer) rewrite(html string) (string, string, error) {
	if r.cfg.ArtifactBase == "" {
		return html, extractTitle(html), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("invalid page HTML: %w", err)
	}

	rewriteAttr(doc, "img, script, source, video, audio", "src", r.cfg.ArtifactBase)
	rewriteAttr(doc, "link", "href", r.cfg.ArtifactBase)

	title := strings.TrimSpace(doc.Find("title").First().Text())

	out, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(out) == "" {
		// Fragment input has no body wrapper worth preserving.
		out, err = doc.Html()
		if err != nil {
			return "", "", fmt.Errorf("failed to serialize page HTML: %w", err)
		}
	}
	return out, title, nil
}

func rewriteAttr(doc *goquery.Document, selector, attr, base string) {
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		val, ok := s.Attr(attr)
		if !ok || val == "" {
			return
		}
		if strings.Contains(val, "://") || strings.HasPrefix(val, "//") || strings.HasPrefix(val, "data:") || strings.HasPrefix(val, "#") {
			return
		}
		s.SetAttr(attr, strings.TrimSuffix(base, "/")+"/"+strings.TrimPrefix(val, "/"))
	})
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
