package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitewright/previewd/internal/types"
)

func TestPageFallsBackToSource(t *testing.T) {
	renderer := New(Config{}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Source: types.PageSource{
			Kind:    types.SourceStaticHTML,
			Content: "<h1>Welcome</h1>",
		},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Welcome")
	assert.Empty(t, res.CSS)
	assert.Empty(t, res.JS)
}

func TestPageUsesPrecomputedOutput(t *testing.T) {
	renderer := New(Config{}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Source: types.PageSource{Kind: types.SourceTemplate, Content: "{{ ignored }}"},
		Output: &types.PageOutput{
			HTML:      "<section class=\"hero\">Built</section>",
			CSS:       ".hero { color: red }",
			JS:        "console.log('hi')",
			Artifacts: map[string]string{"logo.png": "sha256-abc"},
		},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Built")
	assert.Contains(t, res.HTML, "hero")
	assert.Equal(t, ".hero { color: red }", res.CSS)
	assert.Equal(t, "console.log('hi')", res.JS)
	assert.Equal(t, "sha256-abc", res.Artifacts["logo.png"])
}

func TestPageSanitizesScripts(t *testing.T) {
	renderer := New(Config{}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Source: types.PageSource{
			Kind:    types.SourceStaticHTML,
			Content: `<p>safe</p><script>alert(1)</script><p onclick="alert(2)">click</p>`,
		},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Contains(t, res.HTML, "safe")
	assert.NotContains(t, res.HTML, "<script>")
	assert.NotContains(t, res.HTML, "onclick")
}

func TestPageKeepsIntentBindings(t *testing.T) {
	renderer := New(Config{}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Source: types.PageSource{
			Kind:    types.SourceStaticHTML,
			Content: `<button data-intent="lead.capture" data-binding="cta-1">Sign up</button>`,
		},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Contains(t, res.HTML, `data-intent="lead.capture"`)
	assert.Contains(t, res.HTML, `data-binding="cta-1"`)
}

func TestPageRewritesRelativeAssets(t *testing.T) {
	renderer := New(Config{ArtifactBase: "/artifacts/bnd_1"}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Output: &types.PageOutput{HTML: `<img src="images/hero.png"><img src="https://cdn.example.com/x.png">`},
		Source: types.PageSource{Kind: types.SourceStaticHTML},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Contains(t, res.HTML, `src="/artifacts/bnd_1/images/hero.png"`)
	// Absolute references stay untouched.
	assert.Contains(t, res.HTML, `src="https://cdn.example.com/x.png"`)
}

func TestPageExtractsTitle(t *testing.T) {
	renderer := New(Config{}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Output: &types.PageOutput{HTML: "<html><head><title> Acme Site </title></head><body><p>x</p></body></html>"},
	}, types.EngineSimple)

	require.NoError(t, err)
	assert.Equal(t, "Acme Site", res.Title)
}

func TestPageValidatesWorkerScripts(t *testing.T) {
	renderer := New(Config{ValidateJS: true}, nil)

	res, err := renderer.Page("home", types.PageBundle{
		Output: &types.PageOutput{
			HTML: "<p>x</p>",
			JS:   "function broken( {",
		},
	}, types.EngineWorker)

	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "does not compile")

	// Other engines skip validation entirely.
	res, err = renderer.Page("home", types.PageBundle{
		Output: &types.PageOutput{HTML: "<p>x</p>", JS: "function broken( {"},
	}, types.EngineSimple)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCheckScript(t *testing.T) {
	assert.Empty(t, CheckScript("home", "const x = 1;"))
	assert.NotEmpty(t, CheckScript("home", "const x = ;"))
}
