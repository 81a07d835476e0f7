package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := New(DefaultOptions())

	tests := []struct {
		name     string
		body     string
		contains []string
	}{
		{
			name:     "heading ids",
			body:     "## Getting Started\n\ntext",
			contains: []string{`<h2 id="getting-started">Getting Started</h2>`, "<p>text</p>"},
		},
		{
			name:     "gfm table",
			body:     "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "gfm strikethrough",
			body:     "~~old~~",
			contains: []string{"<del>old</del>"},
		},
		{
			name:     "raw html passes through",
			body:     "<Callout type=\"info\">note</Callout>\n",
			contains: []string{`<Callout type="info">note</Callout>`},
		},
		{
			name:     "empty body",
			body:     "",
			contains: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.body)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRenderSafeMode(t *testing.T) {
	r := New(Options{})
	out, err := r.Render("<script>alert(1)</script>\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestRenderHardWraps(t *testing.T) {
	r := New(Options{HardWraps: true})
	out, err := r.Render("one\ntwo")
	require.NoError(t, err)
	assert.Contains(t, out, "<br>")
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		max  int
		want string
	}{
		{name: "collapses whitespace", html: "<p>Hello\n  <em>world</em></p>", want: "Hello world"},
		{name: "skips scripts and styles", html: "<p>a</p><script>x()</script><style>p{}</style><p>b</p>", want: "a b"},
		{name: "no limit", html: "<p>one two three</p>", max: 0, want: "one two three"},
		{name: "under limit", html: "<p>short</p>", max: 10, want: "short"},
		{name: "cut on word boundary", html: "<p>alpha beta gamma delta</p>", max: 13, want: "alpha beta…"},
		{name: "cut runes", html: "<p>你好世界你好世界</p>", max: 4, want: "你好世界…"},
		{name: "entities decoded", html: "<p>a &amp; b</p>", want: "a & b"},
		{name: "empty", html: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.html, tt.max))
		})
	}
}

func TestHeadings(t *testing.T) {
	r := New(DefaultOptions())
	out, err := r.Render("# Title\n\n## Setup\n\n### Install *deps*\n\n## Usage\n")
	require.NoError(t, err)

	assert.Equal(t, []Heading{
		{Level: 2, ID: "setup", Text: "Setup"},
		{Level: 3, ID: "install-deps", Text: "Install deps"},
		{Level: 2, ID: "usage", Text: "Usage"},
	}, Headings(out))

	assert.Empty(t, Headings("<p>none</p>"))
}
