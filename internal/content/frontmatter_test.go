package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/i18n"
)

func TestParseFrontMatterLocalized(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "yaml",
			data: "---\ntitle:\n  zh: 中文\n  en: English\n---\nbody\n",
		},
		{
			name: "yaml flow mapping",
			data: "---\ntitle: {zh: 中文, en: English}\n---\nbody\n",
		},
		{
			name: "toml",
			data: "+++\n[title]\nzh = \"中文\"\nen = \"English\"\n+++\nbody\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := ParseFrontMatter([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, "body", strings.TrimSpace(string(body)))

			assert.IsType(t, map[string]interface{}{}, fm["title"])

			title := fm.Localized("title", "Untitled Project")
			assert.True(t, title.IsStructured())
			assert.Equal(t, "中文", title.Resolve(i18n.ZH))
			assert.Equal(t, "English", title.Resolve(i18n.EN))
		})
	}
}

func TestParseFrontMatterNestedLists(t *testing.T) {
	fm, _, err := ParseFrontMatter([]byte("---\ntechStack:\n  - Go\n  - templ\n  - 3\nlinks:\n  repo:\n    - a\n---\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "templ", "3"}, fm.Strings("techStack"))
	assert.Equal(t, []string{}, fm.Strings("links"))

	links, ok := asTable(fm["links"])
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a"}, links["repo"])
}

func TestLocalizedAcceptsNamedTable(t *testing.T) {
	fm := FrontMatter{
		"title":   FrontMatter{"zh": "作品", "en": "Work"},
		"summary": map[string]interface{}{"en": "Only English"},
		"empty":   map[string]interface{}{},
		"plain":   "Plain",
	}

	title := fm.Localized("title", "x")
	assert.Equal(t, "作品", title.Resolve(i18n.ZH))
	assert.Equal(t, "Work", title.Resolve(i18n.EN))

	assert.Equal(t, "Only English", fm.Localized("summary", "x").Resolve(i18n.EN))
	assert.Equal(t, "x", fm.Localized("empty", "x").Resolve(i18n.ZH))
	assert.Equal(t, "Plain", fm.Localized("plain", "x").Resolve(i18n.EN))
	assert.Equal(t, "x", fm.Localized("missing", "x").Resolve(i18n.EN))
}

func TestFrontMatterBool(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"false", false},
		{"no", false},
		{"0", false},
		{"yes", true},
		{1, true},
		{0, false},
		{nil, false},
	}

	for _, tt := range tests {
		fm := FrontMatter{"featured": tt.value}
		assert.Equal(t, tt.want, fm.Bool("featured"), "%v", tt.value)
	}
}
