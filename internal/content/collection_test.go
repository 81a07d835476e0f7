package content

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/testutils"
)

const projectA = `---
title: Test Project
date: 2025-01-15
category: Web App
techStack:
  - React
  - TypeScript
description: A test project description
coverImage: /images/test.jpg
githubUrl: https://github.com/test/project
featured: true
---

# Project Content
`

const projectB = `---
title: Second Project
date: 2025-01-10
category: AI/ML
description: Another test project
featured: false
---
Body B
`

const projectC = `---
title: Third Project
date: 2025-01-12
category: Web App
description: Third project description
featured: true
---
Body C
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	testutils.WriteFiles(t, dir, files)
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newProjects(t *testing.T, files map[string]string, opts ...Option) *Collection[*Project] {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "projects")
	writeFiles(t, dir, files)
	return New(ProjectSchema(), dir, append([]Option{WithClock(fixedClock)}, opts...)...)
}

func titles(projects []*Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = i18n.Text(p.Title)
	}
	return out
}

func TestListSortsByDateDescending(t *testing.T) {
	c := newProjects(t, map[string]string{
		"project1.mdx": projectA,
		"project2.mdx": projectB,
		"project3.mdx": projectC,
	})

	projects := c.List(context.Background())

	assert.Equal(t, []string{"Test Project", "Third Project", "Second Project"}, titles(projects))
	assert.Equal(t, []string{"React", "TypeScript"}, projects[0].TechStack)
	assert.Equal(t, "https://github.com/test/project", projects[0].GitHubURL)
	assert.Contains(t, projects[0].Content, "# Project Content")
}

func TestListIgnoresOtherExtensions(t *testing.T) {
	c := newProjects(t, map[string]string{
		"project1.mdx": projectA,
		"readme.md":    projectB,
		"notes.txt":    "hello",
	})
	require.NoError(t, os.Mkdir(filepath.Join(c.Dir(), "nested.mdx"), 0o755))

	assert.Len(t, c.List(context.Background()), 1)
}

func TestListSkipsMalformedFiles(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Output: &buf})

	c := newProjects(t, map[string]string{
		"project1.mdx": projectA,
		"broken.mdx":   "---\ntitle: [unclosed\n---\nbody\n",
	}, WithLogger(logger))

	projects := c.List(context.Background())

	require.Len(t, projects, 1)
	assert.Equal(t, "Test Project", i18n.Text(projects[0].Title))
	assert.Contains(t, buf.String(), "broken.mdx")
	assert.Contains(t, buf.String(), "failed to parse record")
}

func TestListMissingDirectory(t *testing.T) {
	c := New(ProjectSchema(), filepath.Join(t.TempDir(), "absent"))

	assert.Empty(t, c.List(context.Background()))
	assert.NotNil(t, c.List(context.Background()))
	assert.Empty(t, c.Categories(context.Background()))

	_, ok := c.Get(context.Background(), "anything")
	assert.False(t, ok)
}

func TestMissingFieldsUseDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelWarn, Output: &buf})

	c := newProjects(t, map[string]string{"bare.mdx": "---\nfeatured: yes\n---\nJust a body\n"}, WithLogger(logger))

	projects := c.List(context.Background())
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, "bare", p.ID)
	assert.Equal(t, "Untitled Project", i18n.Text(p.Title))
	assert.Equal(t, "", i18n.Text(p.Description))
	assert.Equal(t, "Other", p.Category)
	assert.Equal(t, "2025-06-01", p.Date)
	assert.Equal(t, []string{}, p.TechStack)
	assert.Equal(t, "/images/placeholder-project.svg", p.CoverImage)
	assert.True(t, p.Featured)
	assert.Contains(t, buf.String(), "missing required fields")
	assert.Contains(t, buf.String(), "title, date, category, description")
}

func TestFileWithoutFrontMatter(t *testing.T) {
	c := newProjects(t, map[string]string{"plain.mdx": "# Only markdown\n"})

	projects := c.List(context.Background())
	require.Len(t, projects, 1)
	assert.Equal(t, "# Only markdown\n", projects[0].Content)
	assert.Equal(t, "Untitled Project", i18n.Text(projects[0].Title))
}

func TestBilingualFields(t *testing.T) {
	c := newProjects(t, map[string]string{"bi.mdx": `---
title:
  zh: 中文标题
  en: English Title
description:
  zh: 只有中文
date: 2025-01-01
category: Tool
---
`})

	p, ok := c.Get(context.Background(), "bi")
	require.True(t, ok)
	assert.Equal(t, "中文标题", p.Title.Resolve(i18n.ZH))
	assert.Equal(t, "English Title", p.Title.Resolve(i18n.EN))
	assert.Equal(t, "只有中文", p.Description.Resolve(i18n.EN))
}

func TestTOMLFrontMatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "learnings")
	writeFiles(t, dir, map[string]string{"docker.md": `+++
topic = "Docker basics"
category = "DevOps"
summary = { zh = "容器", en = "Containers" }
date = 2024-05-02
details = ["images", "volumes"]
+++
Body
`})
	c := New(LearningSchema(), dir)

	l, ok := c.Get(context.Background(), "docker")
	require.True(t, ok)
	assert.Equal(t, "Docker basics", i18n.Text(l.Topic))
	assert.Equal(t, "Containers", l.Summary.Resolve(i18n.EN))
	assert.Equal(t, "2024-05-02", l.Date)
	assert.Equal(t, []string{"images", "volumes"}, l.Details)
}

func TestIdentityOverride(t *testing.T) {
	c := newProjects(t, map[string]string{
		"file-name.mdx": "---\ntitle: Renamed\nslug: custom-slug\ndate: 2025-01-01\n---\n",
		"unsafe.mdx":    "---\ntitle: Unsafe\nslug: ../escape\ndate: 2025-01-02\n---\n",
	})

	assert.Equal(t, []string{"unsafe", "custom-slug"}, c.IDs(context.Background()))

	p, ok := c.Get(context.Background(), "custom-slug")
	require.True(t, ok)
	assert.Equal(t, "Renamed", i18n.Text(p.Title))

	// The direct file wins even though its front-matter renames it.
	p, ok = c.Get(context.Background(), "file-name")
	require.True(t, ok)
	assert.Equal(t, "custom-slug", p.ID)
}

func TestDuplicateIdentityFirstWins(t *testing.T) {
	diags := errors.NewDiagnostics()
	c := newProjects(t, map[string]string{
		"a.mdx": "---\ntitle: First\nslug: same\ndate: 2024-01-01\ncategory: Tool\ndescription: x\n---\n",
		"b.mdx": "---\ntitle: Second\nslug: same\ndate: 2025-01-01\ncategory: Tool\ndescription: y\n---\n",
	}, WithDiagnostics(diags))

	projects := c.List(context.Background())
	require.Len(t, projects, 1)
	assert.Equal(t, "First", i18n.Text(projects[0].Title))

	assert.True(t, diags.HasErrors())
	require.Len(t, diags.ByFile(filepath.Join(c.Dir(), "b.mdx")), 1)
}

func TestGetPrefersDirectFileOverDuplicateWinner(t *testing.T) {
	c := newProjects(t, map[string]string{
		"a.mdx":    "---\ntitle: Winner\nslug: same\ndate: 2024-01-01\n---\n",
		"same.mdx": "---\ntitle: Direct\ndate: 2025-01-01\n---\n",
	})
	ctx := context.Background()

	assert.Equal(t, []string{"same"}, c.IDs(ctx))
	assert.Equal(t, []string{"Winner"}, titles(c.List(ctx)))

	p, ok := c.Get(ctx, "same")
	require.True(t, ok)
	assert.Equal(t, "Direct", i18n.Text(p.Title))
}

func TestGet(t *testing.T) {
	c := newProjects(t, map[string]string{
		"project1.mdx": projectA,
		"broken.mdx":   "---\ntitle: [unclosed\n---\n",
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		id     string
		wantOK bool
	}{
		{"by filename", "project1", true},
		{"unknown", "missing", false},
		{"malformed direct file", "broken", false},
		{"traversal", "../project1", false},
		{"separator", "a/b", false},
		{"empty", "", false},
		{"hidden", ".project1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := c.Get(ctx, tt.id)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, p)
			}
		})
	}
}

func TestQueries(t *testing.T) {
	c := newProjects(t, map[string]string{
		"project1.mdx": projectA,
		"project2.mdx": projectB,
		"project3.mdx": projectC,
	})
	ctx := context.Background()

	assert.Equal(t, []string{"Test Project", "Third Project"}, titles(c.Featured(ctx, 6)))
	assert.Equal(t, []string{"Test Project"}, titles(c.Featured(ctx, 1)))
	assert.Empty(t, c.Featured(ctx, 0))
	assert.Equal(t, []string{"Test Project", "Third Project"}, titles(c.ByCategory(ctx, "Web App")))
	assert.Empty(t, c.ByCategory(ctx, "web app"))
	assert.Equal(t, []string{"AI/ML", "Web App"}, c.Categories(ctx))
	assert.Equal(t, []string{"project1", "project3", "project2"}, c.IDs(ctx))
	assert.Equal(t, []string{"Test Project", "Third Project"}, titles(c.Recent(ctx, 2)))
	assert.Len(t, c.Recent(ctx, 10), 3)

	records := c.Records(ctx)
	require.Len(t, records, 3)
	assert.Equal(t, "project1", records[0].Metadata().ID)

	r, ok := c.Record(ctx, "project2")
	require.True(t, ok)
	assert.Equal(t, "Second Project", i18n.Text(Heading(r)))
	assert.Equal(t, "Another test project", i18n.Text(Summary(r)))

	_, ok = c.Record(ctx, "nope")
	assert.False(t, ok)
}

func TestInvalidDatesSortLast(t *testing.T) {
	c := newProjects(t, map[string]string{
		"a.mdx": "---\ntitle: Undated A\ndate: someday\n---\n",
		"b.mdx": "---\ntitle: Old\ndate: 2020-01-01\n---\n",
		"c.mdx": "---\ntitle: Undated C\ndate: later\n---\n",
		"d.mdx": "---\ntitle: New\ndate: 2024-01-01T10:00:00Z\n---\n",
	})

	assert.Equal(t, []string{"New", "Old", "Undated A", "Undated C"}, titles(c.List(context.Background())))
}

func TestLearningsAndPodcasts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "learnings"), map[string]string{
		"k8s.md": "---\ntopic: Kubernetes\nid: kube\ncategory: DevOps\nsummary: Pods\ndate: 2024-02-01\nicon: ship\nlink: https://kubernetes.io\n---\n",
	})
	writeFiles(t, filepath.Join(root, "podcasts"), map[string]string{
		"ep1.md": "---\ntitle: Episode 1\ndate: 2024-03-01\n---\n",
		"ep2.md": "---\ntitle: Episode 2\ndate: 2024-04-01\nduration: \"45:30\"\naudioUrl: /audio/ep2.mp3\ncoverImage: /images/ep2.png\nfeatured: true\n---\n",
	})

	catalog := NewCatalog(config.ContentConfig{
		Root:      root,
		Projects:  config.KindConfig{Dir: "projects", Extension: ".mdx"},
		Learnings: config.KindConfig{Dir: "learnings", Extension: ".md"},
		Podcasts:  config.KindConfig{Dir: "podcasts", Extension: ".md"},
	}, WithClock(fixedClock))
	ctx := context.Background()

	l, ok := catalog.Learnings.Get(ctx, "kube")
	require.True(t, ok)
	assert.Equal(t, "Kubernetes", i18n.Text(l.Topic))
	assert.Equal(t, "ship", l.Icon)
	assert.Equal(t, []string{}, l.Details)

	podcasts := catalog.Podcasts.List(ctx)
	require.Len(t, podcasts, 2)
	assert.Equal(t, "45:30", podcasts[0].Duration)
	assert.Equal(t, "/audio/ep2.mp3", podcasts[0].AudioURL)
	assert.Equal(t, "00:00", podcasts[1].Duration)
	assert.Equal(t, "", podcasts[1].AudioURL)
	assert.Equal(t, "", podcasts[1].CoverImage)
	assert.Len(t, catalog.Podcasts.Featured(ctx, 6), 1)

	assert.Empty(t, catalog.Projects.List(ctx))

	src, err := catalog.Source(KindLearnings)
	require.NoError(t, err)
	assert.Equal(t, []string{"kube"}, src.IDs(ctx))
	_, err = catalog.Source(Kind("posts"))
	assert.Error(t, err)

	assert.Len(t, catalog.Dirs(), 3)
	assert.ElementsMatch(t, []string{".mdx", ".md"}, catalog.Extensions())
}

func TestDiagnosticsCollected(t *testing.T) {
	diags := errors.NewDiagnostics()
	c := newProjects(t, map[string]string{
		"ok.mdx":      projectA,
		"partial.mdx": "---\ntitle: Partial\n---\n",
		"broken.mdx":  "---\ntitle: [\n---\n",
	}, WithDiagnostics(diags))

	c.List(context.Background())

	assert.Equal(t, 1, diags.Count(errors.SeverityWarning))
	assert.Equal(t, 1, diags.Count(errors.SeverityError))
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"projects": KindProjects,
		"Project":  KindProjects,
		"learning": KindLearnings,
		"PODCASTS": KindPodcasts,
	} {
		got, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("posts")
	assert.Error(t, err)
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"a", "my-project", "2024_notes", "项目"} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", ".", "..", "../x", "a/b", `a\b`, "a\x00b", ".hidden"} {
		assert.Error(t, ValidateID(id), id)
	}
}

func TestGetRejectsPathTraversal(t *testing.T) {
	root := testutils.CreateTempProject(t)
	secret := testutils.CreateTestRecord(t, root, "secret.mdx", projectA)
	c := New(ProjectSchema(), filepath.Join(root, "content", "projects"), WithClock(fixedClock))

	for _, id := range append(testutils.SecurityTestCases.PathTraversal, "../../secret") {
		t.Run(id, func(t *testing.T) {
			assert.Error(t, ValidateID(id))
			_, ok := c.Get(context.Background(), id)
			assert.False(t, ok)
		})
	}
	assert.FileExists(t, secret)
}

func TestQueryApply(t *testing.T) {
	c := newProjects(t, map[string]string{"a.mdx": projectA, "b.mdx": projectB, "c.mdx": projectC})
	records := c.Records(context.Background())

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "zero query", query: Query{}, want: []string{"a", "c", "b"}},
		{name: "category", query: Query{Category: "Web App"}, want: []string{"a", "c"}},
		{name: "featured", query: Query{Featured: true}, want: []string{"a", "c"}},
		{name: "limit", query: Query{Limit: 1}, want: []string{"a"}},
		{name: "category and featured", query: Query{Category: "AI/ML", Featured: true}, want: []string{}},
		{name: "negative limit", query: Query{Limit: -1}, want: []string{"a", "c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IDsOf(tt.query.Apply(records)))
		})
	}
}
