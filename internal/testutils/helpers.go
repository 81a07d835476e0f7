// Package testutils holds fixtures shared by the package tests: temporary
// projects with a content tree, a matching configuration and common attack
// vectors for identity and markup handling.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/config"
)

// CreateTempProject creates a temporary project with empty content
// directories and returns its root.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	dirs := []string{
		"content/projects",
		"content/learnings",
		"content/podcasts",
		".folio",
	}

	for _, dir := range dirs {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0755)
		require.NoError(t, err)
	}

	return tempDir
}

// WriteFiles writes files, keyed by slash-separated paths relative to root,
// creating parent directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
}

// CreateTestRecord writes one record file and returns its path.
func CreateTestRecord(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// CreateTestConfig returns a configuration rooted at projectDir with the
// default layout, memory preferences and an ephemeral server port.
func CreateTestConfig(projectDir string) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			Title:  "Folio",
			Locale: "zh",
		},
		Content: config.ContentConfig{
			Root:          filepath.Join(projectDir, "content"),
			Projects:      config.KindConfig{Dir: "projects", Extension: ".mdx"},
			Learnings:     config.KindConfig{Dir: "learnings", Extension: ".md"},
			Podcasts:      config.KindConfig{Dir: "podcasts", Extension: ".md"},
			FeaturedLimit: 6,
		},
		Preferences: config.PreferencesConfig{
			Backend:           "memory",
			Path:              filepath.Join(projectDir, ".folio", "preferences.json"),
			LocaleKey:         "locale",
			ThemeKey:          "app-theme",
			DefaultTheme:      "dark-elegance",
			DefaultLightTheme: "light-clean",
			FrameInterval:     time.Millisecond,
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Build: config.BuildConfig{
			OutputDir: "public",
			Clean:     true,
		},
		Log: config.LogConfig{Level: "info", Format: "text"},
	}
}

// StandardContent is a small content tree: three projects (two featured),
// one learning card and no podcasts.
var StandardContent = map[string]string{
	"content/projects/folio.mdx": "---\ntitle:\n  zh: 作品集\n  en: Folio\ndescription: A portfolio\ndate: 2024-03-05\ncategory: Tool\nfeatured: true\n---\n## Goals\n\nShip it.\n",
	"content/projects/game.mdx":  "---\ntitle: Game\ndescription: A game\ndate: 2024-02-01\ncategory: Game\n---\n",
	"content/projects/old.mdx":   "---\ntitle: Old\ndescription: An old tool\ndate: 2023-01-01\ncategory: Tool\nfeatured: true\n---\n",
	"content/learnings/k8s.md":   "---\ntopic: Kubernetes\nsummary: Pods\ncategory: DevOps\ndate: 2024-01-01\n---\n",
}

// WithContent returns StandardContent merged with extra.
func WithContent(extra map[string]string) map[string]string {
	files := make(map[string]string, len(StandardContent)+len(extra))
	for k, v := range StandardContent {
		files[k] = v
	}
	for k, v := range extra {
		files[k] = v
	}
	return files
}

// SecurityTestCases provides common security test vectors
var SecurityTestCases = struct {
	PathTraversal   []string
	ScriptInjection []string
}{
	PathTraversal: []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"....//....//....//etc/passwd",
		"..%2F..%2F..%2Fetc%2Fpasswd",
		"/%2e%2e/%2e%2e/%2e%2e/etc/passwd",
		"/./../../etc/passwd",
		"..",
		".env",
		"a/../../b",
		"nul\x00byte",
	},
	ScriptInjection: []string{
		"<script>alert('xss')</script>",
		"<img src=x onerror=alert('xss')>",
		"<svg onload=alert('xss')>",
		"<iframe src=javascript:alert('xss')>",
		"<body onload=alert('xss')>",
		"<script src=//evil.com/malicious.js></script>",
	},
}

// AssertFilePermissions checks the permission bits of a file.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0777), expectedMode)
}

// AssertDirectoryPermissions checks that path is a directory with the
// given permission bits.
func AssertDirectoryPermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.IsDir(), "Path %s is not a directory", path)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0777),
		"Directory %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0777), expectedMode)
}
