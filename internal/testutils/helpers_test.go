package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTempProject(t *testing.T) {
	projectDir := CreateTempProject(t)

	for _, dir := range []string{"content/projects", "content/learnings", "content/podcasts", ".folio"} {
		info, err := os.Stat(filepath.Join(projectDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), "Expected %s to be a directory", dir)
	}
}

func TestWriteFiles(t *testing.T) {
	root := t.TempDir()
	WriteFiles(t, root, map[string]string{
		"a.md":          "a",
		"nested/b/c.md": "c",
	})

	data, err := os.ReadFile(filepath.Join(root, "nested", "b", "c.md"))
	require.NoError(t, err)
	assert.Equal(t, "c", string(data))
	AssertFilePermissions(t, filepath.Join(root, "a.md"), 0644)
}

func TestCreateTestRecord(t *testing.T) {
	projectDir := CreateTempProject(t)
	dir := filepath.Join(projectDir, "content", "projects")

	path := CreateTestRecord(t, dir, "folio.mdx", StandardContent["content/projects/folio.mdx"])
	assert.Equal(t, filepath.Join(dir, "folio.mdx"), path)
	assert.FileExists(t, path)
}

func TestCreateTestConfig(t *testing.T) {
	projectDir := CreateTempProject(t)
	cfg := CreateTestConfig(projectDir)

	assert.Equal(t, filepath.Join(projectDir, "content", "projects"), cfg.Content.Path(cfg.Content.Projects))
	assert.Equal(t, "memory", cfg.Preferences.Backend)
	assert.Equal(t, 0, cfg.Server.Port)
}

func TestWithContent(t *testing.T) {
	files := WithContent(map[string]string{"content/podcasts/ep.md": "---\n---\n"})

	assert.Len(t, files, len(StandardContent)+1)
	assert.NotContains(t, StandardContent, "content/podcasts/ep.md")
}

func TestAssertDirectoryPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "private")
	require.NoError(t, os.Mkdir(dir, 0700))
	require.NoError(t, os.Chmod(dir, 0700))

	AssertDirectoryPermissions(t, dir, 0700)
}
