package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "zh", cfg.Site.Locale)
	assert.Equal(t, "content", cfg.Content.Root)
	assert.Equal(t, ".mdx", cfg.Content.Projects.Extension)
	assert.Equal(t, ".md", cfg.Content.Learnings.Extension)
	assert.Equal(t, filepath.Join("content", "podcasts"), cfg.Content.Path(cfg.Content.Podcasts))
	assert.Equal(t, 6, cfg.Content.FeaturedLimit)

	assert.Equal(t, "file", cfg.Preferences.Backend)
	assert.Equal(t, "locale", cfg.Preferences.LocaleKey)
	assert.Equal(t, "app-theme", cfg.Preferences.ThemeKey)
	assert.Equal(t, "dark-elegance", cfg.Preferences.DefaultTheme)
	assert.Equal(t, "light-clean", cfg.Preferences.DefaultLightTheme)
	assert.Equal(t, 16*time.Millisecond, cfg.Preferences.FrameInterval)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Server.Watch)
	assert.Equal(t, "public", cfg.Build.OutputDir)
	assert.True(t, cfg.Deploy.UseSSL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "custom content layout",
			setup: func() {
				viper.Set("content.root", "site/content")
				viper.Set("content.projects.extension", "md")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".md", cfg.Content.Projects.Extension)
				assert.Equal(t, filepath.Join("site", "content", "projects"), cfg.Content.Path(cfg.Content.Projects))
			},
		},
		{
			name: "sqlite backend",
			setup: func() {
				viper.Set("preferences.backend", "sqlite")
				viper.Set("preferences.path", ".folio/prefs.db")
				viper.Set("preferences.color_scheme", "dark")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sqlite", cfg.Preferences.Backend)
				assert.Equal(t, "dark", cfg.Preferences.ColorScheme)
			},
		},
		{
			name:        "unknown backend",
			setup:       func() { viper.Set("preferences.backend", "redis") },
			expectError: true,
		},
		{
			name:        "unsupported site locale",
			setup:       func() { viper.Set("site.locale", "fr") },
			expectError: true,
		},
		{
			name:        "content root traversal",
			setup:       func() { viper.Set("content.root", "../elsewhere") },
			expectError: true,
		},
		{
			name:        "output dir is project root",
			setup:       func() { viper.Set("build.output_dir", ".") },
			expectError: true,
		},
		{
			name:        "absolute output dir",
			setup:       func() { viper.Set("build.output_dir", "/tmp/public") },
			expectError: true,
		},
		{
			name:        "port out of range",
			setup:       func() { viper.Set("server.port", 70000) },
			expectError: true,
		},
		{
			name:        "same storage keys",
			setup:       func() { viper.Set("preferences.theme_key", "locale") },
			expectError: true,
		},
		{
			name:        "bad color scheme",
			setup:       func() { viper.Set("preferences.color_scheme", "sepia") },
			expectError: true,
		},
		{
			name:        "bad log level",
			setup:       func() { viper.Set("log.level", "loud") },
			expectError: true,
		},
		{
			name:        "invalid port type",
			setup:       func() { viper.Set("server.port", "invalid_port") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setup()

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	BindEnv()

	t.Setenv("FOLIO_SERVER_PORT", "8081")
	t.Setenv("FOLIO_PREFERENCES_BACKEND", "memory")
	t.Setenv("FOLIO_PREFERENCES_FRAME_INTERVAL", "40ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Preferences.Backend)
	assert.Equal(t, 40*time.Millisecond, cfg.Preferences.FrameInterval)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), ".folio.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  title: My Portfolio
  locale: en
content:
  featured_limit: 3
server:
  allowed_origins:
    - https://example.com
`), 0o644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "My Portfolio", cfg.Site.Title)
	assert.Equal(t, "en", cfg.Site.Locale)
	assert.Equal(t, 3, cfg.Content.FeaturedLimit)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
}

func TestDeployConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DeployConfig
		wantErr bool
	}{
		{"valid", DeployConfig{Endpoint: "localhost:9000", Bucket: "site"}, false},
		{"missing endpoint", DeployConfig{Bucket: "site"}, true},
		{"scheme in endpoint", DeployConfig{Endpoint: "https://s3.example.com", Bucket: "site"}, true},
		{"missing bucket", DeployConfig{Endpoint: "localhost:9000"}, true},
		{"prefix traversal", DeployConfig{Endpoint: "localhost:9000", Bucket: "site", Prefix: "../x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"content", false},
		{"./content/projects", false},
		{"", true},
		{"../content", true},
		{"content/../../etc", true},
		{"content;rm", true},
		{"$(whoami)", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.True(t, errors.HasErrorCode(validatePath("../x"), errors.ErrCodePathTraversal))
}
