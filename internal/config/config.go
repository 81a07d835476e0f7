// Package config provides configuration management for folio using Viper for
// loading from files, environment variables, and command-line flags.
//
// The configuration system supports a .folio.yml file, environment variable
// overrides with the FOLIO_ prefix, defaults for every key, and validation of
// paths and enumerated values. It covers the content directories, the
// preference store backend, the preview server, the static export and the
// optional object storage deploy target.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Site        SiteConfig        `mapstructure:"site"        yaml:"site"`
	Content     ContentConfig     `mapstructure:"content"     yaml:"content"`
	Preferences PreferencesConfig `mapstructure:"preferences" yaml:"preferences"`
	Server      ServerConfig      `mapstructure:"server"      yaml:"server"`
	Build       BuildConfig       `mapstructure:"build"       yaml:"build"`
	Deploy      DeployConfig      `mapstructure:"deploy"      yaml:"deploy"`
	Log         LogConfig         `mapstructure:"log"         yaml:"log"`
}

type SiteConfig struct {
	Title   string `mapstructure:"title"    yaml:"title"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Locale used for non-interactive rendering (static export, CLI output).
	Locale string `mapstructure:"locale" yaml:"locale"`
}

// KindConfig locates one content kind relative to ContentConfig.Root.
type KindConfig struct {
	Dir       string `mapstructure:"dir"       yaml:"dir"`
	Extension string `mapstructure:"extension" yaml:"extension"`
}

type ContentConfig struct {
	Root          string     `mapstructure:"root"           yaml:"root"`
	Projects      KindConfig `mapstructure:"projects"       yaml:"projects"`
	Learnings     KindConfig `mapstructure:"learnings"      yaml:"learnings"`
	Podcasts      KindConfig `mapstructure:"podcasts"       yaml:"podcasts"`
	FeaturedLimit int        `mapstructure:"featured_limit" yaml:"featured_limit"`
}

// Path returns the directory holding records of kind k.
func (c ContentConfig) Path(k KindConfig) string {
	return filepath.Join(c.Root, k.Dir)
}

type PreferencesConfig struct {
	// Backend is one of file, sqlite or memory.
	Backend           string `mapstructure:"backend"             yaml:"backend"`
	Path              string `mapstructure:"path"                yaml:"path"`
	LocaleKey         string `mapstructure:"locale_key"          yaml:"locale_key"`
	ThemeKey          string `mapstructure:"theme_key"           yaml:"theme_key"`
	DefaultTheme      string `mapstructure:"default_theme"       yaml:"default_theme"`
	DefaultLightTheme string `mapstructure:"default_light_theme" yaml:"default_light_theme"`
	// ColorScheme is the system preference seen by non-browser callers:
	// "dark", "light" or empty for no preference.
	ColorScheme        string        `mapstructure:"color_scheme"        yaml:"color_scheme"`
	DisableTransitions bool          `mapstructure:"disable_transitions" yaml:"disable_transitions"`
	FrameInterval      time.Duration `mapstructure:"frame_interval"      yaml:"frame_interval"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"            yaml:"port"`
	Host           string   `mapstructure:"host"            yaml:"host"`
	Watch          bool     `mapstructure:"watch"           yaml:"watch"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type BuildConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Clean     bool   `mapstructure:"clean"      yaml:"clean"`
}

type DeployConfig struct {
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Prefix    string `mapstructure:"prefix"     yaml:"prefix"`
	Region    string `mapstructure:"region"     yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"    yaml:"use_ssl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]interface{}{
	"site.title":    "Portfolio",
	"site.base_url": "",
	"site.locale":   "zh",

	"content.root":                "content",
	"content.projects.dir":        "projects",
	"content.projects.extension":  ".mdx",
	"content.learnings.dir":       "learnings",
	"content.learnings.extension": ".md",
	"content.podcasts.dir":        "podcasts",
	"content.podcasts.extension":  ".md",
	"content.featured_limit":      6,

	"preferences.backend":             "file",
	"preferences.path":                ".folio/preferences.json",
	"preferences.locale_key":          "locale",
	"preferences.theme_key":           "app-theme",
	"preferences.default_theme":       "dark-elegance",
	"preferences.default_light_theme": "light-clean",
	"preferences.color_scheme":        "",
	"preferences.disable_transitions": false,
	"preferences.frame_interval":      16 * time.Millisecond,

	"server.port":            3000,
	"server.host":            "localhost",
	"server.watch":           true,
	"server.allowed_origins": []string{},

	"build.output_dir": "public",
	"build.clean":      true,

	"deploy.endpoint":   "",
	"deploy.bucket":     "",
	"deploy.prefix":     "",
	"deploy.region":     "",
	"deploy.access_key": "",
	"deploy.secret_key": "",
	"deploy.use_ssl":    true,

	"log.level":  "info",
	"log.format": "text",
}

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "FOLIO"

// BindEnv enables FOLIO_<SECTION>_<OPTION> overrides on the global viper
// instance, e.g. FOLIO_SERVER_PORT or FOLIO_PREFERENCES_BACKEND.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// SetDefaults registers a default for every key so that AutomaticEnv can
// resolve FOLIO_* overrides during Unmarshal.
func SetDefaults() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// Load builds a validated Config from the global viper instance.
func Load() (*Config, error) {
	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Content.Projects.Extension = normalizeExtension(config.Content.Projects.Extension)
	config.Content.Learnings.Extension = normalizeExtension(config.Content.Learnings.Extension)
	config.Content.Podcasts.Extension = normalizeExtension(config.Content.Podcasts.Extension)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateSiteConfig(&config.Site); err != nil {
		return fmt.Errorf("site config: %w", err)
	}

	if err := validateContentConfig(&config.Content); err != nil {
		return fmt.Errorf("content config: %w", err)
	}

	if err := validatePreferencesConfig(&config.Preferences); err != nil {
		return fmt.Errorf("preferences config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", errors.ConfigurationError("level", err.Error(), config.Log.Level))
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: %w", errors.ConfigurationError("format", "must be text or json", config.Log.Format))
	}

	return nil
}

func validateSiteConfig(config *SiteConfig) error {
	switch config.Locale {
	case "zh", "en":
		return nil
	default:
		return errors.ConfigurationError("locale", "must be zh or en", config.Locale)
	}
}

func validateContentConfig(config *ContentConfig) error {
	if err := validatePath(config.Root); err != nil {
		return fmt.Errorf("invalid root '%s': %w", config.Root, err)
	}

	kinds := map[string]KindConfig{
		"projects":  config.Projects,
		"learnings": config.Learnings,
		"podcasts":  config.Podcasts,
	}
	for name, kind := range kinds {
		if err := validatePath(kind.Dir); err != nil {
			return fmt.Errorf("invalid %s dir '%s': %w", name, kind.Dir, err)
		}
		if len(kind.Extension) < 2 || strings.ContainsAny(kind.Extension, `/\`) {
			return errors.ConfigurationError(name+".extension", "must be a file extension such as .md", kind.Extension)
		}
	}

	if config.FeaturedLimit < 0 {
		return errors.ConfigurationError("featured_limit", "must not be negative", config.FeaturedLimit)
	}

	return nil
}

func validatePreferencesConfig(config *PreferencesConfig) error {
	switch config.Backend {
	case "memory":
	case "file", "sqlite":
		if err := validatePath(config.Path); err != nil {
			return fmt.Errorf("invalid path '%s': %w", config.Path, err)
		}
	default:
		return errors.ConfigurationError("backend", "must be file, sqlite or memory", config.Backend)
	}

	if strings.TrimSpace(config.LocaleKey) == "" {
		return errors.ConfigurationError("locale_key", "must not be empty", config.LocaleKey)
	}
	if strings.TrimSpace(config.ThemeKey) == "" {
		return errors.ConfigurationError("theme_key", "must not be empty", config.ThemeKey)
	}
	if config.LocaleKey == config.ThemeKey {
		return errors.ConfigurationError("theme_key", "must differ from locale_key", config.ThemeKey)
	}
	if config.DefaultTheme == "" || config.DefaultLightTheme == "" {
		return errors.ConfigurationError("default_theme", "default themes must be set", config.DefaultTheme)
	}

	switch config.ColorScheme {
	case "", "light", "dark":
	default:
		return errors.ConfigurationError("color_scheme", "must be light, dark or empty", config.ColorScheme)
	}

	if config.FrameInterval < 0 {
		return errors.ConfigurationError("frame_interval", "must not be negative", config.FrameInterval)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Port 0 asks the system for a free port.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	if err := validatePath(config.OutputDir); err != nil {
		return fmt.Errorf("invalid output_dir '%s': %w", config.OutputDir, err)
	}

	// Clean removes the directory, so it must stay inside the project.
	if filepath.IsAbs(filepath.Clean(config.OutputDir)) {
		return fmt.Errorf("output_dir should be relative path: %s", config.OutputDir)
	}
	if filepath.Clean(config.OutputDir) == "." {
		return fmt.Errorf("output_dir must not be the project root")
	}

	return nil
}

// Validate checks the settings required to publish the build output.
func (d DeployConfig) Validate() error {
	if strings.TrimSpace(d.Endpoint) == "" {
		return errors.ConfigurationError("deploy.endpoint", "must be set", d.Endpoint)
	}
	if strings.Contains(d.Endpoint, "://") {
		return errors.ConfigurationError("deploy.endpoint", "must be host[:port] without a scheme", d.Endpoint)
	}
	if strings.TrimSpace(d.Bucket) == "" {
		return errors.ConfigurationError("deploy.bucket", "must be set", d.Bucket)
	}
	if strings.Contains(d.Prefix, "..") {
		return errors.ErrPathTraversal(d.Prefix)
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return errors.ErrInvalidPath(path)
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return errors.ErrPathTraversal(path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
