package prefs

import (
	"context"
	"io"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// Preferences bundles the storage and both stores built from configuration.
type Preferences struct {
	Storage Storage
	Locale  *LocaleStore
	Theme   *ThemeStore
	// Path is the backing file, empty for memory storage.
	Path string
}

// NewStorage opens the storage backend named by cfg.Backend.
func NewStorage(cfg config.PreferencesConfig, logger logging.Logger) (Storage, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStorage(cfg.Path, logger), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, logger)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, errors.ConfigurationError("backend", "must be file, sqlite or memory", cfg.Backend)
	}
}

// Open builds the preference stores described by cfg. The locale store is
// returned unhydrated.
func Open(ctx context.Context, cfg config.PreferencesConfig, logger logging.Logger) (*Preferences, error) {
	storage, err := NewStorage(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(ctx, storage, cfg, logger)
}

// New builds the stores over an existing storage.
func New(ctx context.Context, storage Storage, cfg config.PreferencesConfig, logger logging.Logger) (*Preferences, error) {
	theme, err := NewThemeStore(ctx, storage, ThemeOptions{
		Key:                cfg.ThemeKey,
		DefaultDark:        cfg.DefaultTheme,
		DefaultLight:       cfg.DefaultLightTheme,
		DisableTransitions: cfg.DisableTransitions,
		Scheduler:          TimerScheduler{Interval: cfg.FrameInterval},
		System:             PreferenceFromScheme(cfg.ColorScheme),
	}, logger)
	if err != nil {
		if closer, ok := storage.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}

	localeKey := cfg.LocaleKey
	if localeKey == "" {
		localeKey = "locale"
	}

	p := &Preferences{
		Storage: storage,
		Locale:  NewLocaleStore(storage, localeKey, logger),
		Theme:   theme,
	}
	if cfg.Backend != "memory" {
		p.Path = cfg.Path
	}
	return p, nil
}

// Close releases the stores and the storage backend.
func (p *Preferences) Close() error {
	p.Theme.Close()
	p.Locale.Close()
	if closer, ok := p.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
