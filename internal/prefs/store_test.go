package prefs

import (
	"context"
	goerrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
)

// manualScheduler runs frame callbacks only when Flush is called.
type manualScheduler struct {
	mu        sync.Mutex
	pending   map[int]func()
	next      int
	cancelled int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[int]func())}
}

func (m *manualScheduler) AfterFrame(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.pending[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.pending[id]; ok {
			delete(m.pending, id)
			m.cancelled++
		}
	}
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *manualScheduler) Flush() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.pending))
	for id, fn := range m.pending {
		fns = append(fns, fn)
		delete(m.pending, id)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// failingStorage reads from an inner store but rejects every write.
type failingStorage struct {
	*MemoryStorage
}

var errDiskFull = goerrors.New("disk full")

func (failingStorage) Set(string, string) error { return errDiskFull }

func newThemeStore(t *testing.T, storage Storage, opts ThemeOptions) *ThemeStore {
	t.Helper()
	store, err := NewThemeStore(context.Background(), storage, opts, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestLocaleStoreHydrate(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   i18n.Locale
	}{
		{name: "nothing stored keeps default", want: i18n.ZH},
		{name: "valid stored value is adopted", stored: "en", want: i18n.EN},
		{name: "stored default", stored: "zh", want: i18n.ZH},
		{name: "invalid stored value is ignored", stored: "fr", want: i18n.ZH},
		{name: "case matters", stored: "EN", want: i18n.ZH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			if tt.stored != "" {
				require.NoError(t, storage.Set("locale", tt.stored))
			}

			store := NewLocaleStore(storage, "locale", nil)
			assert.Equal(t, i18n.ZH, store.Locale(), "before hydration the locale is fixed")
			assert.False(t, store.Hydrated())

			assert.Equal(t, tt.want, store.Hydrate(context.Background()))
			assert.Equal(t, tt.want, store.Locale())
			assert.True(t, store.Hydrated())
		})
	}
}

func TestLocaleStoreHydratesOnce(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set("locale", "en"))

	store := NewLocaleStore(storage, "locale", nil)
	ch := store.Watch()

	assert.Equal(t, i18n.EN, store.Hydrate(ctx))
	require.Len(t, ch, 1)
	event := <-ch
	assert.Equal(t, LocaleEvent{Locale: i18n.EN, Previous: i18n.ZH, Source: SourceHydrate}, event)

	require.NoError(t, storage.Set("locale", "zh"))
	assert.Equal(t, i18n.EN, store.Hydrate(ctx))
	assert.Len(t, ch, 0)
}

func TestLocaleStoreSetLocale(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewLocaleStore(storage, "locale", nil)
	store.Hydrate(ctx)
	ch := store.Watch()
	defer store.Unwatch(ch)

	require.NoError(t, store.SetLocale(ctx, i18n.EN))
	assert.Equal(t, i18n.EN, store.Locale())
	v, _ := storage.Get("locale")
	assert.Equal(t, "en", v)
	require.Len(t, ch, 1)
	assert.Equal(t, LocaleEvent{Locale: i18n.EN, Previous: i18n.ZH, Source: SourceUser}, <-ch)

	// Same value is persisted again but not announced.
	require.NoError(t, store.SetLocale(ctx, i18n.EN))
	assert.Len(t, ch, 0)

	err := store.SetLocale(ctx, i18n.Locale("de"))
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, ErrUnknownLocale))
	assert.True(t, errors.IsStateError(err))
	assert.Equal(t, i18n.EN, store.Locale())
	assert.Len(t, ch, 0)
}

func TestLocaleStorePersistFailure(t *testing.T) {
	ctx := context.Background()
	store := NewLocaleStore(failingStorage{NewMemoryStorage()}, "locale", nil)
	ch := store.Watch()

	err := store.SetLocale(ctx, i18n.EN)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, i18n.EN, store.Locale())
	assert.Len(t, ch, 1)
}

func TestLocaleStoreText(t *testing.T) {
	ctx := context.Background()
	store := NewLocaleStore(NewMemoryStorage(), "locale", nil)
	title := i18n.Bilingual("项目", "Projects")

	assert.Equal(t, "项目", store.Text(title))
	require.NoError(t, store.SetLocale(ctx, i18n.EN))
	assert.Equal(t, "Projects", store.Text(title))
	assert.Equal(t, "plain", store.Text(i18n.Plain("plain")))
}

func TestLocaleStoreSync(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewLocaleStore(storage, "locale", nil)
	store.Hydrate(ctx)
	ch := store.Watch()

	assert.False(t, store.Sync(ctx))

	require.NoError(t, storage.Set("locale", "xx"))
	assert.False(t, store.Sync(ctx))

	require.NoError(t, storage.Set("locale", "en"))
	assert.True(t, store.Sync(ctx))
	assert.Equal(t, i18n.EN, store.Locale())
	require.Len(t, ch, 1)
	assert.Equal(t, SourceSync, (<-ch).Source)

	assert.False(t, store.Sync(ctx))
}

func TestLocaleStoreUnwatchClosesChannel(t *testing.T) {
	store := NewLocaleStore(NewMemoryStorage(), "locale", nil)
	ch := store.Watch()
	store.Unwatch(ch)

	_, open := <-ch
	assert.False(t, open)

	require.NoError(t, store.SetLocale(context.Background(), i18n.EN))
}

func TestThemeStoreInitialResolution(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		dark   bool
		want   string
	}{
		{name: "stored theme wins over dark system", stored: SakuraPink, dark: true, want: SakuraPink},
		{name: "stored theme wins over light system", stored: OceanBlue, want: OceanBlue},
		{name: "dark system without stored value", dark: true, want: DarkElegance},
		{name: "light system without stored value", want: LightClean},
		{name: "invalid stored value falls through to system", stored: "neon", dark: true, want: DarkElegance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			if tt.stored != "" {
				require.NoError(t, storage.Set("app-theme", tt.stored))
			}
			store := newThemeStore(t, storage, ThemeOptions{System: StaticPreference{Dark: tt.dark}})
			assert.Equal(t, tt.want, store.Theme().ID)
		})
	}
}

func TestThemeStoreCustomDefaults(t *testing.T) {
	store := newThemeStore(t, NewMemoryStorage(), ThemeOptions{
		DefaultDark: RoyalPurple,
		System:      StaticPreference{Dark: true},
	})
	assert.Equal(t, RoyalPurple, store.Theme().ID)
	assert.True(t, store.IsDark())

	_, err := NewThemeStore(context.Background(), NewMemoryStorage(), ThemeOptions{DefaultLight: "beige"}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
}

func TestThemeStoreSetTheme(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	frames := newManualScheduler()
	store := newThemeStore(t, storage, ThemeOptions{Scheduler: frames})
	ch := store.Watch()

	require.NoError(t, store.SetTheme(ctx, OceanBlue))
	assert.Equal(t, OceanBlue, store.Theme().ID)
	v, _ := storage.Get("app-theme")
	assert.Equal(t, OceanBlue, v)

	require.Len(t, ch, 1)
	event := <-ch
	assert.Equal(t, OceanBlue, event.Theme.ID)
	assert.Equal(t, LightClean, event.Previous)
	assert.Equal(t, SourceUser, event.Source)
	assert.True(t, event.TransitionsSuppressed)

	assert.True(t, store.TransitionsSuppressed())
	frames.Flush()
	assert.False(t, store.TransitionsSuppressed())
}

func TestThemeStoreRejectsUnknownTheme(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	frames := newManualScheduler()
	store := newThemeStore(t, storage, ThemeOptions{Scheduler: frames})
	ch := store.Watch()

	err := store.SetTheme(ctx, "neon-nights")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, ErrUnknownTheme))
	assert.Contains(t, err.Error(), "unknown theme")

	assert.Equal(t, LightClean, store.Theme().ID)
	_, stored := storage.Get("app-theme")
	assert.False(t, stored)
	assert.Len(t, ch, 0)
	assert.False(t, store.TransitionsSuppressed())
	assert.Equal(t, 0, frames.Pending())
}

func TestThemeStoreTransitionFrames(t *testing.T) {
	ctx := context.Background()
	frames := newManualScheduler()
	store := newThemeStore(t, NewMemoryStorage(), ThemeOptions{Scheduler: frames})

	require.NoError(t, store.SetTheme(ctx, OceanBlue))
	require.NoError(t, store.SetTheme(ctx, ForestGreen))

	assert.Equal(t, 1, frames.Pending(), "a newer change replaces the pending frame")
	assert.Equal(t, 1, frames.cancelled)
	assert.True(t, store.TransitionsSuppressed())

	frames.Flush()
	assert.False(t, store.TransitionsSuppressed())
}

func TestThemeStoreDisableTransitions(t *testing.T) {
	ctx := context.Background()
	frames := newManualScheduler()
	store := newThemeStore(t, NewMemoryStorage(), ThemeOptions{Scheduler: frames, DisableTransitions: true})
	ch := store.Watch()

	require.NoError(t, store.SetTheme(ctx, SunsetOrange))
	assert.False(t, store.TransitionsSuppressed())
	assert.Equal(t, 0, frames.Pending())
	assert.False(t, (<-ch).TransitionsSuppressed)
}

func TestThemeStoreToggleDark(t *testing.T) {
	for _, theme := range Themes() {
		t.Run(theme.ID, func(t *testing.T) {
			ctx := context.Background()
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set("app-theme", theme.ID))
			store := newThemeStore(t, storage, ThemeOptions{Scheduler: newManualScheduler()})

			require.NoError(t, store.ToggleDark(ctx))
			assert.Equal(t, theme.Counterpart, store.Theme().ID)
			assert.NotEqual(t, theme.IsDark, store.IsDark())
		})
	}
}

func TestThemeStoreToggleWithoutCounterpart(t *testing.T) {
	original := themes
	t.Cleanup(func() { themes = original })
	themes = append(Themes(), Theme{ID: "midnight", Name: "Midnight", IsDark: true})

	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set("app-theme", "midnight"))
	store := newThemeStore(t, storage, ThemeOptions{Scheduler: newManualScheduler()})
	ch := store.Watch()

	require.NoError(t, store.ToggleDark(ctx))
	assert.Equal(t, LightClean, store.Theme().ID)
	assert.Equal(t, SourceToggle, (<-ch).Source)
}

func TestThemeStoreSystemPreference(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newThemeStore(t, storage, ThemeOptions{Scheduler: newManualScheduler()})
	ch := store.Watch()

	assert.True(t, store.SystemPreferenceChanged(ctx, true))
	assert.Equal(t, DarkElegance, store.Theme().ID)
	_, persisted := storage.Get("app-theme")
	assert.False(t, persisted, "system-driven changes are not persisted")
	require.Len(t, ch, 1)
	assert.Equal(t, SourceSystem, (<-ch).Source)
	assert.False(t, store.TransitionsSuppressed())

	assert.False(t, store.SystemPreferenceChanged(ctx, true), "no change when already applied")

	require.NoError(t, store.SetTheme(ctx, SakuraPink))
	<-ch
	assert.False(t, store.SystemPreferenceChanged(ctx, false))
	assert.False(t, store.SystemPreferenceChanged(ctx, true))
	assert.Equal(t, SakuraPink, store.Theme().ID)
	assert.Len(t, ch, 0)
}

func TestThemeStorePersistFailure(t *testing.T) {
	ctx := context.Background()
	store := newThemeStore(t, failingStorage{NewMemoryStorage()}, ThemeOptions{Scheduler: newManualScheduler()})
	ch := store.Watch()

	err := store.SetTheme(ctx, RoyalPurple)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, RoyalPurple, store.Theme().ID)
	assert.Len(t, ch, 1)
}

func TestThemeStoreSync(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := newThemeStore(t, storage, ThemeOptions{Scheduler: newManualScheduler()})

	assert.False(t, store.Sync(ctx))
	require.NoError(t, storage.Set("app-theme", ForestGreen))
	assert.True(t, store.Sync(ctx))
	assert.Equal(t, ForestGreen, store.Theme().ID)
	assert.False(t, store.TransitionsSuppressed())
}

func TestThemeStoreTimerScheduler(t *testing.T) {
	store := newThemeStore(t, NewMemoryStorage(), ThemeOptions{})
	require.NoError(t, store.SetTheme(context.Background(), OceanBlue))

	assert.Eventually(t, func() bool { return !store.TransitionsSuppressed() },
		time.Second, 5*time.Millisecond)
}

func TestThemeCatalog(t *testing.T) {
	list := Themes()
	require.Len(t, list, 7)

	for _, theme := range list {
		counterpart, ok := LookupTheme(theme.Counterpart)
		require.True(t, ok, "counterpart of %s", theme.ID)
		assert.NotEqual(t, theme.IsDark, counterpart.IsDark, "counterpart of %s has opposite brightness", theme.ID)
	}

	list[0].Name = "changed"
	first, _ := LookupTheme(DarkElegance)
	assert.Equal(t, "Dark Elegance", first.Name)
}

func TestOpen(t *testing.T) {
	base := config.PreferencesConfig{
		LocaleKey:         "locale",
		ThemeKey:          "app-theme",
		DefaultTheme:      DarkElegance,
		DefaultLightTheme: LightClean,
		ColorScheme:       "dark",
	}

	t.Run("memory", func(t *testing.T) {
		cfg := base
		cfg.Backend = "memory"
		p, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err)
		defer p.Close()

		assert.Empty(t, p.Path)
		assert.Equal(t, DarkElegance, p.Theme.Theme().ID)
		assert.False(t, p.Locale.Hydrated())
	})

	t.Run("sqlite shares storage between stores", func(t *testing.T) {
		cfg := base
		cfg.Backend = "sqlite"
		cfg.Path = filepath.Join(t.TempDir(), "prefs.db")
		p, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err)

		require.NoError(t, p.Locale.SetLocale(context.Background(), i18n.EN))
		require.NoError(t, p.Theme.SetTheme(context.Background(), OceanBlue))
		require.NoError(t, p.Close())

		reopened, err := Open(context.Background(), cfg, nil)
		require.NoError(t, err)
		defer reopened.Close()
		assert.Equal(t, i18n.EN, reopened.Locale.Hydrate(context.Background()))
		assert.Equal(t, OceanBlue, reopened.Theme.Theme().ID)
		assert.Equal(t, cfg.Path, reopened.Path)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base
		cfg.Backend = "redis"
		_, err := Open(context.Background(), cfg, nil)
		assert.Error(t, err)
	})

	t.Run("unknown default theme", func(t *testing.T) {
		cfg := base
		cfg.Backend = "memory"
		cfg.DefaultTheme = "neon"
		_, err := Open(context.Background(), cfg, nil)
		assert.Error(t, err)
	})
}
