package prefs

import (
	"context"
	"sync"

	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"
)

// ErrUnknownTheme matches errors returned for ids outside the theme catalog.
var ErrUnknownTheme = errors.NewStateError(errors.ErrCodeUnknownTheme, "unknown theme")

// ThemeOptions configures a ThemeStore.
type ThemeOptions struct {
	// Key is the storage key holding the chosen theme id.
	Key string
	// DefaultDark is used when the system prefers dark and nothing is stored.
	DefaultDark string
	// DefaultLight is used otherwise.
	DefaultLight string
	// DisableTransitions skips the transition-suppression flag on changes.
	DisableTransitions bool
	Scheduler          FrameScheduler
	System             SystemPreference
}

// ThemeStore owns the active theme.
type ThemeStore struct {
	mu      sync.RWMutex
	storage Storage
	opts    ThemeOptions
	theme   Theme
	logger  logging.Logger
	events  broadcaster[ThemeEvent]

	suppressed bool
	frame      uint64
	cancel     func()
}

// NewThemeStore resolves the initial theme: a valid persisted id, else
// DefaultDark when the system prefers dark, else DefaultLight.
func NewThemeStore(ctx context.Context, storage Storage, opts ThemeOptions, logger logging.Logger) (*ThemeStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Key == "" {
		opts.Key = "app-theme"
	}
	if opts.DefaultDark == "" {
		opts.DefaultDark = DarkElegance
	}
	if opts.DefaultLight == "" {
		opts.DefaultLight = LightClean
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.System == nil {
		opts.System = StaticPreference{}
	}

	for _, id := range []string{opts.DefaultDark, opts.DefaultLight} {
		if _, ok := LookupTheme(id); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeUnknownTheme, "default theme is not in the catalog").
				WithContext("theme", id)
		}
	}

	s := &ThemeStore{
		storage: storage,
		opts:    opts,
		logger:  logger.WithComponent("prefs").With("store", "theme"),
	}

	if stored, ok := s.stored(ctx); ok {
		s.theme = stored
	} else {
		s.theme = s.systemDefault(opts.System.PrefersDark())
	}
	s.logger.Debug(ctx, "theme resolved", "theme", s.theme.ID)

	return s, nil
}

// Theme returns the active theme.
func (s *ThemeStore) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// IsDark reports whether the active theme is dark.
func (s *ThemeStore) IsDark() bool {
	return s.Theme().IsDark
}

// Themes returns the theme catalog.
func (s *ThemeStore) Themes() []Theme {
	return Themes()
}

// TransitionsSuppressed reports whether a theme change is in progress and
// visual transitions should be disabled until the next frame.
func (s *ThemeStore) TransitionsSuppressed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suppressed
}

// SetTheme switches to the theme named id and persists it. Unknown ids are
// logged and rejected without changing state. When persisting fails the new
// theme is still active and the storage error is returned.
func (s *ThemeStore) SetTheme(ctx context.Context, id string) error {
	return s.set(ctx, id, SourceUser)
}

// ToggleDark switches to the active theme's counterpart, or to the default
// theme of opposite brightness when no counterpart is configured.
func (s *ThemeStore) ToggleDark(ctx context.Context) error {
	current := s.Theme()
	target := current.Counterpart
	if target == "" {
		if current.IsDark {
			target = s.opts.DefaultLight
		} else {
			target = s.opts.DefaultDark
		}
	}
	return s.set(ctx, target, SourceToggle)
}

// SystemPreferenceChanged applies the default implied by the system color
// scheme, but only while storage holds no theme. An explicit choice always
// wins. The change is not persisted. It reports whether the state changed.
func (s *ThemeStore) SystemPreferenceChanged(ctx context.Context, dark bool) bool {
	if _, ok := s.storage.Get(s.opts.Key); ok {
		s.logger.Debug(ctx, "system preference ignored, theme chosen explicitly", "dark", dark)
		return false
	}

	target := s.systemDefault(dark)

	s.mu.Lock()
	previous := s.theme
	if previous.ID == target.ID {
		s.mu.Unlock()
		return false
	}
	s.theme = target
	s.mu.Unlock()

	s.logger.Info(ctx, "theme follows system preference", "theme", target.ID, "dark", dark)
	s.events.publish(ThemeEvent{Theme: target, Previous: previous.ID, Source: SourceSystem})
	return true
}

// Sync re-reads storage and adopts a valid persisted theme that differs from
// the active one, reporting whether the state changed.
func (s *ThemeStore) Sync(ctx context.Context) bool {
	stored, ok := s.stored(ctx)
	if !ok {
		return false
	}

	s.mu.Lock()
	previous := s.theme
	if previous.ID == stored.ID {
		s.mu.Unlock()
		return false
	}
	s.theme = stored
	s.mu.Unlock()

	s.logger.Info(ctx, "theme synchronised from storage", "theme", stored.ID, "previous", previous.ID)
	s.events.publish(ThemeEvent{Theme: stored, Previous: previous.ID, Source: SourceSync})
	return true
}

// Watch returns a channel receiving every theme change.
func (s *ThemeStore) Watch() <-chan ThemeEvent {
	return s.events.watch()
}

// Unwatch closes and removes a channel returned by Watch.
func (s *ThemeStore) Unwatch(ch <-chan ThemeEvent) {
	s.events.unwatch(ch)
}

// Close cancels a pending frame callback and closes every watcher.
func (s *ThemeStore) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.suppressed = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.events.close()
}

func (s *ThemeStore) set(ctx context.Context, id string, source Source) error {
	next, ok := LookupTheme(id)
	if !ok {
		err := errors.NewStateError(errors.ErrCodeUnknownTheme, "unknown theme").
			WithContext("theme", id).
			WithContext("available", ThemeIDs())
		s.logger.Warn(ctx, err, "theme not found", "theme", id, "available", ThemeIDs())
		return err
	}

	suppressed := false
	if !s.opts.DisableTransitions {
		s.suppressTransitions()
		suppressed = true
	}

	s.mu.Lock()
	previous := s.theme
	s.theme = next
	s.mu.Unlock()

	var persistErr error
	if err := s.storage.Set(s.opts.Key, next.ID); err != nil {
		s.logger.Error(ctx, err, "failed to persist theme", "theme", next.ID)
		persistErr = err
	}

	if previous.ID != next.ID {
		s.logger.Info(ctx, "theme changed", "theme", next.ID, "previous", previous.ID, "source", source)
		s.events.publish(ThemeEvent{
			Theme:                 next,
			Previous:              previous.ID,
			Source:                source,
			TransitionsSuppressed: suppressed,
		})
	}
	return persistErr
}

// suppressTransitions raises the flag and schedules it to clear on the next
// frame, replacing any callback still pending from an earlier change.
func (s *ThemeStore) suppressTransitions() {
	s.mu.Lock()
	s.suppressed = true
	s.frame++
	frame := s.frame
	previous := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if previous != nil {
		previous()
	}

	cancel := s.opts.Scheduler.AfterFrame(func() { s.clearTransitions(frame) })

	s.mu.Lock()
	if s.frame == frame && s.suppressed {
		s.cancel = cancel
	}
	s.mu.Unlock()
}

func (s *ThemeStore) clearTransitions(frame uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame != frame {
		return
	}
	s.suppressed = false
	s.cancel = nil
}

func (s *ThemeStore) stored(ctx context.Context) (Theme, bool) {
	raw, ok := s.storage.Get(s.opts.Key)
	if !ok {
		return Theme{}, false
	}
	t, ok := LookupTheme(raw)
	if !ok {
		s.logger.Debug(ctx, "ignoring invalid persisted theme", "value", raw)
		return Theme{}, false
	}
	return t, true
}

func (s *ThemeStore) systemDefault(dark bool) Theme {
	id := s.opts.DefaultLight
	if dark {
		id = s.opts.DefaultDark
	}
	t, _ := LookupTheme(id)
	return t
}
