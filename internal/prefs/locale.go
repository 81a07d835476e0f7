package prefs

import (
	"context"
	"sync"

	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
)

// ErrUnknownLocale matches errors returned for locales outside i18n.Supported.
var ErrUnknownLocale = errors.NewStateError(errors.ErrCodeUnknownLocale, "unknown locale")

// LocaleStore owns the active locale.
//
// Before Hydrate the locale is always i18n.Default, which keeps
// non-interactive output deterministic. Hydrate adopts a valid persisted value
// once; afterwards only SetLocale and Sync change the state.
type LocaleStore struct {
	mu       sync.RWMutex
	storage  Storage
	key      string
	locale   i18n.Locale
	hydrated bool
	logger   logging.Logger
	events   broadcaster[LocaleEvent]
}

// NewLocaleStore returns a store persisting under key in storage.
func NewLocaleStore(storage Storage, key string, logger logging.Logger) *LocaleStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LocaleStore{
		storage: storage,
		key:     key,
		locale:  i18n.Default,
		logger:  logger.WithComponent("prefs").With("store", "locale"),
	}
}

// Locale returns the active locale.
func (s *LocaleStore) Locale() i18n.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// Hydrated reports whether the one-time resolution has run.
func (s *LocaleStore) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Hydrate resolves the locale against storage. Only the first call reads
// storage; invalid persisted values are ignored.
func (s *LocaleStore) Hydrate(ctx context.Context) i18n.Locale {
	s.mu.Lock()
	if s.hydrated {
		defer s.mu.Unlock()
		return s.locale
	}
	s.hydrated = true

	previous := s.locale
	stored, ok := s.stored(ctx)
	if ok {
		s.locale = stored
	}
	current := s.locale
	s.mu.Unlock()

	if current != previous {
		s.logger.Debug(ctx, "locale restored", "locale", current)
		s.events.publish(LocaleEvent{Locale: current, Previous: previous, Source: SourceHydrate})
	}
	return current
}

// SetLocale switches to l and persists it. A locale outside the supported set
// is rejected without changing state. When persisting fails the new locale
// is still active and the storage error is returned.
func (s *LocaleStore) SetLocale(ctx context.Context, l i18n.Locale) error {
	if !l.Valid() {
		err := errors.NewStateError(errors.ErrCodeUnknownLocale, "unknown locale").
			WithContext("locale", string(l))
		s.logger.Warn(ctx, err, "locale not supported", "locale", l)
		return err
	}

	s.mu.Lock()
	previous := s.locale
	s.locale = l
	s.hydrated = true
	s.mu.Unlock()

	var persistErr error
	if err := s.storage.Set(s.key, string(l)); err != nil {
		s.logger.Error(ctx, err, "failed to persist locale", "locale", l)
		persistErr = err
	}

	if previous != l {
		s.logger.Info(ctx, "locale changed", "locale", l, "previous", previous)
		s.events.publish(LocaleEvent{Locale: l, Previous: previous, Source: SourceUser})
	}
	return persistErr
}

// Sync re-reads storage and adopts a valid persisted locale that differs
// from the active one, reporting whether the state changed. It is the hook
// for changes written by another process.
func (s *LocaleStore) Sync(ctx context.Context) bool {
	s.mu.Lock()
	stored, ok := s.stored(ctx)
	if !ok || stored == s.locale {
		s.mu.Unlock()
		return false
	}
	previous := s.locale
	s.locale = stored
	s.hydrated = true
	s.mu.Unlock()

	s.logger.Info(ctx, "locale synchronised from storage", "locale", stored, "previous", previous)
	s.events.publish(LocaleEvent{Locale: stored, Previous: previous, Source: SourceSync})
	return true
}

// Text resolves localized text in the active locale.
func (s *LocaleStore) Text(t i18n.LocalizedText) string {
	return t.Resolve(s.Locale())
}

// Watch returns a channel receiving every locale change.
func (s *LocaleStore) Watch() <-chan LocaleEvent {
	return s.events.watch()
}

// Unwatch closes and removes a channel returned by Watch.
func (s *LocaleStore) Unwatch(ch <-chan LocaleEvent) {
	s.events.unwatch(ch)
}

// Close closes every watcher.
func (s *LocaleStore) Close() {
	s.events.close()
}

func (s *LocaleStore) stored(ctx context.Context) (i18n.Locale, bool) {
	raw, ok := s.storage.Get(s.key)
	if !ok {
		return "", false
	}
	l := i18n.Locale(raw)
	if !l.Valid() {
		s.logger.Debug(ctx, "ignoring invalid persisted locale", "value", raw)
		return "", false
	}
	return l, true
}
