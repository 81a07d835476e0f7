package prefs

import (
	"sync"

	"github.com/conneroisu/folio/internal/i18n"
)

// Source tells subscribers what caused a change.
type Source string

const (
	SourceHydrate Source = "hydrate"
	SourceUser    Source = "user"
	SourceToggle  Source = "toggle"
	SourceSystem  Source = "system"
	SourceSync    Source = "sync"
)

// LocaleEvent is emitted when the active locale changes.
type LocaleEvent struct {
	Locale   i18n.Locale `json:"locale"`
	Previous i18n.Locale `json:"previous"`
	Source   Source      `json:"source"`
}

// ThemeEvent is emitted when the active theme changes.
type ThemeEvent struct {
	Theme                 Theme  `json:"theme"`
	Previous              string `json:"previous"`
	Source                Source `json:"source"`
	TransitionsSuppressed bool   `json:"transitionsSuppressed"`
}

const watcherBuffer = 100

// broadcaster fans events out to subscriber channels without blocking.
type broadcaster[E any] struct {
	mu       sync.Mutex
	watchers []chan E
}

func (b *broadcaster[E]) watch() <-chan E {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan E, watcherBuffer)
	b.watchers = append(b.watchers, ch)
	return ch
}

func (b *broadcaster[E]) unwatch(ch <-chan E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, watcher := range b.watchers {
		if watcher == ch {
			close(watcher)
			b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
			return
		}
	}
}

func (b *broadcaster[E]) publish(event E) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, watcher := range b.watchers {
		select {
		case watcher <- event:
		default:
			// Subscriber is behind; drop the event.
		}
	}
}

func (b *broadcaster[E]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, watcher := range b.watchers {
		close(watcher)
	}
	b.watchers = nil
}
