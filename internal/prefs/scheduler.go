package prefs

import (
	"time"
)

// DefaultFrameInterval approximates one display frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler runs a callback on the next frame. The returned function
// cancels a callback that has not run yet.
type FrameScheduler interface {
	AfterFrame(fn func()) (cancel func())
}

// TimerScheduler treats a fixed interval as one frame.
type TimerScheduler struct {
	Interval time.Duration
}

// AfterFrame implements FrameScheduler.
func (s TimerScheduler) AfterFrame(fn func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	timer := time.AfterFunc(interval, fn)
	return func() { timer.Stop() }
}

// SystemPreference reports the operating-system color scheme.
type SystemPreference interface {
	PrefersDark() bool
}

// StaticPreference is a fixed system preference, typically read from
// configuration.
type StaticPreference struct {
	Dark bool
}

// PrefersDark implements SystemPreference.
func (p StaticPreference) PrefersDark() bool { return p.Dark }

// PreferenceFromScheme maps a CSS color-scheme value ("dark", "light" or
// empty) to a StaticPreference.
func PreferenceFromScheme(scheme string) StaticPreference {
	return StaticPreference{Dark: scheme == "dark"}
}
