package prefs

import "strings"

// Theme identifiers.
const (
	DarkElegance = "dark-elegance"
	LightClean   = "light-clean"
	OceanBlue    = "ocean-blue"
	ForestGreen  = "forest-green"
	SunsetOrange = "sunset-orange"
	RoyalPurple  = "royal-purple"
	SakuraPink   = "sakura-pink"
)

// Theme is one named visual theme.
type Theme struct {
	ID     string `json:"id"     yaml:"id"`
	Name   string `json:"name"   yaml:"name"`
	Emoji  string `json:"emoji"  yaml:"emoji"`
	IsDark bool   `json:"isDark" yaml:"is_dark"`
	// Counterpart is the theme of opposite brightness used by ToggleDark.
	// Empty means fall back to the default light or dark theme.
	Counterpart string `json:"counterpart,omitempty" yaml:"counterpart,omitempty"`
}

var themes = []Theme{
	{ID: DarkElegance, Name: "Dark Elegance", Emoji: "🌙", IsDark: true, Counterpart: LightClean},
	{ID: LightClean, Name: "Light Clean", Emoji: "☀️", IsDark: false, Counterpart: DarkElegance},
	{ID: OceanBlue, Name: "Ocean Blue", Emoji: "🌊", IsDark: true, Counterpart: LightClean},
	{ID: ForestGreen, Name: "Forest Green", Emoji: "🌲", IsDark: true, Counterpart: LightClean},
	{ID: SunsetOrange, Name: "Sunset Orange", Emoji: "🔥", IsDark: true, Counterpart: SakuraPink},
	{ID: RoyalPurple, Name: "Royal Purple", Emoji: "💜", IsDark: true, Counterpart: SakuraPink},
	{ID: SakuraPink, Name: "Sakura Pink", Emoji: "🌸", IsDark: false, Counterpart: RoyalPurple},
}

// Themes returns the theme catalog in display order.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// LookupTheme returns the theme named id.
func LookupTheme(id string) (Theme, bool) {
	for _, t := range themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// ThemeIDs lists the valid theme identifiers, comma separated.
func ThemeIDs() string {
	ids := make([]string, len(themes))
	for i, t := range themes {
		ids[i] = t.ID
	}
	return strings.Join(ids, ", ")
}
