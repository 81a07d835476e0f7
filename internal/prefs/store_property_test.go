//go:build property

package prefs

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genThemeID() gopter.Gen {
	ids := make([]interface{}, 0, len(themes)+2)
	for _, t := range themes {
		ids = append(ids, t.ID)
	}
	ids = append(ids, "neon", "")
	return gen.OneConstOf(ids...)
}

func TestThemeStoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("state and storage follow the last valid id", prop.ForAll(
		func(ids []string) bool {
			ctx := context.Background()
			storage := NewMemoryStorage()
			store, err := NewThemeStore(ctx, storage, ThemeOptions{Scheduler: newManualScheduler()}, nil)
			if err != nil {
				return false
			}
			defer store.Close()

			want := LightClean
			for _, id := range ids {
				if _, ok := LookupTheme(id); ok {
					want = id
				}
				_ = store.SetTheme(ctx, id)
			}

			stored, ok := storage.Get("app-theme")
			if want == LightClean && !ok {
				stored = LightClean
			}
			return store.Theme().ID == want && stored == want
		},
		gen.SliceOf(genThemeID()),
	))

	properties.Property("toggling twice returns to a theme of the same brightness", prop.ForAll(
		func(id string) bool {
			ctx := context.Background()
			storage := NewMemoryStorage()
			_ = storage.Set("app-theme", id)
			store, err := NewThemeStore(ctx, storage, ThemeOptions{Scheduler: newManualScheduler()}, nil)
			if err != nil {
				return false
			}
			defer store.Close()

			start := store.IsDark()
			_ = store.ToggleDark(ctx)
			if store.IsDark() == start {
				return false
			}
			_ = store.ToggleDark(ctx)
			return store.IsDark() == start
		},
		genThemeID(),
	))

	properties.TestingRun(t)
}
