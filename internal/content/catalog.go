package content

import (
	"context"
	"fmt"

	"github.com/conneroisu/folio/internal/config"
)

// Source is the kind-independent view of a Collection used by the server,
// the static export and the CLI.
type Source interface {
	Kind() Kind
	Dir() string
	Extension() string
	Records(ctx context.Context) []Record
	Record(ctx context.Context, id string) (Record, bool)
	Categories(ctx context.Context) []string
	IDs(ctx context.Context) []string
}

// Catalog bundles the three collections of a site.
type Catalog struct {
	Projects  *Collection[*Project]
	Learnings *Collection[*Learning]
	Podcasts  *Collection[*Podcast]
}

// NewCatalog builds the collections from the content configuration.
func NewCatalog(cfg config.ContentConfig, opts ...Option) *Catalog {
	with := func(ext string) []Option {
		return append(append([]Option{}, opts...), WithExtension(ext))
	}

	return &Catalog{
		Projects:  New(ProjectSchema(), cfg.Path(cfg.Projects), with(cfg.Projects.Extension)...),
		Learnings: New(LearningSchema(), cfg.Path(cfg.Learnings), with(cfg.Learnings.Extension)...),
		Podcasts:  New(PodcastSchema(), cfg.Path(cfg.Podcasts), with(cfg.Podcasts.Extension)...),
	}
}

// Source returns the collection for kind.
func (c *Catalog) Source(kind Kind) (Source, error) {
	switch kind {
	case KindProjects:
		return c.Projects, nil
	case KindLearnings:
		return c.Learnings, nil
	case KindPodcasts:
		return c.Podcasts, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

// Sources returns every collection in navigation order.
func (c *Catalog) Sources() []Source {
	return []Source{c.Projects, c.Learnings, c.Podcasts}
}

// Dirs returns the directory of every collection.
func (c *Catalog) Dirs() []string {
	sources := c.Sources()
	dirs := make([]string, len(sources))
	for i, s := range sources {
		dirs[i] = s.Dir()
	}
	return dirs
}

// Extensions returns the distinct file extensions matched by the catalog.
func (c *Catalog) Extensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, s := range c.Sources() {
		if !seen[s.Extension()] {
			seen[s.Extension()] = true
			exts = append(exts, s.Extension())
		}
	}
	return exts
}
