package site

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/render"
)

// KindPath returns the list page path of kind.
func KindPath(kind content.Kind) string {
	return "/" + string(kind)
}

// RecordPath returns the detail page path of a record.
func RecordPath(kind content.Kind, id string) string {
	return "/" + string(kind) + "/" + id
}

// Home lists featured projects and the most recent records of the other
// kinds.
func (s *Site) Home(p Page, featured []content.Record, learnings, podcasts []content.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.printf(`<section class="hero"><h1>%s %s</h1><p>%s</p>`,
			esc(s.T(p, "home.greeting", nil)), esc(s.cfg.Title), esc(s.T(p, "home.subtitle", nil)))
		hw.link(KindPath(content.KindProjects), s.T(p, "home.viewProjects", nil), false)
		hw.raw(`</section>`)

		s.section(hw, p, content.KindProjects, s.T(p, "projects.featured", nil), featured,
			s.T(p, "common.noProjectsYet", nil), s.T(p, "projects.viewAll", nil))
		s.section(hw, p, content.KindLearnings, s.T(p, "learnings.recent", nil), learnings,
			s.T(p, "common.noLearningsYet", nil), s.T(p, "learnings.viewAll", nil))
		s.section(hw, p, content.KindPodcasts, s.T(p, "podcasts.all", nil), podcasts,
			s.T(p, "podcasts.noPodcasts", nil), s.T(p, "nav.podcasts", nil))
		return hw.err
	})
}

func (s *Site) section(hw *htmlWriter, p Page, kind content.Kind, heading string, records []content.Record, empty, more string) {
	hw.printf(`<section class="%s"><h2>%s</h2>`, esc(string(kind)), esc(heading))
	s.cards(hw, p, kind, records, empty)
	hw.link(KindPath(kind), more, false)
	hw.raw(`</section>`)
}

// List renders every record of kind with a category filter. active is the
// selected category, empty for all.
func (s *Site) List(p Page, kind content.Kind, records []content.Record, categories []string, active string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.printf(`<h1>%s</h1>`, esc(s.T(p, string(kind)+".title", nil)))

		switch kind {
		case content.KindProjects:
			hw.printf(`<p class="count">%s</p>`, esc(s.T(p, "projects.count", map[string]interface{}{"count": len(records)})))
		case content.KindPodcasts:
			hw.printf(`<p class="count">%s</p>`, esc(s.T(p, "podcasts.episodes", map[string]interface{}{"count": len(records)})))
		}

		if len(categories) > 0 {
			hw.printf(`<nav class="categories" aria-label="%s">`, esc(s.T(p, "common.category", nil)))
			hw.link(KindPath(kind), "*", active == "")
			for _, c := range categories {
				hw.link(KindPath(kind)+"?category="+url.QueryEscape(c), c, c == active)
			}
			hw.raw(`</nav>`)
		}

		s.cards(hw, p, kind, records, s.emptyMessage(p, kind))
		return hw.err
	})
}

func (s *Site) emptyMessage(p Page, kind content.Kind) string {
	switch kind {
	case content.KindProjects:
		return s.T(p, "common.noProjectsYet", nil)
	case content.KindLearnings:
		return s.T(p, "common.noLearningsYet", nil)
	default:
		return s.T(p, "podcasts.noPodcasts", nil)
	}
}

func (s *Site) cards(hw *htmlWriter, p Page, kind content.Kind, records []content.Record, empty string) {
	if len(records) == 0 {
		hw.printf(`<p class="empty">%s</p>`, esc(empty))
		return
	}

	hw.raw(`<ul class="cards">`)
	for _, r := range records {
		meta := r.Metadata()
		featured := ""
		if meta.Featured {
			featured = " featured"
		}
		hw.printf(`<li class="card%s">`, featured)
		if l, ok := r.(*content.Learning); ok && l.Icon != "" {
			hw.printf(`<span class="icon">%s</span>`, esc(l.Icon))
		}
		hw.printf(`<h3><a href="%s">%s</a></h3>`,
			esc(string(templ.URL(RecordPath(kind, meta.ID)))), esc(content.Heading(r).Resolve(p.Locale)))
		hw.printf(`<p class="meta"><span class="category">%s</span> <time datetime="%s">%s</time></p>`,
			esc(meta.Category), esc(meta.Date), esc(i18n.FormatDate(meta.Date, p.Locale)))
		if summary := content.Summary(r).Resolve(p.Locale); summary != "" {
			hw.printf(`<p>%s</p>`, esc(summary))
		}
		if project, ok := r.(*content.Project); ok && len(project.TechStack) > 0 {
			hw.raw(`<ul class="tech">`)
			for _, tech := range project.TechStack {
				hw.printf(`<li>%s</li>`, esc(tech))
			}
			hw.raw(`</ul>`)
		}
		hw.raw(`</li>`)
	}
	hw.raw(`</ul>`)
}

// Detail renders one record with its body.
func (s *Site) Detail(p Page, kind content.Kind, r content.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		meta := r.Metadata()
		body, err := s.renderer.Render(meta.Content)
		if err != nil {
			s.logger.Error(ctx, err, "failed to render record body", "kind", string(kind), "id", meta.ID)
			return err
		}

		hw := newWriter(w)
		hw.printf(`<article class="%s">`, esc(string(kind)))
		hw.printf(`<h1>%s</h1>`, esc(content.Heading(r).Resolve(p.Locale)))
		hw.printf(`<p class="meta"><span class="category">%s</span> <time datetime="%s">%s</time></p>`,
			esc(meta.Category), esc(meta.Date), esc(i18n.FormatDate(meta.Date, p.Locale)))

		switch rec := r.(type) {
		case *content.Project:
			if rec.CoverImage != "" {
				hw.printf(`<img class="cover" src="%s" alt="">`, esc(string(templ.URL(rec.CoverImage))))
			}
			if rec.GitHubURL != "" {
				hw.printf(`<a class="github" href="%s">GitHub</a>`, esc(string(templ.URL(rec.GitHubURL))))
			}
			if rec.DemoURL != "" {
				hw.printf(`<a class="demo" href="%s">Demo</a>`, esc(string(templ.URL(rec.DemoURL))))
			}
		case *content.Learning:
			if len(rec.Details) > 0 {
				hw.raw(`<ul class="details">`)
				for _, d := range rec.Details {
					hw.printf(`<li>%s</li>`, esc(d))
				}
				hw.raw(`</ul>`)
			}
			if rec.Link != "" {
				hw.printf(`<a class="link" href="%s">%s</a>`, esc(string(templ.URL(rec.Link))), esc(rec.Link))
			}
		case *content.Podcast:
			hw.printf(`<p class="duration">%s</p>`, esc(rec.Duration))
			if rec.AudioURL != "" {
				hw.printf(`<audio controls preload="none" src="%s"></audio>`, esc(string(templ.URL(rec.AudioURL))))
			}
		}

		if headings := render.Headings(body); len(headings) > 1 {
			hw.raw(`<nav class="toc"><ol>`)
			for _, h := range headings {
				hw.printf(`<li class="level-%d"><a href="#%s">%s</a></li>`, h.Level, esc(h.ID), esc(h.Text))
			}
			hw.raw(`</ol></nav>`)
		}

		if strings.TrimSpace(body) != "" {
			hw.raw(`<div class="body">`)
			hw.raw(body)
			hw.raw(`</div>`)
		}
		hw.raw(`</article>`)

		back := s.T(p, "nav."+string(kind), nil)
		if kind == content.KindPodcasts {
			back = s.T(p, "podcasts.backToPodcasts", nil)
		}
		hw.link(KindPath(kind), back, false)
		return hw.err
	})
}

// Description returns the meta description of a record: its summary, or an
// excerpt of the rendered body.
func (s *Site) Description(p Page, r content.Record) string {
	if summary := content.Summary(r).Resolve(p.Locale); summary != "" {
		return summary
	}
	body, err := s.renderer.Render(r.Metadata().Content)
	if err != nil {
		return ""
	}
	return render.PlainText(body, ExcerptLength)
}

// NotFound renders the missing-record page.
func (s *Site) NotFound(p Page, kind, id string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.printf(`<section class="not-found"><h1>404</h1><p>%s</p>`,
			esc(s.T(p, "common.notFound", map[string]interface{}{"kind": kind, "id": id})))
		hw.link("/", s.T(p, "about.backHome", nil), false)
		hw.raw(`</section>`)
		return hw.err
	})
}
