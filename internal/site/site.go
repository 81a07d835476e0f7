// Package site builds the portfolio's HTML pages as templ components.
//
// Pages take the locale and theme explicitly, so the same component renders
// the deterministic default-locale export and the interactive preview.
package site

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/prefs"
	"github.com/conneroisu/folio/internal/render"
)

// ExcerptLength bounds the meta description derived from a record body.
const ExcerptLength = 160

// Page carries the per-request state shared by every page.
type Page struct {
	Locale i18n.Locale
	Theme  prefs.Theme
	// TransitionsSuppressed adds the no-transitions class to the root element.
	TransitionsSuppressed bool
	// Path is the request path, used to highlight navigation.
	Path string
	// LiveReload injects the preview websocket client.
	LiveReload bool

	Title       string
	Description string
}

// Site renders pages for one configured site.
type Site struct {
	cfg      config.SiteConfig
	messages *i18n.Messages
	renderer *render.Renderer
	logger   logging.Logger
}

// New returns a Site.
func New(cfg config.SiteConfig, messages *i18n.Messages, renderer *render.Renderer, logger logging.Logger) *Site {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Site{
		cfg:      cfg,
		messages: messages,
		renderer: renderer,
		logger:   logger.WithComponent("site"),
	}
}

// T translates key in the page locale.
func (s *Site) T(p Page, key string, params map[string]interface{}) string {
	return s.messages.T(p.Locale, key, params)
}

// Layout wraps body in the document shell.
func (s *Site) Layout(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newWriter(w)

		title := s.cfg.Title
		if p.Title != "" {
			title = p.Title + " | " + s.cfg.Title
		}
		class := "dark"
		if !p.Theme.IsDark {
			class = "light"
		}
		if p.TransitionsSuppressed {
			class += " no-transitions"
		}

		hw.printf(`<!DOCTYPE html><html lang="%s" data-theme="%s" class="%s"><head>`,
			esc(string(p.Locale)), esc(p.Theme.ID), class)
		hw.raw(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.printf(`<title>%s</title>`, esc(title))
		if p.Description != "" {
			hw.printf(`<meta name="description" content="%s">`, esc(p.Description))
		}
		if s.cfg.BaseURL != "" {
			hw.printf(`<link rel="canonical" href="%s">`,
				esc(string(templ.URL(strings.TrimRight(s.cfg.BaseURL, "/")+p.Path))))
		}
		hw.raw(`</head><body>`)
		if hw.err != nil {
			return hw.err
		}

		if err := s.nav(p).Render(ctx, w); err != nil {
			return err
		}

		hw.raw(`<main>`)
		if hw.err != nil {
			return hw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</main>`)
		hw.printf(`<footer><p>%s Go</p></footer>`, esc(s.T(p, "common.builtWith", nil)))

		if p.LiveReload {
			hw.raw(liveReloadScript)
		}
		hw.raw(`</body></html>`)
		return hw.err
	})
}

func (s *Site) nav(p Page) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := newWriter(w)
		hw.raw(`<header><nav>`)
		hw.link("/", s.T(p, "nav.home", nil), p.Path == "/")
		for _, kind := range content.Kinds {
			href := "/" + string(kind)
			hw.link(href, s.T(p, "nav."+string(kind), nil), strings.HasPrefix(p.Path, href))
		}
		hw.raw(`</nav>`)

		hw.printf(`<div class="preferences"><label>%s <select id="theme-select">`, esc(s.T(p, "theme.switch", nil)))
		for _, t := range prefs.Themes() {
			selected := ""
			if t.ID == p.Theme.ID {
				selected = " selected"
			}
			hw.printf(`<option value="%s"%s>%s %s</option>`, esc(t.ID), selected, esc(t.Emoji), esc(t.Name))
		}
		hw.raw(`</select></label>`)

		hw.printf(`<label>%s <select id="locale-select">`, esc(s.T(p, "locale.switch", nil)))
		for _, l := range i18n.Supported {
			selected := ""
			if l == p.Locale {
				selected = " selected"
			}
			hw.printf(`<option value="%s"%s>%s</option>`, esc(string(l)), selected, esc(localeName(l)))
		}
		hw.raw(`</select></label></div></header>`)
		return hw.err
	})
}

func localeName(l i18n.Locale) string {
	if l == i18n.EN {
		return "English"
	}
	return "中文"
}

// Render writes the full page for body.
func (s *Site) Render(ctx context.Context, w io.Writer, p Page, body templ.Component) error {
	if err := s.Layout(p, body).Render(ctx, w); err != nil {
		s.logger.Error(ctx, err, "failed to render page", "path", p.Path)
		return err
	}
	return nil
}

// htmlWriter keeps the first write error so page code can write without
// checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) printf(format string, args ...interface{}) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *htmlWriter) link(href, label string, active bool) {
	class := ""
	if active {
		class = ` class="active" aria-current="page"`
	}
	h.printf(`<a href="%s"%s>%s</a>`, esc(string(templ.URL(href))), class, esc(label))
}

func esc(s string) string {
	return templ.EscapeString(s)
}

const liveReloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  var dark = window.matchMedia("(prefers-color-scheme: dark)");
  function scheme() {
    ws.send(JSON.stringify({type: "color-scheme", dark: dark.matches}));
  }
  ws.onopen = scheme;
  dark.addEventListener("change", scheme);
  ws.onmessage = function (event) {
    var msg = JSON.parse(event.data);
    if (msg.type === "reload" || msg.type === "locale") {
      location.reload();
    } else if (msg.type === "theme") {
      var root = document.documentElement;
      if (msg.transitionsSuppressed) {
        root.classList.add("no-transitions");
        requestAnimationFrame(function () { root.classList.remove("no-transitions"); });
      }
      root.dataset.theme = msg.theme.id;
      root.classList.toggle("dark", msg.theme.isDark);
      root.classList.toggle("light", !msg.theme.isDark);
    }
  };
  function post(body) {
    fetch("/api/preferences", {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)});
  }
  var theme = document.getElementById("theme-select");
  if (theme) theme.addEventListener("change", function () { post({theme: theme.value}); });
  var locale = document.getElementById("locale-select");
  if (locale) locale.addEventListener("change", function () { post({locale: locale.value}); });
})();
</script>`
