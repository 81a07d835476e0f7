package server

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/prefs"
	"github.com/conneroisu/folio/internal/site"
	"github.com/conneroisu/folio/internal/version"
)

const maxPreferencesBody = 1 << 10

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/themes", s.handleThemes)
	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("POST /api/preferences", s.handleSetPreferences)
	mux.HandleFunc("GET /api/{kind}", s.handleAPIList)
	mux.HandleFunc("GET /api/{kind}/categories", s.handleAPICategories)
	mux.HandleFunc("GET /api/{kind}/{id}", s.handleAPIRecord)
	mux.HandleFunc("GET /{kind}", s.handleList)
	mux.HandleFunc("GET /{kind}/{id}", s.handleDetail)
	return s.addMiddleware(mux)
}

// page returns the per-request page state. The ?lang= query overrides the
// stored locale for a single request.
func (s *Server) page(r *http.Request) site.Page {
	locale := s.prefs.Locale.Locale()
	if l, ok := i18n.ParseLocale(r.URL.Query().Get("lang")); ok {
		locale = l
	}
	return site.Page{
		Locale:                locale,
		Theme:                 s.prefs.Theme.Theme(),
		TransitionsSuppressed: s.prefs.Theme.TransitionsSuppressed(),
		Path:                  r.URL.Path,
		LiveReload:            true,
	}
}

func (s *Server) source(r *http.Request) (content.Source, bool) {
	src, err := s.catalog.Source(content.Kind(r.PathValue("kind")))
	return src, err == nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, p site.Page, body templ.Component) {
	var buf bytes.Buffer
	if err := s.site.Render(r.Context(), &buf, p, body); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p, body := s.site.HomePage(r.Context(), s.page(r), s.catalog, s.config.Content.FeaturedLimit)
	s.renderPage(w, r, http.StatusOK, p, body)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	p := s.page(r)
	src, ok := s.source(r)
	if !ok {
		p.Title = "404"
		s.renderPage(w, r, http.StatusNotFound, p, s.site.NotFound(p, r.PathValue("kind"), ""))
		return
	}

	p, body := s.site.ListPage(r.Context(), p, src, r.URL.Query().Get("category"))
	s.renderPage(w, r, http.StatusOK, p, body)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	p := s.page(r)
	src, ok := s.source(r)
	if !ok {
		p.Title = "404"
		s.renderPage(w, r, http.StatusNotFound, p, s.site.NotFound(p, r.PathValue("kind"), r.PathValue("id")))
		return
	}

	p, body, found := s.site.DetailPage(r.Context(), p, src, r.PathValue("id"))
	status := http.StatusOK
	if !found {
		status = http.StatusNotFound
	}
	s.renderPage(w, r, status, p, body)
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind "+strconv.Quote(r.PathValue("kind")))
		return
	}

	q := r.URL.Query()
	query := content.Query{Category: q.Get("category")}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "featured must be a boolean")
			return
		}
		query.Featured = featured
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		query.Limit = limit
	}

	writeJSON(w, http.StatusOK, query.Apply(src.Records(r.Context())))
}

func (s *Server) handleAPIRecord(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind "+strconv.Quote(r.PathValue("kind")))
		return
	}

	id := r.PathValue("id")
	record, found := src.Record(r.Context(), id)
	if !found {
		writeError(w, http.StatusNotFound, string(src.Kind())+" not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown content kind "+strconv.Quote(r.PathValue("kind")))
		return
	}
	writeJSON(w, http.StatusOK, src.Categories(r.Context()))
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs.Theme.Themes())
}

// PreferencesResponse is the body of /api/preferences.
type PreferencesResponse struct {
	Locale                i18n.Locale `json:"locale"`
	Hydrated              bool        `json:"hydrated"`
	Theme                 prefs.Theme `json:"theme"`
	IsDark                bool        `json:"isDark"`
	TransitionsSuppressed bool        `json:"transitionsSuppressed"`
}

// PreferencesRequest changes at most one preference per field. Toggle flips
// the theme brightness after Theme is applied.
type PreferencesRequest struct {
	Locale *string `json:"locale,omitempty"`
	Theme  *string `json:"theme,omitempty"`
	Toggle bool    `json:"toggle,omitempty"`
}

func (s *Server) preferences() PreferencesResponse {
	theme := s.prefs.Theme.Theme()
	return PreferencesResponse{
		Locale:                s.prefs.Locale.Locale(),
		Hydrated:              s.prefs.Locale.Hydrated(),
		Theme:                 theme,
		IsDark:                theme.IsDark,
		TransitionsSuppressed: s.prefs.Theme.TransitionsSuppressed(),
	}
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.preferences())
}

// handleSetPreferences only accepts JSON bodies, and a browser request must
// come from an allowed origin. Cross-site form posts can send neither.
func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}
	if r.Header.Get("Origin") != "" {
		if _, ok := s.checkOrigin(r); !ok {
			s.logger.Warn(r.Context(), nil, "preferences origin rejected", "origin", r.Header.Get("Origin"))
			writeError(w, http.StatusForbidden, "origin not allowed")
			return
		}
	}

	var req PreferencesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPreferencesBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Locale == nil && req.Theme == nil && !req.Toggle {
		writeError(w, http.StatusBadRequest, "nothing to change")
		return
	}

	ctx := r.Context()
	if req.Locale != nil {
		locale := i18n.Locale(*req.Locale)
		if l, ok := i18n.ParseLocale(*req.Locale); ok {
			locale = l
		}
		if err := s.prefs.Locale.SetLocale(ctx, locale); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Theme != nil {
		if err := s.prefs.Theme.SetTheme(ctx, *req.Theme); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Toggle {
		if err := s.prefs.Theme.ToggleDark(ctx); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.preferences())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   version.GetShortVersion(),
		"clients":   s.hub.Count(),
		"timestamp": time.Now().UTC(),
	})
}

// writeStoreError maps rejected transitions to 400 and storage failures to
// 500. A 500 still means the new value is active for this process.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.IsStateError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
