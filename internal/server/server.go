// Package server is the preview server: it renders the site on request,
// serves the content as JSON, exposes the locale and theme stores and pushes
// live updates to browsers over a websocket.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/prefs"
	"github.com/conneroisu/folio/internal/site"
	"github.com/conneroisu/folio/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

// Server serves the site with live reload.
type Server struct {
	config  *config.Config
	catalog *content.Catalog
	prefs   *prefs.Preferences
	site    *site.Site
	hub     *Hub
	logger  logging.Logger

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	watcher      *watcher.FileWatcher
	shutdownOnce sync.Once
}

// New returns a Server. The preference stores are owned by the caller.
func New(cfg *config.Config, catalog *content.Catalog, preferences *prefs.Preferences, pages *site.Site, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		config:  cfg,
		catalog: catalog,
		prefs:   preferences,
		site:    pages,
		logger:  logger.WithComponent("server"),
	}
	s.hub = NewHub(s.handleClientMessage, logger)
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

// Start runs the server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.startBackground(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, err, "shutdown failed")
		}
	}()

	s.logger.Info(ctx, "preview server listening", "url", "http://"+s.Addr())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startBackground starts the hub, the preference relay and the file watcher.
func (s *Server) startBackground(ctx context.Context) {
	s.prefs.Locale.Hydrate(ctx)

	locales := s.prefs.Locale.Watch()
	themes := s.prefs.Theme.Watch()

	go s.hub.Run(ctx)
	go s.relayPreferences(ctx, locales, themes)

	if s.config.Server.Watch {
		if err := s.setupFileWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "live reload disabled")
		}
	}
}

// relayPreferences forwards store changes to browsers.
func (s *Server) relayPreferences(ctx context.Context, locales <-chan prefs.LocaleEvent, themes <-chan prefs.ThemeEvent) {
	defer s.prefs.Locale.Unwatch(locales)
	defer s.prefs.Theme.Unwatch(themes)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-locales:
			if !ok {
				return
			}
			s.hub.Broadcast(Message{Type: MessageLocale, Locale: event.Locale, Source: event.Source})
		case event, ok := <-themes:
			if !ok {
				return
			}
			theme := event.Theme
			s.hub.Broadcast(Message{
				Type:                  MessageTheme,
				Theme:                 &theme,
				TransitionsSuppressed: event.TransitionsSuppressed,
				Source:                event.Source,
			})
		}
	}
}

func (s *Server) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(watcher.DefaultDelay, s.logger)
	if err != nil {
		return err
	}

	accept := []watcher.FileFilter{watcher.ExtensionFilter(s.catalog.Extensions()...)}
	if s.prefs.Path != "" {
		accept = append(accept, watcher.PathFilter(s.prefs.Path))
	}
	fw.AddFilter(watcher.AnyFilter(accept...))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddHandler(s.handleFileChange)

	for _, dir := range s.catalog.Dirs() {
		if err := fw.AddRecursive(dir); err != nil {
			s.logger.Warn(ctx, err, "cannot watch content directory", "dir", dir)
		}
	}
	if s.prefs.Path != "" {
		dir := filepath.Dir(s.prefs.Path)
		if err := os.MkdirAll(dir, 0755); err == nil {
			if err := fw.AddPath(dir); err != nil {
				s.logger.Warn(ctx, err, "cannot watch preferences", "path", s.prefs.Path)
			}
		}
	}

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
	return nil
}

// handleFileChange reloads browsers on content changes and re-reads the
// stores when another process wrote the preferences.
func (s *Server) handleFileChange(events []watcher.ChangeEvent) error {
	ctx := context.Background()

	var changed []string
	prefsChanged := false
	for _, event := range events {
		if s.prefs.Path != "" && filepath.Clean(event.Path) == filepath.Clean(s.prefs.Path) {
			prefsChanged = true
			continue
		}
		s.logger.Info(ctx, "content changed", "path", event.Path, "event", event.Type.String())
		changed = append(changed, event.Path)
	}

	if prefsChanged {
		s.prefs.Locale.Sync(ctx)
		s.prefs.Theme.Sync(ctx)
	}
	if len(changed) > 0 {
		s.hub.Broadcast(Message{Type: MessageReload, Paths: changed})
	}
	return nil
}

func (s *Server) handleClientMessage(ctx context.Context, clientID string, msg ClientMessage) {
	switch msg.Type {
	case "color-scheme":
		if s.prefs.Theme.SystemPreferenceChanged(ctx, msg.Dark) {
			s.logger.Debug(ctx, "applied system color scheme", "client", clientID, "dark", msg.Dark)
		}
	default:
		s.logger.Debug(ctx, "ignoring client message", "client", clientID, "type", msg.Type)
	}
}

// Shutdown stops the HTTP server, the watcher and the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down server")

		s.serverMutex.RLock()
		fw := s.watcher
		server := s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "failed to stop file watcher")
			}
		}

		s.hub.Shutdown()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("http server shutdown: %w", err)
			}
		}
	})

	return shutdownErr
}
