package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/prefs"
	"github.com/conneroisu/folio/internal/render"
	"github.com/conneroisu/folio/internal/site"
)

// services holds what a command needs, built lazily from configuration.
type services struct {
	cfg         *config.Config
	logger      logging.Logger
	diagnostics *errors.Diagnostics
	catalog     *content.Catalog

	site  *site.Site
	prefs *prefs.Preferences
}

func newServices(cmd *cobra.Command) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	diagnostics := errors.NewDiagnostics()
	return &services{
		cfg:         cfg,
		logger:      logger,
		diagnostics: diagnostics,
		catalog:     content.NewCatalog(cfg.Content, content.WithLogger(logger), content.WithDiagnostics(diagnostics)),
	}, nil
}

// Locale is the configured rendering locale for non-interactive output.
func (s *services) Locale() i18n.Locale {
	if l, ok := i18n.ParseLocale(s.cfg.Site.Locale); ok {
		return l
	}
	return i18n.Default
}

// Source resolves a kind argument.
func (s *services) Source(arg string) (content.Source, error) {
	kind, err := content.ParseKind(arg)
	if err != nil {
		return nil, err
	}
	return s.catalog.Source(kind)
}

// Site returns the page renderer.
func (s *services) Site() (*site.Site, error) {
	if s.site != nil {
		return s.site, nil
	}
	messages, err := i18n.NewMessages(s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	s.site = site.New(s.cfg.Site, messages, render.New(render.DefaultOptions()), s.logger)
	return s.site, nil
}

// Preferences opens the preference stores. The locale store is hydrated.
func (s *services) Preferences(ctx context.Context) (*prefs.Preferences, error) {
	if s.prefs != nil {
		return s.prefs, nil
	}
	p, err := prefs.Open(ctx, s.cfg.Preferences, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	p.Locale.Hydrate(ctx)
	s.prefs = p
	return p, nil
}

// Close releases the preference stores if they were opened.
func (s *services) Close() error {
	if s.prefs == nil {
		return nil
	}
	err := s.prefs.Close()
	s.prefs = nil
	return err
}
