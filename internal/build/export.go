// Package build exports the site as static files: every page in one locale
// plus a JSON data file per content kind.
package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/content"
	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/prefs"
	"github.com/conneroisu/folio/internal/site"
)

// Options configures an export.
type Options struct {
	OutputDir string
	// Clean removes OutputDir before writing.
	Clean         bool
	Workers       int
	Locale        i18n.Locale
	Theme         prefs.Theme
	FeaturedLimit int
	// BaseURL enables sitemap.xml when set.
	BaseURL string
}

// OptionsFromConfig derives export options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	locale := i18n.Default
	if cfg.Site.Locale != "" {
		l, ok := i18n.ParseLocale(cfg.Site.Locale)
		if !ok {
			return Options{}, errors.ConfigurationError("site.locale", "unsupported locale", cfg.Site.Locale)
		}
		locale = l
	}

	themeID := cfg.Preferences.DefaultTheme
	if themeID == "" {
		themeID = prefs.DarkElegance
	}
	theme, ok := prefs.LookupTheme(themeID)
	if !ok {
		return Options{}, errors.ConfigurationError("preferences.default_theme", "unknown theme", themeID)
	}

	return Options{
		OutputDir:     cfg.Build.OutputDir,
		Clean:         cfg.Build.Clean,
		Locale:        locale,
		Theme:         theme,
		FeaturedLimit: cfg.Content.FeaturedLimit,
		BaseURL:       cfg.Site.BaseURL,
	}, nil
}

// Artifact is one written file.
type Artifact struct {
	// Path is the URL path the file serves, empty for data files.
	Path string `json:"path,omitempty"`
	// File is relative to the output directory, slash separated.
	File string `json:"file"`
	Size int64  `json:"size"`
	Hash string `json:"hash"`
}

// Result summarises an export.
type Result struct {
	OutputDir string        `json:"outputDir"`
	Artifacts []Artifact    `json:"artifacts"`
	Duration  time.Duration `json:"duration"`
}

// Pages counts the HTML artifacts.
func (r *Result) Pages() int {
	n := 0
	for _, a := range r.Artifacts {
		if strings.HasSuffix(a.File, ".html") {
			n++
		}
	}
	return n
}

// Exporter renders the site to disk.
type Exporter struct {
	catalog *content.Catalog
	site    *site.Site
	opts    Options
	logger  logging.Logger
}

// task renders one output file.
type task struct {
	urlPath string
	file    string
	render  func(ctx context.Context, w io.Writer) error
}

// NewExporter returns an Exporter.
func NewExporter(catalog *content.Catalog, pages *site.Site, opts Options, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if !opts.Locale.Valid() {
		opts.Locale = i18n.Default
	}
	if opts.Theme.ID == "" {
		opts.Theme, _ = prefs.LookupTheme(prefs.DarkElegance)
	}
	return &Exporter{
		catalog: catalog,
		site:    pages,
		opts:    opts,
		logger:  logger.WithComponent("build"),
	}
}

// Export writes the site into the output directory.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	start := time.Now()

	outputDir, err := e.prepareOutput()
	if err != nil {
		return nil, err
	}

	tasks := e.plan(ctx)
	e.logger.Info(ctx, "exporting site", "output", outputDir, "files", len(tasks), "locale", e.opts.Locale)

	var (
		mu        sync.Mutex
		artifacts = make([]Artifact, 0, len(tasks))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, t := range tasks {
		g.Go(func() error {
			artifact, err := e.write(gctx, outputDir, t)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts = append(artifacts, artifact)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].File < artifacts[j].File })
	result := &Result{OutputDir: outputDir, Artifacts: artifacts, Duration: time.Since(start)}
	e.logger.Info(ctx, "export complete", "files", len(artifacts), "pages", result.Pages(), "duration", result.Duration.String())
	return result, nil
}

// prepareOutput validates, optionally cleans, and creates the output
// directory.
func (e *Exporter) prepareOutput() (string, error) {
	dir := filepath.Clean(e.opts.OutputDir)
	if e.opts.OutputDir == "" || dir == "." || dir == string(filepath.Separator) {
		return "", errors.ConfigurationError("build.output_dir", "refusing to export into this directory", e.opts.OutputDir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeInvalidPath, "cannot resolve output directory", err).WithLocation(dir, 0)
	}
	for _, contentDir := range e.catalog.Dirs() {
		contentAbs, err := filepath.Abs(contentDir)
		if err != nil {
			continue
		}
		if contentAbs == abs || strings.HasPrefix(contentAbs, abs+string(filepath.Separator)) {
			return "", errors.ConfigurationError("build.output_dir", "output directory contains content", e.opts.OutputDir)
		}
	}

	if e.opts.Clean {
		if err := os.RemoveAll(dir); err != nil {
			return "", errors.NewIOError(errors.ErrCodeStorage, "cannot clean output directory", err).WithLocation(dir, 0)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewIOError(errors.ErrCodeStorage, "cannot create output directory", err).WithLocation(dir, 0)
	}
	return dir, nil
}

func (e *Exporter) page(urlPath string) site.Page {
	return site.Page{Locale: e.opts.Locale, Theme: e.opts.Theme, Path: urlPath}
}

// plan lists every file of the export.
func (e *Exporter) plan(ctx context.Context) []task {
	tasks := []task{{
		urlPath: "/",
		file:    "index.html",
		render: func(ctx context.Context, w io.Writer) error {
			p, body := e.site.HomePage(ctx, e.page("/"), e.catalog, e.opts.FeaturedLimit)
			return e.site.Render(ctx, w, p, body)
		},
	}}

	for _, src := range e.catalog.Sources() {
		kindPath := site.KindPath(src.Kind())
		tasks = append(tasks, task{
			urlPath: kindPath,
			file:    path.Join(string(src.Kind()), "index.html"),
			render: func(ctx context.Context, w io.Writer) error {
				p, body := e.site.ListPage(ctx, e.page(kindPath), src, "")
				return e.site.Render(ctx, w, p, body)
			},
		})

		for _, id := range src.IDs(ctx) {
			recordPath := site.RecordPath(src.Kind(), id)
			tasks = append(tasks, task{
				urlPath: recordPath,
				file:    path.Join(string(src.Kind()), id, "index.html"),
				render: func(ctx context.Context, w io.Writer) error {
					p, body, ok := e.site.DetailPage(ctx, e.page(recordPath), src, id)
					if !ok {
						return errors.NewStateError(errors.ErrCodeFileNotFound, "record disappeared during export").
							WithContext("kind", string(src.Kind())).
							WithContext("id", id)
					}
					return e.site.Render(ctx, w, p, body)
				},
			})
		}

		tasks = append(tasks, task{
			file: string(src.Kind()) + ".json",
			render: func(ctx context.Context, w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(src.Records(ctx))
			},
		})
	}

	tasks = append(tasks, task{
		file: "404.html",
		render: func(ctx context.Context, w io.Writer) error {
			p := e.page("/404")
			p.Title = "404"
			return e.site.Render(ctx, w, p, e.site.NotFound(p, "page", ""))
		},
	})

	if e.opts.BaseURL != "" {
		urls := make([]string, 0, len(tasks))
		for _, t := range tasks {
			if t.urlPath != "" {
				urls = append(urls, strings.TrimRight(e.opts.BaseURL, "/")+t.urlPath)
			}
		}
		tasks = append(tasks, task{
			file: "sitemap.xml",
			render: func(_ context.Context, w io.Writer) error {
				return writeSitemap(w, urls)
			},
		})
	}

	return tasks
}

func (e *Exporter) write(ctx context.Context, outputDir string, t task) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	var buf bytes.Buffer
	if err := t.render(ctx, &buf); err != nil {
		return Artifact{}, errors.NewInternalError(errors.ErrCodeInternalError, "cannot render page", err).WithLocation(t.file, 0)
	}

	target := filepath.Join(outputDir, filepath.FromSlash(t.file))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return Artifact{}, errors.NewIOError(errors.ErrCodeStorage, "cannot create directory", err).WithLocation(target, 0)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return Artifact{}, errors.NewIOError(errors.ErrCodeStorage, "cannot write file", err).WithLocation(target, 0)
	}

	sum := sha256.Sum256(buf.Bytes())
	e.logger.Debug(ctx, "wrote file", "file", t.file, "bytes", buf.Len())
	return Artifact{
		Path: t.urlPath,
		File: t.file,
		Size: int64(buf.Len()),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func writeSitemap(w io.Writer, urls []string) error {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, u := range urls {
		set.URLs = append(set.URLs, sitemapURL{Loc: u})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
