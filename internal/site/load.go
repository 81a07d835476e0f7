package site

import (
	"context"

	"github.com/a-h/templ"

	"github.com/conneroisu/folio/internal/content"
)

// RecentLimit bounds the learnings and podcasts shown on the home page.
const RecentLimit = 3

// HomePage loads the home page from catalog.
func (s *Site) HomePage(ctx context.Context, p Page, catalog *content.Catalog, featuredLimit int) (Page, templ.Component) {
	featured := content.FilterFeatured(catalog.Projects.Records(ctx), featuredLimit)
	learnings := content.Take(catalog.Learnings.Records(ctx), RecentLimit)
	podcasts := content.Take(catalog.Podcasts.Records(ctx), RecentLimit)

	p.Title = ""
	p.Description = s.T(p, "home.subtitle", nil)
	return p, s.Home(p, featured, learnings, podcasts)
}

// ListPage loads the list page of src restricted to category, empty for all.
func (s *Site) ListPage(ctx context.Context, p Page, src content.Source, category string) (Page, templ.Component) {
	records := src.Records(ctx)
	categories := content.CategoriesOf(records)
	records = content.Query{Category: category}.Apply(records)

	p.Title = s.T(p, string(src.Kind())+".title", nil)
	return p, s.List(p, src.Kind(), records, categories, category)
}

// DetailPage loads the detail page of one record. It reports false when id
// does not resolve.
func (s *Site) DetailPage(ctx context.Context, p Page, src content.Source, id string) (Page, templ.Component, bool) {
	record, ok := src.Record(ctx, id)
	if !ok {
		p.Title = "404"
		return p, s.NotFound(p, string(src.Kind()), id), false
	}

	p.Title = content.Heading(record).Resolve(p.Locale)
	p.Description = s.Description(p, record)
	return p, s.Detail(p, src.Kind(), record), true
}
